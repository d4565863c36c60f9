package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelchat/kestreld/internal/config"
)

// CheckConfigResult is the checkconfig command's JSON payload.
type CheckConfigResult struct {
	Path     string `json:"path"`
	NodeName string `json:"node_name"`
	SID      string `json:"sid"`
	Database string `json:"database"`
	LogLevel string `json:"log_level"`
}

// NewCheckConfigCommand creates the checkconfig command.
func NewCheckConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkconfig <config-file>",
		Short: "Validate a configuration file",
		Long: `Load a CUE configuration file, unify it with the schema and report
whether it is valid without starting the daemon.

Example:
  kestreld checkconfig /etc/kestreld/kestreld.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckConfig(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheckConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, "invalid configuration", err.Error())
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}

	result := &CheckConfigResult{
		Path:     path,
		NodeName: cfg.Node.Name,
		SID:      cfg.Node.SID,
		Database: cfg.Database.Path,
		LogLevel: cfg.Log.Level,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "  node: %s (%s)\n", result.NodeName, result.SID)
	fmt.Fprintf(cmd.OutOrStdout(), "  database: %s\n", result.Database)
	fmt.Fprintf(cmd.OutOrStdout(), "  log level: %s\n", result.LogLevel)
	return nil
}
