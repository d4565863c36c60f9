package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrelchat/kestreld/internal/config"
	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/node"
	"github.com/kestrelchat/kestreld/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Clock allows overriding the timestamp source (for testing).
	// If nil, defaults to the system clock.
	Clock node.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Start the account directory daemon",
		Long: `Start the kestreld account directory daemon.

The daemon loads its CUE configuration, opens the SQLite account
database (creating it if it doesn't exist), restores the directory,
and starts the single-writer replication loop.

Example:
  kestreld run /etc/kestreld/kestreld.cue
  kestreld run ./kestreld.cue --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts, args[0], cmd)
		},
	}

	return cmd
}

// logTransport records outbound frames in the log. The daemon carries
// no peer links yet; the link layer replaces this transport when it
// dials out.
type logTransport struct{}

func (logTransport) Send(line string) {
	slog.Debug("outbound frame", "frame", line)
}

func runDaemon(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, "failed to load config", err.Error())
		return WrapExitError(ExitFailure, "failed to load config", err)
	}

	logLevel := cfg.LogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	slog.Info("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	registry := node.RegistryWithDefaults(cfg.Attributes.MaxLogins)
	dir := directory.New(registry)
	if err := st.LoadDirectory(context.Background(), dir); err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to load directory", err.Error())
		return WrapExitError(ExitCommandError, "failed to load directory", err)
	}
	slog.Info("directory restored", "accounts", dir.Len())

	// Persist local changes as they happen; the final sweep below picks
	// up whatever arrived over the link.
	store.NewWriter(st, dir)

	clock := opts.Clock
	if clock == nil {
		clock = node.NewSystemClock()
	}
	n := node.NewNode(dir, logTransport{}, clock)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("node starting", "name", cfg.Node.Name, "sid", cfg.Node.SID, "db", cfg.Database.Path)
	fmt.Fprintln(cmd.OutOrStdout(), "Directory ready. Replicating account changes...")
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := n.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		_ = formatter.Error(ErrCodeGeneric, "node error", err.Error())
		return WrapExitError(ExitFailure, "node error", err)
	}

	if err := st.SaveDirectory(context.Background(), dir); err != nil {
		_ = formatter.Error(ErrCodeGeneric, "failed to persist directory on shutdown", err.Error())
		return WrapExitError(ExitFailure, "failed to persist directory on shutdown", err)
	}
	slog.Info("node stopped gracefully")
	return nil
}
