package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
	"github.com/kestrelchat/kestreld/internal/node"
	"github.com/kestrelchat/kestreld/internal/store"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Database string
}

// AccountDump is one record in dump output.
type AccountDump struct {
	Name    string            `json:"name"`
	Created int64             `json:"created"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// DumpResult is the dump command's JSON payload.
type DumpResult struct {
	Accounts int           `json:"accounts"`
	Records  []AccountDump `json:"records"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the persisted account directory",
		Long: `Load the account database and print every record with its fields
in storage form, each field prefixed with its timestamp.

Example:
  kestreld dump --db /var/lib/kestreld/accounts.db
  kestreld dump --db ./kestreld.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	registry := node.DefaultRegistry()
	dir := directory.New(registry)
	if err := st.LoadDirectory(context.Background(), dir); err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to load directory", err.Error())
		return WrapExitError(ExitCommandError, "failed to load directory", err)
	}

	result := buildDump(dir)
	formatter.VerboseLog("loaded %d accounts from %s", result.Accounts, opts.Database)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, rec := range result.Records {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (created %d)\n", rec.Name, rec.Created)
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", k, rec.Fields[k])
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d accounts\n", result.Accounts)
	return nil
}

// buildDump renders the directory in name order with every populated
// field in storage form.
func buildDump(dir *directory.Directory) *DumpResult {
	snap := dir.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &DumpResult{Accounts: len(names), Records: make([]AccountDump, 0, len(names))}
	for _, name := range names {
		rec := snap[name]
		fields := make(map[string]string)
		if rec.CredentialTS() != 0 {
			fields[node.FieldCredentials] = fmt.Sprintf("%d %s %s",
				rec.CredentialTS(), rec.CredentialHash(), rec.CredentialAlgorithm())
		}
		if rec.ConnectClassTS() != 0 {
			fields[node.FieldConnectClass] = fmt.Sprintf("%d %s",
				rec.ConnectClassTS(), rec.ConnectClass())
		}
		for _, f := range dir.Registry().SerializeAll(extension.FormatStorage, rec.Ext) {
			fields[f.Key] = f.Text
		}
		result.Records = append(result.Records, AccountDump{
			Name:    rec.Name(),
			Created: rec.TS(),
			Fields:  fields,
		})
	}
	return result
}
