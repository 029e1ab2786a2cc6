package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ventolog/ventolog/internal/config"
	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	DataFile string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy daily logs into events",
		Long: `Convert legacy daily log entries into per-type events.

Each legacy entry becomes one event per medicine type with a non-zero
count. Event ids derive from the entry itself, so re-running the
migration never duplicates anything.

Example:
  ventolog migrate --data ./data/ventolog.json
  ventolog migrate --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataFile, "data", "", "path to the JSON data file (overrides config)")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.DataFile != "" {
		cfg.Storage.DataFile = opts.DataFile
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	out.VerboseLog("migrating %s", cfg.Storage.DataFile)

	l := ledger.New(store.Open(cfg.Storage.DataFile))
	res, err := l.Migrate()
	if err != nil {
		return WrapExitError(ExitFailure, "migration failed", err)
	}

	if opts.Format == "json" {
		return out.Success(res)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Logs scanned:   %d\n", res.LogsScanned)
	fmt.Fprintf(w, "Events created: %d\n", res.EventsCreated)
	fmt.Fprintf(w, "Events skipped: %d\n", res.EventsSkipped)
	if res.Persisted {
		fmt.Fprintln(w, "Document updated.")
	} else {
		fmt.Fprintln(w, "Nothing to migrate.")
	}
	return nil
}
