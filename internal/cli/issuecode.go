package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ventolog/ventolog/internal/config"
	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/store"
)

// IssueCodeOptions holds flags for the issue-code command.
type IssueCodeOptions struct {
	*RootOptions
	DataFile string
}

// NewIssueCodeCommand creates the issue-code command. Operators use it
// to hand out a code without going through the rate-limited API.
func NewIssueCodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IssueCodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "issue-code",
		Short: "Issue a new sync code",
		Long: `Issue a new six-character sync code and store it.

Example:
  ventolog issue-code --data ./data/ventolog.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssueCode(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataFile, "data", "", "path to the JSON data file (overrides config)")

	return cmd
}

func runIssueCode(opts *IssueCodeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.DataFile != "" {
		cfg.Storage.DataFile = opts.DataFile
	}

	l := ledger.New(store.Open(cfg.Storage.DataFile))
	code, err := l.IssueCode()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to issue code", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(map[string]string{"code": code})
	}
	fmt.Fprintln(cmd.OutOrStdout(), code)
	return nil
}
