package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cifixlabs/cifix/pkg/github"
)

// LogsOptions holds command-line options for the logs command.
type LogsOptions struct {
	Repo  string
	Token string
}

// NewLogsCommand creates the logs command.
func NewLogsCommand() *cobra.Command {
	opts := &LogsOptions{}

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Fetch and display logs for a CI run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "GitHub repo (owner/repo)")
	cmd.Flags().StringVarP(&opts.Token, "token", "t", "", "GitHub token (or set GITHUB_TOKEN env var)")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

func runLogs(cmd *cobra.Command, args []string, opts *LogsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	token, err := resolveToken(opts.Token)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Fetching logs for run %d in %s...\n", runID, opts.Repo)
	logs, err := github.NewClient(ctx, token).FetchRunLogs(ctx, opts.Repo, runID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	rule := strings.Repeat("=", 60)
	for _, lf := range logs {
		fmt.Fprintf(w, "\n%s\n  %s\n%s\n", rule, lf.Name, rule)
		fmt.Fprintln(w, lf.Content)
	}

	return nil
}
