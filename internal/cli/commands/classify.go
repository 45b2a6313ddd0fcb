package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cifixlabs/cifix/pkg/classifier"
	"github.com/cifixlabs/cifix/pkg/github"
	"github.com/cifixlabs/cifix/pkg/output"
	"github.com/cifixlabs/cifix/pkg/preprocess"
)

// ClassifyOptions holds command-line options for the classify command.
type ClassifyOptions struct {
	Repo         string
	Token        string
	Provider     string
	Output       string
	Category     string
	Severity     string
	PatternsFile string
	LogFile      string
	Verbose      bool
	Quiet        bool

	Webhook webhookFlags
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	opts := &ClassifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify [run-id]",
		Short: "Classify errors in a CI run's logs",
		Long: `Classify errors in a CI run's logs and triage each one as an
infrastructure problem or a code problem.

Logs come from the GitHub Actions API (pass a run ID and --repo) or from
a local file (--log-file; use "-" for stdin).

Exit codes:
  0 - No errors detected
  1 - Errors detected
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "GitHub repo (owner/repo)")
	cmd.Flags().StringVarP(&opts.Token, "token", "t", "", "GitHub token (or set GITHUB_TOKEN env var)")
	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "github", "CI provider (github|generic|auto)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "all", "Filter by error category (all|infra|code)")
	cmd.Flags().StringVarP(&opts.Severity, "severity", "s", "all", "Minimum severity to show (all|fatal|error|warning)")
	cmd.Flags().StringVar(&opts.PatternsFile, "patterns", "", "YAML file with extra classification patterns")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Classify a local log file instead of fetching (\"-\" for stdin)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include raw matched text per finding")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	opts.Webhook.register(func(p *string, name, value, usage string) {
		cmd.Flags().StringVar(p, name, value, usage)
	})

	return cmd
}

func runClassify(cmd *cobra.Command, args []string, opts *ClassifyOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rawLog, err := loadRawLog(ctx, args, opts)
	if err != nil {
		return err
	}

	result, err := classifyLog(ctx, rawLog, opts.Provider, opts.PatternsFile)
	if err != nil {
		return err
	}

	filtered, err := filterFindings(result, opts.Category, opts.Severity)
	if err != nil {
		return err
	}

	formatter, err := output.New(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	if err := formatter.Format(ctx, filtered, os.Stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	sendWebhook(ctx, result, opts.Webhook)

	if result.HasErrors() {
		ExitCode = 1
	}

	return nil
}

// loadRawLog resolves the log text from --log-file, stdin, or the
// GitHub Actions API.
func loadRawLog(ctx context.Context, args []string, opts *ClassifyOptions) (string, error) {
	if opts.LogFile != "" {
		if opts.LogFile == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return "", fmt.Errorf("reading stdin: %w", err)
			}
			return string(data), nil
		}
		data, err := os.ReadFile(opts.LogFile) // #nosec G304 -- user-provided log path is expected
		if err != nil {
			return "", fmt.Errorf("reading log file: %w", err)
		}
		return string(data), nil
	}

	if len(args) == 0 {
		return "", errors.New("provide a run ID (with --repo) or --log-file")
	}
	if opts.Repo == "" {
		return "", errors.New("--repo is required when fetching a run")
	}

	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	token, err := resolveToken(opts.Token)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "Fetching logs for run %d in %s...\n", runID, opts.Repo)
	logs, err := github.NewClient(ctx, token).FetchRunLogs(ctx, opts.Repo, runID)
	if err != nil {
		return "", err
	}

	return github.CombinedLog(logs), nil
}

// classifyLog builds the registry and engine and classifies the log.
func classifyLog(ctx context.Context, rawLog, provider, patternsFile string) (*classifier.AnalysisResult, error) {
	registry, err := buildRegistry(ctx, patternsFile)
	if err != nil {
		return nil, err
	}

	if provider == "auto" {
		provider = preprocess.DetectProvider(rawLog)
		fmt.Fprintf(os.Stderr, "Detected provider: %s\n", provider)
	}

	engine := classifier.New(registry, classifier.WithParallelism(runtime.NumCPU()))
	return engine.Classify(ctx, rawLog, provider)
}
