package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cifixlabs/cifix/pkg/classifier"
	"github.com/cifixlabs/cifix/pkg/fixer"
	"github.com/cifixlabs/cifix/pkg/output"
)

// DiagnoseOptions holds command-line options for the diagnose command.
type DiagnoseOptions struct {
	Repo         string
	Token        string
	Provider     string
	PatternsFile string
	LogFile      string
	RepoPath     string
	DryRun       bool
	NoFix        bool
	NoVerify     bool
	NoDiff       bool
	JSONOutput   bool

	Webhook webhookFlags
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [run-id]",
		Short: "Classify CI errors and auto-fix what's possible",
		Long: `Fetch CI logs, classify errors, and auto-fix ruff issues.

Chains the observe -> plan -> act -> verify flow end-to-end: fetch the
run's logs, classify every error, extract the files ruff can fix, apply
the fixes locally, and verify nothing remains.

Examples:
  cifix diagnose 12345 -r owner/repo
  cifix diagnose 12345 -r owner/repo --dry-run
  cifix diagnose 12345 -r owner/repo --no-fix   # classify only
  cifix diagnose 12345 -r owner/repo --repo-path ./my-project

Exit codes:
  0 - Clean, or all fixable issues fixed
  1 - Issues remain after verification
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "GitHub repo (owner/repo)")
	cmd.Flags().StringVarP(&opts.Token, "token", "t", "", "GitHub token (or set GITHUB_TOKEN env var)")
	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "github", "CI provider (github|generic|auto)")
	cmd.Flags().StringVar(&opts.PatternsFile, "patterns", "", "YAML file with extra classification patterns")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Diagnose a local log file instead of fetching")
	cmd.Flags().StringVar(&opts.RepoPath, "repo-path", ".", "Local repo path for fixes")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview fixes without modifying files")
	cmd.Flags().BoolVar(&opts.NoFix, "no-fix", false, "Classify only, skip auto-fix even if ruff errors found")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "Skip post-fix verification step")
	cmd.Flags().BoolVar(&opts.NoDiff, "no-diff", false, "Suppress unified diff output")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json-output", false, "Output everything as JSON")
	opts.Webhook.register(func(p *string, name, value, usage string) {
		cmd.Flags().StringVar(p, name, value, usage)
	})

	return cmd
}

// diagnoseJSON is the full JSON envelope for --json-output.
type diagnoseJSON struct {
	Classification *classifier.AnalysisResult `json:"classification"`
	RuffFixable    bool                       `json:"ruff_fixable"`
	RuffTargets    []string                   `json:"ruff_targets,omitempty"`
	DryRun         bool                       `json:"dry_run,omitempty"`
	FixResults     []fixResultJSON            `json:"fix_results"`
	Verify         *verifyJSON                `json:"verification,omitempty"`
}

func runDiagnose(cmd *cobra.Command, args []string, opts *DiagnoseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout := cmd.OutOrStdout()

	// Phase 1: observe
	classifyOpts := &ClassifyOptions{
		Repo:    opts.Repo,
		Token:   opts.Token,
		LogFile: opts.LogFile,
	}
	rawLog, err := loadRawLog(ctx, args, classifyOpts)
	if err != nil {
		return err
	}

	// Phase 2: plan (classify)
	result, err := classifyLog(ctx, rawLog, opts.Provider, opts.PatternsFile)
	if err != nil {
		return err
	}

	if !opts.JSONOutput {
		formatter := output.NewTextFormatter(output.FormatOptions{})
		if err := formatter.Format(ctx, result, stdout); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
	}

	sendWebhook(ctx, result, opts.Webhook)

	ruffTargets := extractRuffTargets(result)
	if len(ruffTargets) == 0 {
		if opts.JSONOutput {
			return encodeDiagnose(stdout, &diagnoseJSON{Classification: result, RuffFixable: false, FixResults: []fixResultJSON{}})
		}
		fmt.Fprintln(stdout, "\nNo ruff-fixable errors detected.")
		if result.HasErrors() {
			ExitCode = 1
		}
		return nil
	}

	if !opts.JSONOutput {
		fmt.Fprintf(stdout, "\nFound ruff issues in %d file(s): %s\n", len(ruffTargets), strings.Join(ruffTargets, ", "))
	}

	if opts.NoFix {
		if opts.JSONOutput {
			return encodeDiagnose(stdout, &diagnoseJSON{
				Classification: result,
				RuffFixable:    true,
				RuffTargets:    ruffTargets,
				FixResults:     []fixResultJSON{},
			})
		}
		fmt.Fprintln(stdout, "Skipping auto-fix (--no-fix).")
		ExitCode = 1
		return nil
	}

	// Phase 3: act (fix)
	if !opts.JSONOutput {
		mode := "Applying"
		if opts.DryRun {
			mode = "Previewing"
		}
		fmt.Fprintf(stdout, "\n%s ruff fixes...\n", mode)
	}

	f, err := fixer.NewRuffFixer(opts.RepoPath, opts.DryRun)
	if err != nil {
		return err
	}

	fixResults, err := f.FixAll(ctx, ruffTargets)
	if err != nil {
		return err
	}

	// Phase 4: verify
	var verify *fixer.VerifyResult
	if !opts.NoVerify && !opts.DryRun {
		verify, err = f.Verify(ctx, ruffTargets)
		if err != nil {
			return err
		}
	}

	if opts.JSONOutput {
		if err := encodeDiagnose(stdout, &diagnoseJSON{
			Classification: result,
			RuffFixable:    true,
			RuffTargets:    ruffTargets,
			DryRun:         opts.DryRun,
			FixResults:     fixResultsJSON(fixResults, !opts.NoDiff),
			Verify:         toVerifyJSON(verify),
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprint(stdout, fixer.FormatFixResults(fixResults, verify, !opts.NoDiff, opts.DryRun))
	}

	if verify != nil && !verify.AllClean() {
		ExitCode = 1
	}

	return nil
}

func encodeDiagnose(w io.Writer, payload *diagnoseJSON) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// ruffFixableTypes are the finding types whose match text carries a ruff-
// fixable file reference.
var ruffFixableTypes = map[string]bool{
	"lint_violation": true,
	"type_error":     true,
}

// pyFileRef matches a leading "path/to/file.py:line" reference.
var pyFileRef = regexp.MustCompile(`^([^\s:]+\.py):\d+`)

// extractRuffTargets pulls unique .py file paths from findings ruff can
// fix (lint and type errors carrying a file:line reference).
func extractRuffTargets(result *classifier.AnalysisResult) []string {
	set := make(map[string]bool)
	for _, e := range result.Errors {
		if !ruffFixableTypes[e.ErrorType] {
			continue
		}
		if m := pyFileRef.FindStringSubmatch(e.MatchText); m != nil {
			set[m[1]] = true
		}
	}

	targets := make([]string, 0, len(set))
	for t := range set {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
