package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cifixlabs/cifix/pkg/fixer"
)

// FixOptions holds command-line options for the fix command.
type FixOptions struct {
	DryRun     bool
	NoVerify   bool
	NoDiff     bool
	FormatOnly bool
	CheckOnly  bool
	Targets    []string
	JSONOutput bool
}

// fixChangeJSON is one file's change in the JSON payload.
type fixChangeJSON struct {
	Path    string `json:"path"`
	HasDiff bool   `json:"has_diff"`
	Diff    string `json:"diff,omitempty"`
}

// fixResultJSON is one fix pass in the JSON payload.
type fixResultJSON struct {
	Tool         string          `json:"tool"`
	FilesChanged int             `json:"files_changed"`
	OK           bool            `json:"ok"`
	Changes      []fixChangeJSON `json:"changes"`
}

// verifyJSON is the verification section of the JSON payload.
type verifyJSON struct {
	FormatClean     bool   `json:"format_clean"`
	CheckClean      bool   `json:"check_clean"`
	AllClean        bool   `json:"all_clean"`
	RemainingIssues string `json:"remaining_issues,omitempty"`
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}

	cmd := &cobra.Command{
		Use:   "fix [repo-path]",
		Short: "Apply ruff format and check fixes to a local repository",
		Long: `Apply ruff format and ruff check --fix to a local repository.

REPO_PATH defaults to the current directory.

Examples:
  cifix fix                          # fix everything in cwd
  cifix fix ./my-repo --dry-run      # preview changes
  cifix fix -T src/app.py -T tests/  # scope to specific paths
  cifix fix --format-only --json-output

Exit codes:
  0 - Clean after fixing
  1 - Issues remain after verification
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := "."
			if len(args) == 1 {
				repoPath = args[0]
			}
			return runFix(cmd, repoPath, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would change without modifying files")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "Skip the post-fix verification step")
	cmd.Flags().BoolVar(&opts.NoDiff, "no-diff", false, "Suppress unified diff output")
	cmd.Flags().BoolVar(&opts.FormatOnly, "format-only", false, "Run ruff format only (skip ruff check --fix)")
	cmd.Flags().BoolVar(&opts.CheckOnly, "check-only", false, "Run ruff check --fix only (skip ruff format)")
	cmd.Flags().StringSliceVarP(&opts.Targets, "target", "T", nil, "Scope fixes to specific files or dirs (relative to repo)")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json-output", false, "Output results as JSON")

	return cmd
}

func runFix(cmd *cobra.Command, repoPath string, opts *FixOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := fixer.NewRuffFixer(repoPath, opts.DryRun)
	if err != nil {
		return err
	}

	var results []*fixer.FixResult
	if !opts.CheckOnly {
		res, err := f.FixFormat(ctx, opts.Targets)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	if !opts.FormatOnly {
		res, err := f.FixCheck(ctx, opts.Targets)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	var verify *fixer.VerifyResult
	if !opts.NoVerify && !opts.DryRun {
		verify, err = f.Verify(ctx, opts.Targets)
		if err != nil {
			return err
		}
	}

	if opts.JSONOutput {
		payload := struct {
			DryRun  bool            `json:"dry_run"`
			Results []fixResultJSON `json:"results"`
			Verify  *verifyJSON     `json:"verification,omitempty"`
		}{
			DryRun:  opts.DryRun,
			Results: fixResultsJSON(results, !opts.NoDiff),
			Verify:  toVerifyJSON(verify),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), fixer.FormatFixResults(results, verify, !opts.NoDiff, opts.DryRun))
	}

	if verify != nil && !verify.AllClean() {
		ExitCode = 1
	}

	return nil
}

func fixResultsJSON(results []*fixer.FixResult, withDiff bool) []fixResultJSON {
	out := make([]fixResultJSON, 0, len(results))
	for _, r := range results {
		rj := fixResultJSON{
			Tool:         r.Tool,
			FilesChanged: r.FilesChanged(),
			OK:           r.OK(),
			Changes:      make([]fixChangeJSON, 0, len(r.Changes)),
		}
		for i := range r.Changes {
			c := fixChangeJSON{
				Path:    r.Changes[i].Path,
				HasDiff: r.Changes[i].HasDiff(),
			}
			if withDiff && c.HasDiff {
				c.Diff = r.Changes[i].UnifiedDiff()
			}
			rj.Changes = append(rj.Changes, c)
		}
		out = append(out, rj)
	}
	return out
}

func toVerifyJSON(v *fixer.VerifyResult) *verifyJSON {
	if v == nil {
		return nil
	}
	return &verifyJSON{
		FormatClean:     v.FormatClean,
		CheckClean:      v.CheckClean,
		AllClean:        v.AllClean(),
		RemainingIssues: v.RemainingIssues,
	}
}
