package fixer

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	passMark = color.New(color.FgGreen).Sprint("ok")
	failMark = color.New(color.FgRed).Sprint("FAIL")
)

func statusMark(ok bool) string {
	if ok {
		return passMark
	}
	return failMark
}

// FormatFixResults renders fix results as human-readable output.
func FormatFixResults(results []*FixResult, verify *VerifyResult, showDiff, dryRun bool) string {
	var b strings.Builder

	mode := "APPLIED"
	if dryRun {
		mode = "DRY RUN"
	}
	fmt.Fprintf(&b, "-- cifix ruff fixer (%s) --\n\n", mode)

	totalChanged := 0
	for _, res := range results {
		changed := res.FilesChanged()
		totalChanged += changed
		fmt.Fprintf(&b, "  [%s] %s: %d file(s) modified\n", statusMark(res.OK()), res.Tool, changed)

		if res.Stderr != "" {
			stderrLines := strings.Split(res.Stderr, "\n")
			if len(stderrLines) > 5 {
				stderrLines = stderrLines[:5]
			}
			for _, l := range stderrLines {
				fmt.Fprintf(&b, "    %s\n", l)
			}
		}

		if showDiff {
			for i := range res.Changes {
				diff := res.Changes[i].UnifiedDiff()
				if diff != "" {
					fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(diff, "\n"))
				}
			}
		}
	}

	fmt.Fprintf(&b, "\n  Total files changed: %d\n", totalChanged)

	if verify != nil {
		fmt.Fprintf(&b, "\n-- Verification --\n")
		fmt.Fprintf(&b, "  [%s] ruff format --check\n", statusMark(verify.FormatClean))
		fmt.Fprintf(&b, "  [%s] ruff check\n", statusMark(verify.CheckClean))
		if verify.RemainingIssues != "" {
			fmt.Fprintf(&b, "\n  Remaining issues:\n%s\n", verify.RemainingIssues)
		}
	}

	return b.String()
}
