// Package fixer applies automated ruff fixes to a local repository, with
// diff generation and post-fix verification.
package fixer

import (
	"fmt"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// FileChange is a single file's before/after state.
type FileChange struct {
	// Path is the file path relative to the repo root.
	Path string

	// Original is the file content before the fix pass.
	Original string

	// Fixed is the file content after the fix pass.
	Fixed string
}

// HasDiff returns true if the fix pass changed the file.
func (c *FileChange) HasDiff() bool {
	return c.Original != c.Fixed
}

// UnifiedDiff renders the change as a unified diff, empty if nothing
// changed.
func (c *FileChange) UnifiedDiff() string {
	if !c.HasDiff() {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(c.Path), c.Original, c.Fixed)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+c.Path, "b/"+c.Path, c.Original, edits))
}

// FixResult is the outcome of one ruff fix pass.
type FixResult struct {
	// Tool names the pass ("ruff format" or "ruff check --fix").
	Tool string

	// Changes holds the before/after state of every targeted file.
	Changes []FileChange

	// ReturnCode is ruff's exit code.
	ReturnCode int

	// Stderr is ruff's trimmed stderr output.
	Stderr string
}

// FilesChanged returns the number of files the pass modified.
func (r *FixResult) FilesChanged() int {
	n := 0
	for i := range r.Changes {
		if r.Changes[i].HasDiff() {
			n++
		}
	}
	return n
}

// OK reports whether ruff ran successfully. Ruff exits 1 when it finds
// fixable issues, which is still a successful pass.
func (r *FixResult) OK() bool {
	return r.ReturnCode == 0 || r.ReturnCode == 1
}

// VerifyResult is the outcome of the post-fix verification pass.
type VerifyResult struct {
	// FormatClean is true when `ruff format --check` passes.
	FormatClean bool

	// CheckClean is true when `ruff check` passes.
	CheckClean bool

	// RemainingIssues holds ruff's report of anything still wrong.
	RemainingIssues string
}

// AllClean reports whether both verification checks passed.
func (v *VerifyResult) AllClean() bool {
	return v.FormatClean && v.CheckClean
}
