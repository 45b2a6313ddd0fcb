// Package classifier implements the CI error classification engine.
//
// It scans preprocessed step segments against the pattern registry and
// aggregates the matches into an AnalysisResult with an overall verdict.
package classifier

import "github.com/cifixlabs/cifix/pkg/patterns"

// Verdict values summarizing an entire log.
const (
	VerdictInfrastructure = "infrastructure"
	VerdictCode           = "code"
	VerdictBoth           = "both"
	VerdictClean          = "clean"
)

// Finding is one classified error occurrence. Findings are immutable once
// produced; the caller owns the returned values.
type Finding struct {
	// Category triages the error as infrastructure or code.
	Category patterns.Category `json:"category"`

	// ErrorType is the matching rule's type identifier.
	ErrorType string `json:"error_type"`

	// Summary is the matched text, trimmed and truncated to 200 characters.
	Summary string `json:"summary"`

	// Severity is the matching rule's severity.
	Severity patterns.Severity `json:"severity"`

	// SourceLines is a context window of up to two lines on each side of
	// the matching line, clamped to the segment.
	SourceLines []string `json:"source_lines"`

	// StepName is the name of the segment the match occurred in.
	StepName string `json:"step_name"`

	// Suggestion is the matching rule's remediation hint.
	Suggestion string `json:"suggestion"`

	// MatchText is the full matched substring, for downstream phases
	// (e.g. the auto-fixer) to inspect.
	MatchText string `json:"match_text"`
}

// AnalysisResult is the full analysis of a CI run.
type AnalysisResult struct {
	// Verdict is "infrastructure", "code", "both", or "clean".
	Verdict string `json:"verdict"`

	// InfraCount is the number of infrastructure findings.
	InfraCount int `json:"infra_count"`

	// CodeCount is the number of code findings.
	CodeCount int `json:"code_count"`

	// Errors lists all findings, infrastructure before code, and by
	// severity within a category.
	Errors []Finding `json:"errors"`
}

// HasErrors returns true if any findings were produced.
func (r *AnalysisResult) HasErrors() bool {
	return len(r.Errors) > 0
}
