// Package patterns provides the regex rule registry for CI error classification.
package patterns

import "regexp"

// Severity indicates how urgent a classified error is.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rank returns the sort rank for a severity (lower is more urgent).
func (s Severity) Rank() int {
	switch s {
	case SeverityFatal:
		return 0
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() < 3
}

// Category separates pipeline problems from problems in the code under test.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryCode           Category = "code"
	CategoryUnknown        Category = "unknown"
)

// Rank returns the sort rank for a category (infrastructure first).
func (c Category) Rank() int {
	switch c {
	case CategoryInfrastructure:
		return 0
	case CategoryCode:
		return 1
	default:
		return 2
	}
}

// Rule is a single classification pattern.
// Rules are immutable once registered and shared read-only by all
// classification calls.
type Rule struct {
	// Pattern is the compiled line matcher.
	Pattern *regexp.Regexp

	// Type is a short identifier for the kind of error (e.g. "disk_full").
	Type string

	// Severity indicates urgency when the rule matches.
	Severity Severity

	// Suggestion is a human-readable remediation hint.
	Suggestion string
}
