// Package output provides formatting for classification results.
package output

import (
	"context"
	"io"

	"github.com/cifixlabs/cifix/pkg/classifier"
)

// Formatter renders an analysis result in a specific format.
type Formatter interface {
	// Format renders the result to the given writer.
	Format(ctx context.Context, result *classifier.AnalysisResult, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose includes the raw matched text for each finding.
	Verbose bool

	// Quiet reduces output to a one-line summary.
	Quiet bool
}

// New creates the formatter for the given format name.
func New(format string, opts FormatOptions) (Formatter, error) {
	switch format {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, &UnknownFormatError{Format: format}
	}
}

// UnknownFormatError is returned for an unrecognized output format name.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return "unknown output format \"" + e.Format + "\" (use text or json)"
}
