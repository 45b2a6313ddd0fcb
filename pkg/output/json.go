package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/cifixlabs/cifix/pkg/classifier"
)

// JSONFormatter renders results as JSON in the canonical serialized form:
// {verdict, infra_count, code_count, errors: [...]}.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the result as indented JSON.
func (f *JSONFormatter) Format(ctx context.Context, result *classifier.AnalysisResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		// Quiet mode: verdict and counts only
		return encoder.Encode(struct {
			Verdict    string `json:"verdict"`
			InfraCount int    `json:"infra_count"`
			CodeCount  int    `json:"code_count"`
		}{result.Verdict, result.InfraCount, result.CodeCount})
	}

	return encoder.Encode(result)
}
