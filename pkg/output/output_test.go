package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/cifixlabs/cifix/pkg/classifier"
	"github.com/cifixlabs/cifix/pkg/patterns"
)

func sampleResult() *classifier.AnalysisResult {
	return &classifier.AnalysisResult{
		Verdict:    classifier.VerdictBoth,
		InfraCount: 1,
		CodeCount:  1,
		Errors: []classifier.Finding{
			{
				Category:    patterns.CategoryInfrastructure,
				ErrorType:   "network_timeout",
				Summary:     "curl: (28) connection timed out",
				Severity:    patterns.SeverityError,
				SourceLines: []string{"fetching deps", "curl: (28) connection timed out"},
				StepName:    "Install dependencies",
				Suggestion:  "Retry the job; the network flaked.",
				MatchText:   "connection timed out",
			},
			{
				Category:  patterns.CategoryCode,
				ErrorType: "test_failure",
				Summary:   "FAILED tests/test_app.py::test_main",
				Severity:  patterns.SeverityError,
				StepName:  "Run tests",
				MatchText: "FAILED tests/test_app.py::test_main",
			},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format   string
		wantName string
		wantErr  bool
	}{
		{"text", "text", false},
		{"json", "json", false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run("format_"+tt.format, func(t *testing.T) {
			f, err := New(tt.format, FormatOptions{})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%q) expected error", tt.format)
				}
				var ufe *UnknownFormatError
				if !errors.As(err, &ufe) {
					t.Fatalf("error = %T, want *UnknownFormatError", err)
				}
				if ufe.Format != tt.format {
					t.Errorf("Format = %q, want %q", ufe.Format, tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.format, err)
			}
			if f.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", f.Name(), tt.wantName)
			}
		})
	}
}

func TestJSONFormat_Canonical(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(FormatOptions{})
	if err := f.Format(context.Background(), sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded struct {
		Verdict    string `json:"verdict"`
		InfraCount int    `json:"infra_count"`
		CodeCount  int    `json:"code_count"`
		Errors     []struct {
			Category  string `json:"category"`
			ErrorType string `json:"error_type"`
			Summary   string `json:"summary"`
			Severity  string `json:"severity"`
			StepName  string `json:"step_name"`
			MatchText string `json:"match_text"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if decoded.Verdict != "both" {
		t.Errorf("verdict = %q, want both", decoded.Verdict)
	}
	if decoded.InfraCount != 1 || decoded.CodeCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", decoded.InfraCount, decoded.CodeCount)
	}
	if len(decoded.Errors) != 2 {
		t.Fatalf("errors = %d, want 2", len(decoded.Errors))
	}
	if decoded.Errors[0].Category != "infrastructure" || decoded.Errors[0].ErrorType != "network_timeout" {
		t.Errorf("errors[0] = %+v", decoded.Errors[0])
	}
	if decoded.Errors[1].StepName != "Run tests" {
		t.Errorf("errors[1].step_name = %q", decoded.Errors[1].StepName)
	}
}

func TestJSONFormat_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	if err := f.Format(context.Background(), sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := decoded["errors"]; ok {
		t.Error("quiet JSON should omit the errors array")
	}
	if decoded["verdict"] != "both" {
		t.Errorf("verdict = %v, want both", decoded["verdict"])
	}
}

func TestTextFormat_Full(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{})
	if err := f.Format(context.Background(), sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"CI ERROR ANALYSIS",
		"Both infrastructure AND code issues detected",
		"Found 1 infra + 1 code issue(s)",
		"INFRASTRUCTURE (1)",
		"CODE (1)",
		"[network_timeout]",
		"Step: Install dependencies",
		"Suggestion: Retry the job; the network flaked.",
		"| curl: (28) connection timed out",
		"[test_failure]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Match text only appears with -v.
	if strings.Contains(out, "Match: ") {
		t.Error("non-verbose output should not include match text")
	}
}

func TestTextFormat_Verbose(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{Verbose: true})
	if err := f.Format(context.Background(), sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Match: connection timed out") {
		t.Errorf("verbose output missing match text:\n%s", buf.String())
	}
}

func TestTextFormat_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{Quiet: true})
	if err := f.Format(context.Background(), sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "verdict=both") {
		t.Errorf("quiet output = %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("quiet output should be a single line: %q", out)
	}
}

func TestTextFormat_Clean(t *testing.T) {
	color.NoColor = true

	result := &classifier.AnalysisResult{Verdict: classifier.VerdictClean}

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{})
	if err := f.Format(context.Background(), result, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "No errors detected") {
		t.Errorf("clean output = %q", out)
	}
	if strings.Contains(out, "INFRASTRUCTURE") || strings.Contains(out, "-- CODE") {
		t.Error("clean output should have no category sections")
	}
}
