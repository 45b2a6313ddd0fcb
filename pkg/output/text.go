package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cifixlabs/cifix/pkg/classifier"
	"github.com/cifixlabs/cifix/pkg/patterns"
)

// TextFormatter renders results as a human-readable terminal report,
// grouped by category.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

var verdictMessages = map[string]string{
	classifier.VerdictInfrastructure: "VERDICT: Pipeline/infrastructure issue - not your code.",
	classifier.VerdictCode:           "VERDICT: Code issue - the pipeline itself is fine.",
	classifier.VerdictBoth:           "VERDICT: Both infrastructure AND code issues detected.",
	classifier.VerdictClean:          "No errors detected.",
}

var severityColors = map[patterns.Severity]*color.Color{
	patterns.SeverityFatal:   color.New(color.FgRed, color.Bold),
	patterns.SeverityError:   color.New(color.FgYellow),
	patterns.SeverityWarning: color.New(color.FgCyan),
}

func severityTag(sev patterns.Severity) string {
	c, ok := severityColors[sev]
	if !ok {
		return strings.ToUpper(string(sev))
	}
	return c.Sprint(strings.ToUpper(string(sev)))
}

// Format renders the result as text.
func (f *TextFormatter) Format(ctx context.Context, result *classifier.AnalysisResult, w io.Writer) error {
	if f.opts.Quiet {
		fmt.Fprintf(w, "cifix: verdict=%s, %d infra + %d code issue(s)\n",
			result.Verdict, result.InfraCount, result.CodeCount)
		return nil
	}
	return f.formatFull(result, w)
}

func (f *TextFormatter) formatFull(result *classifier.AnalysisResult, w io.Writer) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  CI ERROR ANALYSIS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, verdictMessages[result.Verdict])
	fmt.Fprintf(w, "  Found %d infra + %d code issue(s)\n", result.InfraCount, result.CodeCount)
	fmt.Fprintln(w)

	var infra, code []classifier.Finding
	for _, e := range result.Errors {
		switch e.Category {
		case patterns.CategoryInfrastructure:
			infra = append(infra, e)
		case patterns.CategoryCode:
			code = append(code, e)
		}
	}

	f.formatSection(w, "INFRASTRUCTURE", infra)
	f.formatSection(w, "CODE", code)

	fmt.Fprintln(w, rule)
	return nil
}

func (f *TextFormatter) formatSection(w io.Writer, title string, findings []classifier.Finding) {
	if len(findings) == 0 {
		return
	}

	pad := 40 - len(title)
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(w, "-- %s (%d) %s\n", title, len(findings), strings.Repeat("-", pad))

	for i, e := range findings {
		fmt.Fprintf(w, "  %d. %s [%s] %s\n", i+1, severityTag(e.Severity), e.ErrorType, e.Summary)
		if e.StepName != "" {
			fmt.Fprintf(w, "     Step: %s\n", e.StepName)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(w, "     Suggestion: %s\n", e.Suggestion)
		}
		if f.opts.Verbose && e.MatchText != "" {
			fmt.Fprintf(w, "     Match: %s\n", e.MatchText)
		}
		if len(e.SourceLines) > 0 {
			fmt.Fprintln(w, "     Context:")
			for _, sl := range e.SourceLines {
				fmt.Fprintf(w, "       | %s\n", strings.TrimRight(sl, " \t\r"))
			}
		}
		fmt.Fprintln(w)
	}
}
