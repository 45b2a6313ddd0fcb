package classifier

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/cifixlabs/cifix/pkg/patterns"
	"github.com/cifixlabs/cifix/pkg/preprocess"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return New(patterns.NewRegistry(), opts...)
}

func TestClassify_UnknownProvider(t *testing.T) {
	_, err := newEngine(t).Classify(context.Background(), "some log", "bamboo")
	if err == nil {
		t.Fatal("Classify() expected error for unknown provider")
	}

	var upe *preprocess.UnknownProviderError
	if !errors.As(err, &upe) {
		t.Fatalf("Classify() error = %v, want *UnknownProviderError", err)
	}
	if upe.Provider != "bamboo" {
		t.Errorf("Provider = %q, want %q", upe.Provider, "bamboo")
	}
	if len(upe.Available) == 0 {
		t.Error("Available providers should be listed")
	}
}

func TestClassify_CleanLog(t *testing.T) {
	result, err := newEngine(t).Classify(context.Background(), "====== 42 passed in 3.21s ======", "github")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if result.Verdict != VerdictClean {
		t.Errorf("Verdict = %q, want %q", result.Verdict, VerdictClean)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %d findings, want 0", len(result.Errors))
	}
	if result.InfraCount != 0 || result.CodeCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", result.InfraCount, result.CodeCount)
	}
}

func TestClassify_DependencyResolutionScenario(t *testing.T) {
	log := strings.Join([]string{
		"##[group]Install dependencies",
		"Collecting torch==2.5.0",
		"ERROR: Could not find a version that satisfies the requirement torch==2.5.0",
		"##[endgroup]",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %d findings, want 1", len(result.Errors))
	}

	f := result.Errors[0]
	if f.ErrorType != "dependency_resolution" {
		t.Errorf("ErrorType = %q, want %q", f.ErrorType, "dependency_resolution")
	}
	if f.Category != patterns.CategoryInfrastructure {
		t.Errorf("Category = %q, want infrastructure", f.Category)
	}
	if f.Severity != patterns.SeverityError {
		t.Errorf("Severity = %q, want error", f.Severity)
	}
	if f.StepName != "Install dependencies" {
		t.Errorf("StepName = %q, want %q", f.StepName, "Install dependencies")
	}
}

func TestClassify_BothVerdictAcrossSegments(t *testing.T) {
	log := strings.Join([]string{
		"##[group]Build image",
		"Cannot allocate memory",
		"##[endgroup]",
		"##[group]Run tests",
		"ModuleNotFoundError: No module named 'config'",
		"##[endgroup]",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if result.Verdict != VerdictBoth {
		t.Errorf("Verdict = %q, want %q", result.Verdict, VerdictBoth)
	}
	if result.InfraCount != 1 {
		t.Errorf("InfraCount = %d, want 1", result.InfraCount)
	}
	if result.CodeCount != 1 {
		t.Errorf("CodeCount = %d, want 1", result.CodeCount)
	}

	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %d findings, want 2", len(result.Errors))
	}
	if result.Errors[0].Category != patterns.CategoryInfrastructure {
		t.Errorf("Errors[0].Category = %q, want infrastructure first", result.Errors[0].Category)
	}
	if result.Errors[1].Category != patterns.CategoryCode {
		t.Errorf("Errors[1].Category = %q, want code second", result.Errors[1].Category)
	}
}

func TestClassify_Verdicts(t *testing.T) {
	tests := []struct {
		name    string
		log     string
		verdict string
	}{
		{
			name:    "infrastructure only",
			log:     "no space left on device",
			verdict: VerdictInfrastructure,
		},
		{
			name:    "code only",
			log:     "FAILED tests/test_app.py::test_main",
			verdict: VerdictCode,
		},
		{
			name:    "both",
			log:     "no space left on device\nFAILED tests/test_app.py::test_main",
			verdict: VerdictBoth,
		},
		{
			name:    "clean",
			log:     "all good here",
			verdict: VerdictClean,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newEngine(t).Classify(context.Background(), tt.log, "generic")
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if result.Verdict != tt.verdict {
				t.Errorf("Verdict = %q, want %q", result.Verdict, tt.verdict)
			}
		})
	}
}

func TestClassify_SortOrder(t *testing.T) {
	// Discovery order is code-fatal, code-error, infra-warning, infra-fatal;
	// the sort must regroup by category first, then severity.
	log := strings.Join([]string{
		"SyntaxError: invalid syntax",
		"FAILED tests/test_app.py::test_main",
		"cache restore failed",
		"secret DEPLOY_KEY not found",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "generic")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	var got []string
	for _, e := range result.Errors {
		got = append(got, string(e.Category)+"/"+string(e.Severity))
	}

	want := []string{
		"infrastructure/fatal",
		"infrastructure/warning",
		"code/fatal",
		"code/error",
	}
	if len(got) != len(want) {
		t.Fatalf("Errors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Errors[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestClassify_StableSortKeepsDiscoveryOrder(t *testing.T) {
	// Two different error-severity code findings from two segments; equal
	// sort keys must keep segment order.
	log := strings.Join([]string{
		"##[group]step one",
		"FAILED tests/test_a.py::test_one",
		"##[endgroup]",
		"##[group]step two",
		"FAILED tests/test_b.py::test_two",
		"##[endgroup]",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %d findings, want 2", len(result.Errors))
	}
	if result.Errors[0].StepName != "step one" || result.Errors[1].StepName != "step two" {
		t.Errorf("steps = %q, %q; want discovery order preserved",
			result.Errors[0].StepName, result.Errors[1].StepName)
	}
}

func TestClassify_ParallelMatchesSequential(t *testing.T) {
	var parts []string
	for i := 0; i < 8; i++ {
		parts = append(parts,
			"##[group]step",
			"FAILED tests/test_app.py::test_main",
			"no space left on device",
			"##[endgroup]",
		)
	}
	log := strings.Join(parts, "\n")

	seq, err := newEngine(t).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("sequential Classify() error = %v", err)
	}
	par, err := newEngine(t, WithParallelism(4)).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("parallel Classify() error = %v", err)
	}

	if len(seq.Errors) != len(par.Errors) {
		t.Fatalf("parallel produced %d findings, sequential %d", len(par.Errors), len(seq.Errors))
	}
	for i := range seq.Errors {
		if seq.Errors[i].Summary != par.Errors[i].Summary || seq.Errors[i].StepName != par.Errors[i].StepName {
			t.Errorf("finding %d differs between parallel and sequential runs", i)
		}
	}
	if seq.Verdict != par.Verdict {
		t.Errorf("verdicts differ: %q vs %q", seq.Verdict, par.Verdict)
	}
}

func TestClassifySegment_InfraPriorityOverCode(t *testing.T) {
	reg := patterns.NewRegistry()
	reg.Register(
		[]patterns.Rule{{
			Pattern:    regexp.MustCompile(`deploy exploded`),
			Type:       "custom_infra",
			Severity:   patterns.SeverityError,
			Suggestion: "check the deploy",
		}},
		[]patterns.Rule{{
			Pattern:    regexp.MustCompile(`deploy exploded`),
			Type:       "custom_code",
			Severity:   patterns.SeverityError,
			Suggestion: "check the code",
		}},
	)

	findings := New(reg).ClassifySegment(preprocess.Segment{
		Name: "deploy",
		Text: "deploy exploded",
	})

	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1 (infra shadows code on the same line)", len(findings))
	}
	if findings[0].ErrorType != "custom_infra" {
		t.Errorf("ErrorType = %q, want custom_infra", findings[0].ErrorType)
	}
	if findings[0].Category != patterns.CategoryInfrastructure {
		t.Errorf("Category = %q, want infrastructure", findings[0].Category)
	}
}

func TestClassifySegment_DedupWithinSegment(t *testing.T) {
	seg := preprocess.Segment{
		Name: "tests",
		Text: "no space left on device\nsomething else\nno space left on device",
	}

	findings := newEngine(t).ClassifySegment(seg)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1 (same type+summary deduped per segment)", len(findings))
	}
}

func TestClassify_DedupScopedPerSegment(t *testing.T) {
	// The same finding in two different segments is legitimate.
	log := strings.Join([]string{
		"##[group]lint backend",
		"no space left on device",
		"##[endgroup]",
		"##[group]lint frontend",
		"no space left on device",
		"##[endgroup]",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "github")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Errors) != 2 {
		t.Errorf("Errors = %d findings, want 2 (dedup is per segment)", len(result.Errors))
	}
}

func TestClassifySegment_FirstRuleWins(t *testing.T) {
	// "ImportError: cannot import name 'x'" matches import_error before
	// runtime_error would ever be tried.
	findings := newEngine(t).ClassifySegment(preprocess.Segment{
		Name: "tests",
		Text: "ImportError: cannot import name 'x'",
	})

	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	if findings[0].ErrorType != "import_error" {
		t.Errorf("ErrorType = %q, want import_error (registry order tie-break)", findings[0].ErrorType)
	}
}

func TestClassifySegment_ContextWindow(t *testing.T) {
	seg := preprocess.Segment{
		Name: "tests",
		Text: "line0\nline1\nno space left on device\nline3\nline4\nline5",
	}

	findings := newEngine(t).ClassifySegment(seg)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}

	want := []string{"line0", "line1", "no space left on device", "line3", "line4"}
	got := findings[0].SourceLines
	if len(got) != len(want) {
		t.Fatalf("SourceLines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SourceLines[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassifySegment_ContextWindowClamped(t *testing.T) {
	findings := newEngine(t).ClassifySegment(preprocess.Segment{
		Name: "tests",
		Text: "no space left on device",
	})
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	if len(findings[0].SourceLines) != 1 {
		t.Errorf("SourceLines = %v, want single line", findings[0].SourceLines)
	}
}

func TestClassifySegment_SummaryTruncated(t *testing.T) {
	long := "ValueError: " + strings.Repeat("x", 400)
	findings := newEngine(t).ClassifySegment(preprocess.Segment{Name: "tests", Text: long})

	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	if len(findings[0].Summary) != 200 {
		t.Errorf("len(Summary) = %d, want 200", len(findings[0].Summary))
	}
	// MatchText keeps the full matched substring.
	if len(findings[0].MatchText) <= 200 {
		t.Errorf("len(MatchText) = %d, want untruncated", len(findings[0].MatchText))
	}
}

func TestClassify_CountInvariant(t *testing.T) {
	log := strings.Join([]string{
		"no space left on device",
		"secret FOO not found",
		"FAILED tests/test_app.py::test_main",
	}, "\n")

	result, err := newEngine(t).Classify(context.Background(), log, "generic")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	nonUnknown := 0
	for _, e := range result.Errors {
		if e.Category != patterns.CategoryUnknown {
			nonUnknown++
		}
	}
	if result.InfraCount+result.CodeCount != nonUnknown {
		t.Errorf("infra+code = %d, want %d", result.InfraCount+result.CodeCount, nonUnknown)
	}
}

func TestClassify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(t).Classify(ctx, "no space left on device", "generic")
	if err == nil {
		t.Error("Classify() expected error for cancelled context")
	}
}
