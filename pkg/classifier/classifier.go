package classifier

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cifixlabs/cifix/pkg/patterns"
	"github.com/cifixlabs/cifix/pkg/preprocess"
)

const (
	// summaryLimit caps the length of a finding's summary.
	summaryLimit = 200

	// contextWindow is the number of context lines kept on each side of a
	// matching line.
	contextWindow = 2
)

// Engine classifies step segments against a pattern registry.
//
// The registry is shared read-only; the engine itself carries no state
// between calls, so one engine may serve concurrent classifications.
type Engine struct {
	registry    *patterns.Registry
	parallelism int
}

// Option configures engine behavior.
type Option func(*Engine)

// WithParallelism classifies up to n segments concurrently. Results are
// merged back in segment order, so output is identical to the sequential
// path. Values below 2 keep classification sequential.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an engine over the given registry. Register any extra rules
// before classification starts.
func New(registry *patterns.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// dedupKey suppresses duplicate findings within one segment. The same
// (type, summary) pair may legitimately recur across different segments.
type dedupKey struct {
	errorType string
	summary   string
}

// ClassifySegment scans one segment line by line and returns its findings
// in discovery order.
//
// Per line, infrastructure rules are tried first in registry order; the
// first match wins and code rules are not attempted for that line
// (infrastructure takes unconditional priority). If no infrastructure rule
// matches, code rules are tried the same way. A line produces at most one
// finding.
func (e *Engine) ClassifySegment(seg preprocess.Segment) []Finding {
	lines := strings.Split(seg.Text, "\n")
	seen := make(map[dedupKey]bool)

	var findings []Finding
	appendMatch := func(f Finding) {
		key := dedupKey{errorType: f.ErrorType, summary: f.Summary}
		if seen[key] {
			return
		}
		seen[key] = true
		findings = append(findings, f)
	}

	for i, line := range lines {
		if f, ok := matchLine(e.registry.InfraRules(), patterns.CategoryInfrastructure, lines, i, line, seg.Name); ok {
			appendMatch(f)
			continue
		}
		if f, ok := matchLine(e.registry.CodeRules(), patterns.CategoryCode, lines, i, line, seg.Name); ok {
			appendMatch(f)
		}
	}

	return findings
}

// matchLine tries each rule in order against one line and builds a finding
// from the first match.
func matchLine(rules []patterns.Rule, category patterns.Category, lines []string, idx int, line, stepName string) (Finding, bool) {
	for _, rule := range rules {
		match := rule.Pattern.FindString(line)
		if match == "" {
			// FindString returns "" both for no match and for an empty
			// match; neither carries diagnostic value.
			continue
		}
		return Finding{
			Category:    category,
			ErrorType:   rule.Type,
			Summary:     truncate(strings.TrimSpace(match), summaryLimit),
			Severity:    rule.Severity,
			SourceLines: contextLines(lines, idx),
			StepName:    stepName,
			Suggestion:  rule.Suggestion,
			MatchText:   match,
		}, true
	}
	return Finding{}, false
}

// contextLines returns the window of lines around idx, clamped to bounds.
func contextLines(lines []string, idx int) []string {
	start := idx - contextWindow
	if start < 0 {
		start = 0
	}
	end := idx + contextWindow + 1
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// Classify splits a raw log with the named provider's preprocessor,
// classifies every segment, and aggregates the findings into an
// AnalysisResult.
//
// Findings are stable-sorted by (category rank, severity rank), so
// infrastructure precedes code and fatal precedes error precedes warning;
// ties keep discovery order (segment order, then line order). Returns
// *preprocess.UnknownProviderError for an unregistered provider.
func (e *Engine) Classify(ctx context.Context, rawLog, provider string) (*AnalysisResult, error) {
	pre, err := preprocess.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	segments := pre.Split(rawLog)
	perSegment := make([][]Finding, len(segments))

	if e.parallelism > 1 && len(segments) > 1 {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(e.parallelism)
		for i := range segments {
			i := i
			g.Go(func() error {
				perSegment[i] = e.ClassifySegment(segments[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range segments {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			perSegment[i] = e.ClassifySegment(segments[i])
		}
	}

	var all []Finding
	for _, fs := range perSegment {
		all = append(all, fs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Category.Rank() != all[j].Category.Rank() {
			return all[i].Category.Rank() < all[j].Category.Rank()
		}
		return all[i].Severity.Rank() < all[j].Severity.Rank()
	})

	infra, code := 0, 0
	for _, f := range all {
		switch f.Category {
		case patterns.CategoryInfrastructure:
			infra++
		case patterns.CategoryCode:
			code++
		}
	}

	return &AnalysisResult{
		Verdict:    verdict(infra, code),
		InfraCount: infra,
		CodeCount:  code,
		Errors:     all,
	}, nil
}

func verdict(infra, code int) string {
	switch {
	case infra > 0 && code > 0:
		return VerdictBoth
	case infra > 0:
		return VerdictInfrastructure
	case code > 0:
		return VerdictCode
	default:
		return VerdictClean
	}
}
