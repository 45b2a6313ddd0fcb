package preprocess

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinel segment names produced during GitHub Actions segmentation.
const (
	// PreambleSegment names output before the first ##[group] marker.
	PreambleSegment = "(preamble)"

	// BetweenStepsSegment names output after an ##[endgroup] marker and
	// before the next ##[group].
	BetweenStepsSegment = "(between steps)"
)

var (
	ghaTimestamp  = regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2}T[\d:.]+Z\s*`)
	ghaCommand    = regexp.MustCompile(`(?m)^##\[command\].*$`)
	ghaGroupStart = regexp.MustCompile(`^##\[group\](.*)`)
	ghaGroupEnd   = regexp.MustCompile(`^##\[endgroup\]`)
	ghaExitCode   = regexp.MustCompile(`exit code (\d+)`)
)

// GitHubActionsPreprocessor handles GitHub Actions workflow logs.
type GitHubActionsPreprocessor struct{}

// Clean strips ANSI styling plus GitHub Actions noise: per-line ISO-8601
// timestamp prefixes and ##[command] echo lines.
func (p *GitHubActionsPreprocessor) Clean(raw string) string {
	text := ansiEscape.ReplaceAllString(raw, "")
	text = ghaTimestamp.ReplaceAllString(text, "")
	text = ghaCommand.ReplaceAllString(text, "")
	return text
}

// Split divides the log into step segments using ##[group]/##[endgroup]
// markers. Output before the first group is named "(preamble)", output
// between groups "(between steps)". Whitespace-only segments are dropped.
// An unmatched ##[endgroup] is harmless: it just starts a between-steps
// span.
func (p *GitHubActionsPreprocessor) Split(raw string) []Segment {
	cleaned := p.Clean(raw)
	lines := strings.Split(cleaned, "\n")

	var segments []Segment
	currentName := PreambleSegment
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, Segment{
			Name: currentName,
			Text: strings.Join(buf, "\n"),
		})
	}

	for _, line := range lines {
		if m := ghaGroupStart.FindStringSubmatch(line); m != nil {
			flush()
			currentName = strings.TrimSpace(m[1])
			buf = nil
			continue
		}

		if ghaGroupEnd.MatchString(line) {
			flush()
			currentName = BetweenStepsSegment
			buf = nil
			continue
		}

		buf = append(buf, line)
	}
	flush()

	kept := segments[:0]
	for i := range segments {
		if strings.TrimSpace(segments[i].Text) == "" {
			continue
		}
		ExtractExitCode(&segments[i])
		kept = append(kept, segments[i])
	}
	return kept
}

// ExtractExitCode looks for an "exit code N" pattern in the segment body
// and records it on the segment. Best effort: absence is not an error.
func ExtractExitCode(seg *Segment) {
	m := ghaExitCode.FindStringSubmatch(seg.Text)
	if m == nil {
		return
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	seg.ExitCode = &code
}
