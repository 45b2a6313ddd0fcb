package preprocess

import "regexp"

// FullLogSegment is the segment name used when a log is not split into steps.
const FullLogSegment = "(full log)"

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// GenericPreprocessor handles logs from providers without known markup.
// It strips ANSI styling and returns the whole log as one segment.
type GenericPreprocessor struct{}

// Clean strips ANSI color/style escape sequences.
func (p *GenericPreprocessor) Clean(raw string) string {
	return ansiEscape.ReplaceAllString(raw, "")
}

// Split returns the entire cleaned log as a single segment.
func (p *GenericPreprocessor) Split(raw string) []Segment {
	return []Segment{{Name: FullLogSegment, Text: p.Clean(raw)}}
}
