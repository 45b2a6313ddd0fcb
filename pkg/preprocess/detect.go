package preprocess

import (
	"bufio"
	"strings"
)

// detectSampleSize is the number of lines sampled when sniffing a provider.
const detectSampleSize = 200

// providerMarkers maps provider names to markup fragments that identify
// their logs. Checked in a fixed order so detection is deterministic.
var providerMarkers = []struct {
	provider string
	marker   string
}{
	{"github", "##[group]"},
	{"github", "##[endgroup]"},
	{"github", "##[command]"},
}

// DetectProvider sniffs a raw log for provider-specific markup and returns
// the matching provider name. Falls back to "generic" when no markup is
// recognized, so detection never fails.
func DetectProvider(raw string) string {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sampled := 0
	for scanner.Scan() && sampled < detectSampleSize {
		line := scanner.Text()
		sampled++
		for _, pm := range providerMarkers {
			if strings.Contains(line, pm.marker) {
				return pm.provider
			}
		}
	}
	return "generic"
}
