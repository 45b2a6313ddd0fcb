// Package preprocess turns raw CI logs into cleaned, named step segments.
//
// Each CI provider gets its own Preprocessor implementation, selected through
// a lookup table keyed by provider name. Adding a provider means adding an
// implementation and a table entry.
package preprocess

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is a single CI step's name and log output.
type Segment struct {
	// Name is the step name. Not required to be unique.
	Name string

	// Text is the cleaned log body of the step.
	Text string

	// ExitCode is the step's exit code, if one could be parsed from the
	// body. Nil when absent; absence is not an error.
	ExitCode *int
}

// Preprocessor normalizes and segments one provider's log format.
type Preprocessor interface {
	// Clean strips provider noise (ANSI styling, timestamps, command
	// echoes). Cleaning is idempotent: Clean(Clean(x)) == Clean(x).
	Clean(raw string) string

	// Split divides a raw log into ordered step segments. Malformed input
	// never fails: unrecognized lines are treated as body text.
	Split(raw string) []Segment
}

// UnknownProviderError is returned when no preprocessor is registered for
// the requested provider.
type UnknownProviderError struct {
	// Provider is the name that was requested.
	Provider string

	// Available lists the registered provider names.
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown CI provider %q (available: %s)",
		e.Provider, strings.Join(e.Available, ", "))
}

// preprocessors maps provider names to constructors. Extend as you add
// CI providers.
var preprocessors = map[string]func() Preprocessor{
	"generic": func() Preprocessor { return &GenericPreprocessor{} },
	"github":  func() Preprocessor { return &GitHubActionsPreprocessor{} },
}

// ForProvider returns the preprocessor for the named provider.
// Returns *UnknownProviderError if the provider is not registered.
func ForProvider(provider string) (Preprocessor, error) {
	ctor, ok := preprocessors[provider]
	if !ok {
		return nil, &UnknownProviderError{
			Provider:  provider,
			Available: Providers(),
		}
	}
	return ctor(), nil
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(preprocessors))
	for name := range preprocessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
