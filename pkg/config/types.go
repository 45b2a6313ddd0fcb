// Package config provides loading and validation of extra pattern files.
//
// A pattern file lets users register provider- or project-specific
// classification rules without rebuilding cifix. Rules are validated and
// their regexes compiled once at load time, never during classification.
package config

import (
	"regexp"

	"github.com/cifixlabs/cifix/pkg/patterns"
)

// Config is the root structure loaded from a pattern YAML file.
type Config struct {
	Patterns PatternsConfig `yaml:"patterns"`
}

// PatternsConfig holds extra rules per category. Registered rules are
// appended after the built-ins, so built-ins keep matching priority.
type PatternsConfig struct {
	Infrastructure []RuleConfig `yaml:"infrastructure,omitempty"`
	Code           []RuleConfig `yaml:"code,omitempty"`
}

// RuleConfig defines a single extra classification rule.
type RuleConfig struct {
	// Pattern is the regex matched against each log line.
	Pattern string `yaml:"pattern"`

	// Type is the error type identifier reported on matches.
	Type string `yaml:"type"`

	// Severity is fatal, error, or warning. Defaults to error.
	Severity string `yaml:"severity,omitempty"`

	// Suggestion is the remediation hint shown with matches.
	Suggestion string `yaml:"suggestion,omitempty"`

	// compiledPattern is populated during validation.
	compiledPattern *regexp.Regexp
}

// CompiledPattern returns the pre-compiled regex pattern.
func (r *RuleConfig) CompiledPattern() *regexp.Regexp {
	return r.compiledPattern
}

// Rules converts the validated config into registry rule lists.
func (c *Config) Rules() (infra, code []patterns.Rule) {
	infra = toRules(c.Patterns.Infrastructure)
	code = toRules(c.Patterns.Code)
	return infra, code
}

func toRules(rcs []RuleConfig) []patterns.Rule {
	if len(rcs) == 0 {
		return nil
	}
	rules := make([]patterns.Rule, 0, len(rcs))
	for i := range rcs {
		rules = append(rules, patterns.Rule{
			Pattern:    rcs[i].compiledPattern,
			Type:       rcs[i].Type,
			Severity:   patterns.Severity(rcs[i].Severity),
			Suggestion: rcs[i].Suggestion,
		})
	}
	return rules
}
