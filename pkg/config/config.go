package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cifixlabs/cifix/pkg/patterns"
)

// Load reads and validates a pattern file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided pattern file path is expected
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing pattern file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating pattern file: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for errors and compiles regex patterns.
// An invalid regex is a load-time error, never a classification-time one.
func Validate(cfg *Config) error {
	if len(cfg.Patterns.Infrastructure) == 0 && len(cfg.Patterns.Code) == 0 {
		return errors.New("patterns: at least one rule is required")
	}

	for i := range cfg.Patterns.Infrastructure {
		if err := validateRule(&cfg.Patterns.Infrastructure[i]); err != nil {
			return fmt.Errorf("patterns.infrastructure[%d] (%s): %w", i, cfg.Patterns.Infrastructure[i].Type, err)
		}
	}
	for i := range cfg.Patterns.Code {
		if err := validateRule(&cfg.Patterns.Code[i]); err != nil {
			return fmt.Errorf("patterns.code[%d] (%s): %w", i, cfg.Patterns.Code[i].Type, err)
		}
	}

	return nil
}

func validateRule(rule *RuleConfig) error {
	if rule.Type == "" {
		return errors.New("type is required")
	}

	if rule.Pattern == "" {
		return errors.New("pattern is required")
	}

	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	rule.compiledPattern = re

	if rule.Severity == "" {
		rule.Severity = string(patterns.SeverityError)
	}
	if !patterns.Severity(rule.Severity).Valid() {
		return fmt.Errorf("invalid severity %q (must be fatal, error, or warning)", rule.Severity)
	}

	return nil
}
