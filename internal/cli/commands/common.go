// Package commands implements the cifix subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cifixlabs/cifix/pkg/classifier"
	"github.com/cifixlabs/cifix/pkg/config"
	"github.com/cifixlabs/cifix/pkg/patterns"
	"github.com/cifixlabs/cifix/pkg/webhook"
)

// ExitCode is set by commands to indicate the result:
// 0 clean, 1 findings (or unfixed issues), 2 configuration or runtime error.
var ExitCode = 0

// resolveToken resolves the GitHub token from flag or environment.
func resolveToken(token string) (string, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return "", errors.New("GitHub token required: pass --token or set GITHUB_TOKEN")
	}
	return token, nil
}

// buildRegistry creates the pattern registry, registering any extra rules
// from a user-supplied pattern file after the built-ins.
func buildRegistry(ctx context.Context, patternsFile string) (*patterns.Registry, error) {
	registry := patterns.NewRegistry()

	if patternsFile != "" {
		cfg, err := config.Load(ctx, patternsFile)
		if err != nil {
			return nil, fmt.Errorf("loading extra patterns: %w", err)
		}
		infra, code := cfg.Rules()
		registry.Register(infra, code)
	}

	return registry, nil
}

// filterFindings narrows the error list by category and minimum severity.
// Counts and verdict stay computed over the full set; only the displayed
// list shrinks.
func filterFindings(result *classifier.AnalysisResult, category, severity string) (*classifier.AnalysisResult, error) {
	filtered := *result

	switch category {
	case "", "all":
	case "infra", "code":
		want := patterns.CategoryCode
		if category == "infra" {
			want = patterns.CategoryInfrastructure
		}
		var kept []classifier.Finding
		for _, e := range filtered.Errors {
			if e.Category == want {
				kept = append(kept, e)
			}
		}
		filtered.Errors = kept
	default:
		return nil, fmt.Errorf("invalid category %q (use all, infra, or code)", category)
	}

	switch severity {
	case "", "all":
	case "fatal", "error", "warning":
		maxRank := patterns.Severity(severity).Rank()
		var kept []classifier.Finding
		for _, e := range filtered.Errors {
			if e.Severity.Rank() <= maxRank {
				kept = append(kept, e)
			}
		}
		filtered.Errors = kept
	default:
		return nil, fmt.Errorf("invalid severity %q (use all, fatal, error, or warning)", severity)
	}

	return &filtered, nil
}

// webhookFlags are the webhook options shared by classify and diagnose.
type webhookFlags struct {
	URL     string
	Token   string
	Trigger string
}

func (w *webhookFlags) register(registerString func(p *string, name, value, usage string)) {
	registerString(&w.URL, "webhook-url", "", "Webhook endpoint URL")
	registerString(&w.Token, "webhook-token", "", "Bearer token for webhook auth")
	registerString(&w.Trigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
}

// sendWebhook posts the result to the configured endpoint.
// Errors are logged to stderr but don't fail the command.
func sendWebhook(ctx context.Context, result *classifier.AnalysisResult, flags webhookFlags) {
	if flags.URL == "" {
		return
	}

	trigger := webhook.Trigger(flags.Trigger)
	if !trigger.ShouldFire(result.HasErrors()) {
		return
	}

	resp := webhook.NewClient().Send(ctx, result, webhook.SendOptions{
		URL:   flags.URL,
		Token: flags.Token,
	})

	if resp.Success() {
		fmt.Fprintf(os.Stderr, "Webhook %s: sent (%d, %s)\n", flags.URL, resp.StatusCode, resp.Duration)
	} else {
		fmt.Fprintf(os.Stderr, "Webhook %s: failed (%v)\n", flags.URL, resp.Error)
	}
}
