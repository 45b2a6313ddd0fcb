package patterns

import "regexp"

// Built-in rule tables. Order matters: within a category the first matching
// rule wins, so more specific rules go before catch-alls. To extend, append
// to these tables or register extra rules at runtime via Registry.Register.

func builtinInfraRules() []Rule {
	return []Rule{
		// Secrets / env vars
		{
			Pattern:    regexp.MustCompile(`(?i)secret\s+\S+\s+(not found|is not set|undefined)`),
			Type:       "missing_secret",
			Severity:   SeverityFatal,
			Suggestion: "Check repository/org secrets and environment configuration.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)env(ironment)?\s+var(iable)?\s+\S+\s+(not set|undefined|missing)`),
			Type:       "missing_env_var",
			Severity:   SeverityFatal,
			Suggestion: "Verify env vars in workflow YAML or environment settings.",
		},

		// Runner
		{
			Pattern:    regexp.MustCompile(`(?i)(runner\s+(is not|isn't)\s+available|no matching runner)`),
			Type:       "runner_unavailable",
			Severity:   SeverityFatal,
			Suggestion: "Check self-hosted runner status or switch to GitHub-hosted runners.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)##\[error\]The runner has received a shutdown signal`),
			Type:       "runner_shutdown",
			Severity:   SeverityFatal,
			Suggestion: "Runner was preempted or shut down. Retry the job.",
		},

		// Network / registry
		{
			Pattern:    regexp.MustCompile(`(?i)(connection timed out|ETIMEDOUT|Could not resolve host)`),
			Type:       "network_timeout",
			Severity:   SeverityError,
			Suggestion: "Transient network issue. Retry or check runner connectivity.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(rate limit|API rate|403 rate)`),
			Type:       "rate_limit",
			Severity:   SeverityError,
			Suggestion: "Hit an API rate limit. Add backoff/retry or use caching.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(unauthorized|401|authentication failed|login required).*?(registry|docker|ghcr|ecr)`),
			Type:       "registry_auth",
			Severity:   SeverityFatal,
			Suggestion: "Registry auth failed. Check docker login credentials/tokens.",
		},

		// Resources
		{
			Pattern:    regexp.MustCompile(`(?i)(no space left on device|ENOSPC)`),
			Type:       "disk_full",
			Severity:   SeverityFatal,
			Suggestion: "Runner ran out of disk. Clean workspace or use a larger runner.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(out of memory|OOM|MemoryError|Cannot allocate memory)`),
			Type:       "out_of_memory",
			Severity:   SeverityFatal,
			Suggestion: "Process ran out of memory. Use a larger runner or reduce parallelism.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(job timed out|exceeded the maximum|timeout of \d+)`),
			Type:       "timeout",
			Severity:   SeverityFatal,
			Suggestion: "Job exceeded time limit. Optimize steps or increase timeout.",
		},

		// Actions / permissions
		{
			Pattern:    regexp.MustCompile(`(?i)(action|uses).*?(not found|does not exist|deprecated|isn't accessible)`),
			Type:       "action_not_found",
			Severity:   SeverityError,
			Suggestion: "Referenced action is missing or deprecated. Check version/path.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(permission denied|Resource not accessible by integration|403 Forbidden)`),
			Type:       "permissions",
			Severity:   SeverityError,
			Suggestion: "Insufficient permissions. Check GITHUB_TOKEN scopes and job permissions.",
		},

		// Cache
		{
			Pattern:    regexp.MustCompile(`(?i)(cache (miss|not found|restore failed)|Unable to restore cache)`),
			Type:       "cache_miss",
			Severity:   SeverityWarning,
			Suggestion: "Cache miss - first run on this key, or cache was evicted.",
		},

		// Dependencies (infra-flavored: resolution / network)
		{
			Pattern:    regexp.MustCompile(`(?i)(Could not find a version|No matching distribution|package .* not found)`),
			Type:       "dependency_resolution",
			Severity:   SeverityError,
			Suggestion: "Package not found. Check package name, version pin, and index URL.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(hash mismatch|integrity check|checksum)`),
			Type:       "dependency_integrity",
			Severity:   SeverityError,
			Suggestion: "Package integrity check failed. Clear cache and retry.",
		},

		// Docker
		{
			Pattern:    regexp.MustCompile(`(?i)(failed to (fetch|pull|resolve)|manifest unknown|image not found)`),
			Type:       "docker_pull_failed",
			Severity:   SeverityError,
			Suggestion: "Docker image pull failed. Check image name, tag, and registry auth.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)COPY failed:.*?(not found|no such file)`),
			Type:       "docker_copy_failed",
			Severity:   SeverityError,
			Suggestion: "COPY source missing. Check .dockerignore and build context.",
		},

		// GitHub Actions generic step failure, last so real causes win
		{
			Pattern:    regexp.MustCompile(`(?i)##\[error\]Process completed with exit code \d+`),
			Type:       "process_exit",
			Severity:   SeverityWarning,
			Suggestion: "Generic step failure. Check preceding output for the real error.",
		},
	}
}

func builtinCodeRules() []Rule {
	return []Rule{
		// Linting (ruff, flake8, pylint)
		{
			Pattern:    regexp.MustCompile(`^.*?:\d+:\d+:\s+[A-Z]\d{3,4}`),
			Type:       "lint_violation",
			Severity:   SeverityError,
			Suggestion: "Fix the lint violation(s) or adjust ruff/linter config.",
		},

		// Type checking (mypy, pyright)
		{
			Pattern:    regexp.MustCompile(`^.*?:\d+:\s+error:\s+`),
			Type:       "type_error",
			Severity:   SeverityError,
			Suggestion: "Fix the type error reported by the type checker.",
		},

		// Pytest
		{
			Pattern:    regexp.MustCompile(`FAILED\s+\S+::\S+`),
			Type:       "test_failure",
			Severity:   SeverityError,
			Suggestion: "One or more tests failed. Check assertion details above.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(AssertionError|assert\s+.*==)`),
			Type:       "assertion_error",
			Severity:   SeverityError,
			Suggestion: "Test assertion failed. Compare expected vs actual values.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(\d+ failed.*\d+ passed|\d+ error.*in \d+)`),
			Type:       "test_summary",
			Severity:   SeverityWarning,
			Suggestion: "See individual FAILED lines for specifics.",
		},

		// Python runtime errors
		{
			Pattern:    regexp.MustCompile(`Traceback \(most recent call last\):`),
			Type:       "traceback",
			Severity:   SeverityError,
			Suggestion: "Unhandled exception. Check the traceback for root cause.",
		},
		{
			Pattern:    regexp.MustCompile(`(SyntaxError|IndentationError|TabError):\s+`),
			Type:       "syntax_error",
			Severity:   SeverityFatal,
			Suggestion: "Fix the syntax error before pushing.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(ImportError|ModuleNotFoundError):\s+(.+)`),
			Type:       "import_error",
			Severity:   SeverityError,
			Suggestion: "Missing import. Add dependency or fix import path.",
		},
		{
			Pattern:    regexp.MustCompile(`(?i)(NameError|AttributeError|TypeError|ValueError|KeyError|IndexError):\s+(.+)`),
			Type:       "runtime_error",
			Severity:   SeverityError,
			Suggestion: "Runtime error in application code. Check the traceback.",
		},

		// Build / compile (Rust/C style error codes)
		{
			Pattern:    regexp.MustCompile(`error\[E\d{4}\]:`),
			Type:       "compile_error",
			Severity:   SeverityError,
			Suggestion: "Compilation error. Check the source file and line referenced.",
		},

		// ESLint / JS
		{
			Pattern:    regexp.MustCompile(`^\s+\d+:\d+\s+(error|warning)\s+.+\s+\S+/\S+$`),
			Type:       "eslint_violation",
			Severity:   SeverityError,
			Suggestion: "Fix the ESLint violation(s) or adjust config.",
		},
	}
}
