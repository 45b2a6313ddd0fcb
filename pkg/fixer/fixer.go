package fixer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// RuffFixer applies ruff format and ruff check --fix to a local repo.
//
// In dry-run mode ruff still executes, but every file is restored to its
// pre-run snapshot afterward so the diffs can be previewed without
// modifying the working tree.
type RuffFixer struct {
	repoPath string
	dryRun   bool
}

// NewRuffFixer validates the repo path and ruff availability.
func NewRuffFixer(repoPath string, dryRun bool) (*RuffFixer, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repo path not found: %s", abs)
	}

	if _, err := exec.LookPath("ruff"); err != nil {
		return nil, fmt.Errorf("ruff not found on PATH (install with: pip install ruff)")
	}

	return &RuffFixer{repoPath: abs, dryRun: dryRun}, nil
}

// collectPyFiles gathers Python files relative to the repo root,
// optionally scoped to specific files or directories.
func (f *RuffFixer) collectPyFiles(targets []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	walkDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".py") {
				return nil
			}
			rel, err := filepath.Rel(f.repoPath, path)
			if err != nil {
				return err
			}
			add(rel)
			return nil
		})
	}

	if len(targets) == 0 {
		if err := walkDir(f.repoPath); err != nil {
			return nil, fmt.Errorf("collecting python files: %w", err)
		}
	} else {
		for _, t := range targets {
			p := filepath.Join(f.repoPath, t)
			info, err := os.Stat(p)
			if err != nil {
				continue // missing targets are skipped, not fatal
			}
			if info.IsDir() {
				if err := walkDir(p); err != nil {
					return nil, fmt.Errorf("collecting python files in %s: %w", t, err)
				}
			} else if strings.HasSuffix(p, ".py") {
				rel, err := filepath.Rel(f.repoPath, p)
				if err != nil {
					return nil, err
				}
				add(rel)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// snapshot reads the current contents of all target files. Unreadable
// files are skipped.
func (f *RuffFixer) snapshot(files []string) map[string]string {
	snap := make(map[string]string, len(files))
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(f.repoPath, rel)) // #nosec G304 -- paths come from the repo walk
		if err != nil {
			continue
		}
		snap[rel] = string(data)
	}
	return snap
}

// restore writes files back to their snapshotted state (dry-run rollback).
func (f *RuffFixer) restore(snapshot map[string]string) {
	for rel, content := range snapshot {
		_ = os.WriteFile(filepath.Join(f.repoPath, rel), []byte(content), 0o644) // #nosec G306
	}
}

// runRuff executes ruff with the given args in the repo root.
func (f *RuffFixer) runRuff(ctx context.Context, args ...string) (stdout, stderr string, code int, err error) {
	cmd := exec.CommandContext(ctx, "ruff", args...) // #nosec G204 -- fixed binary name, args built internally
	cmd.Dir = f.repoPath

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	code = cmd.ProcessState.ExitCode()
	if runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); !isExit {
			return "", "", -1, fmt.Errorf("running ruff: %w", runErr)
		}
	}
	return outBuf.String(), errBuf.String(), code, nil
}

// fixPass runs one ruff invocation over the collected files and diffs the
// before/after snapshots.
func (f *RuffFixer) fixPass(ctx context.Context, tool string, args []string, targets []string) (*FixResult, error) {
	files, err := f.collectPyFiles(targets)
	if err != nil {
		return nil, err
	}

	before := f.snapshot(files)
	_, stderr, code, err := f.runRuff(ctx, append(args, files...)...)
	if err != nil {
		return nil, err
	}
	after := f.snapshot(files)

	changes := make([]FileChange, 0, len(files))
	for _, rel := range files {
		orig, ok := before[rel]
		if !ok {
			continue
		}
		fixed, ok := after[rel]
		if !ok {
			fixed = orig
		}
		changes = append(changes, FileChange{Path: rel, Original: orig, Fixed: fixed})
	}

	if f.dryRun {
		f.restore(before)
	}

	return &FixResult{
		Tool:       tool,
		Changes:    changes,
		ReturnCode: code,
		Stderr:     strings.TrimSpace(stderr),
	}, nil
}

// FixFormat runs `ruff format` on the repo.
func (f *RuffFixer) FixFormat(ctx context.Context, targets []string) (*FixResult, error) {
	return f.fixPass(ctx, "ruff format", []string{"format"}, targets)
}

// FixCheck runs `ruff check --fix` on the repo.
func (f *RuffFixer) FixCheck(ctx context.Context, targets []string) (*FixResult, error) {
	return f.fixPass(ctx, "ruff check --fix", []string{"check", "--fix"}, targets)
}

// FixAll runs format then check --fix in sequence.
func (f *RuffFixer) FixAll(ctx context.Context, targets []string) ([]*FixResult, error) {
	format, err := f.FixFormat(ctx, targets)
	if err != nil {
		return nil, err
	}
	check, err := f.FixCheck(ctx, targets)
	if err != nil {
		return nil, err
	}
	return []*FixResult{format, check}, nil
}

// Verify re-runs ruff in check-only mode to confirm the fixes took effect.
func (f *RuffFixer) Verify(ctx context.Context, targets []string) (*VerifyResult, error) {
	var scope []string
	for _, t := range targets {
		scope = append(scope, filepath.Join(f.repoPath, t))
	}

	_, _, fmtCode, err := f.runRuff(ctx, append([]string{"format", "--check"}, scope...)...)
	if err != nil {
		return nil, err
	}

	chkOut, _, chkCode, err := f.runRuff(ctx, append([]string{"check"}, scope...)...)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		FormatClean:     fmtCode == 0,
		CheckClean:      chkCode == 0,
		RemainingIssues: strings.TrimSpace(chkOut),
	}, nil
}
