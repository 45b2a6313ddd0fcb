// Package github fetches workflow run logs from the GitHub Actions API.
package github

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// downloadTimeout bounds the log archive download.
const downloadTimeout = 60 * time.Second

// maxArchiveSize caps the size of a downloaded log archive (100 MB).
const maxArchiveSize = 100 << 20

// LogFile is one extracted log file from a run's log archive.
type LogFile struct {
	// Name is the file path inside the archive.
	Name string

	// Content is the decoded log text.
	Content string
}

// Client downloads and extracts workflow run logs.
type Client struct {
	gh *gogithub.Client

	// httpClient downloads the pre-signed archive URL. No auth header:
	// the URL itself carries the authorization.
	httpClient *http.Client
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:         gogithub.NewClient(tc),
		httpClient: &http.Client{Timeout: downloadTimeout},
	}
}

// NewFromGitHub wraps an existing go-github client. Intended for tests and
// callers that need a custom base URL (e.g. GitHub Enterprise).
func NewFromGitHub(gh *gogithub.Client) *Client {
	return &Client{
		gh:         gh,
		httpClient: &http.Client{Timeout: downloadTimeout},
	}
}

// FetchRunLogs downloads a workflow run's log archive and extracts its
// .txt entries in sorted name order.
//
// repo is an "owner/repo" string. A 404 from the API is reported with a
// hint that logs expire.
func (c *Client) FetchRunLogs(ctx context.Context, repo string, runID int64) ([]LogFile, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	logURL, resp, err := c.gh.Actions.GetWorkflowRunLogs(ctx, owner, name, runID, 4)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("run %d not found in %s: check the repo name and run ID, or ensure logs haven't expired", runID, repo)
		}
		return nil, fmt.Errorf("fetching run logs: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	dlResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading log archive: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading log archive: status %d", dlResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(dlResp.Body, maxArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("reading log archive: %w", err)
	}

	return extractLogs(data)
}

// extractLogs unpacks .txt entries from a zip archive in sorted order.
func extractLogs(data []byte) ([]LogFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening log archive: %w", err)
	}

	names := make([]string, 0, len(zr.File))
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		names = append(names, f.Name)
		byName[f.Name] = f
	}
	sort.Strings(names)

	logs := make([]LogFile, 0, len(names))
	for _, name := range names {
		rc, err := byName[name].Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in log archive: %w", name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s from log archive: %w", name, err)
		}
		logs = append(logs, LogFile{Name: name, Content: string(content)})
	}

	return logs, nil
}

// CombinedLog concatenates log file contents into one blob for the
// classifier.
func CombinedLog(logs []LogFile) string {
	contents := make([]string, len(logs))
	for i, lf := range logs {
		contents[i] = lf.Content
	}
	return strings.Join(contents, "\n")
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q (expected owner/repo)", repo)
	}
	return parts[0], parts[1], nil
}
