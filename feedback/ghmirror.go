package feedback

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// mirror file columns; wider than the admin CSV export because the mirror
// is the raw durable log, not a report.
var mirrorHeader = []string{
	"Timestamp", "Submission ID", "Last Name", "Unit Number",
	"Topics", "Urgency", "Subject", "Comment", "Email",
	"Anonymous", "Copy PM", "Copy Me", "Submit Type",
}

type GitHubMirrorConfig struct {
	Owner  string
	Repo   string
	Branch string
	Path   string // path of the CSV file inside the repo
	Token  string

	// APIBase overrides the GitHub API URL, for tests.
	APIBase string
}

// GitHubMirror appends each record as a CSV row to a file in a GitHub
// repository through the contents API. One round-trip reads the current
// content and blob sha, a second writes content + row back.
type GitHubMirror struct {
	cfg    GitHubMirrorConfig
	client *http.Client
}

func NewGitHubMirror(cfg GitHubMirrorConfig) *GitHubMirror {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &GitHubMirror{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *GitHubMirror) Name() string { return "github-csv" }

func (m *GitHubMirror) Forward(ctx context.Context, sub Submission) error {
	content, sha, err := m.currentCSV(ctx)
	if err != nil {
		return err
	}
	updated := content + "\r\n" + mirrorRow(sub)
	return m.put(ctx, updated, sha, sub.ID)
}

func (m *GitHubMirror) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		m.cfg.APIBase, m.cfg.Owner, m.cfg.Repo, m.cfg.Path)
}

// currentCSV fetches the mirror file. A missing file yields the header row
// and an empty sha, so the first forwarded record creates the file.
func (m *GitHubMirror) currentCSV(ctx context.Context) (content, sha string, err error) {
	url := m.contentsURL() + "?ref=" + m.cfg.Branch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch mirror file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return strings.Join(mirrorHeader, ","), "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch mirror file: status %d", resp.StatusCode)
	}

	var file struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", "", fmt.Errorf("decode mirror file: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(
		strings.Map(dropSpace, file.Content))
	if err != nil {
		return "", "", fmt.Errorf("decode mirror content: %w", err)
	}
	return strings.TrimPrefix(string(raw), utf8BOM), file.SHA, nil
}

func (m *GitHubMirror) put(ctx context.Context, content, sha, submissionID string) error {
	payload := map[string]any{
		"message": fmt.Sprintf("Add feedback submission %s", submissionID),
		"content": base64.StdEncoding.EncodeToString([]byte(utf8BOM + content)),
		"branch":  m.cfg.Branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("update mirror file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("update mirror file: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (m *GitHubMirror) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+m.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// mirrorRow renders one CSV row with conditional quoting: only values
// containing a comma, quote or newline are wrapped. Line breaks inside the
// comment are flattened to spaces so the row stays a single line.
func mirrorRow(sub Submission) string {
	comment := strings.NewReplacer("\r", " ", "\n", " ").Replace(orNA(sub.Comment))
	values := []string{
		sub.SubmittedAt.UTC().Format(time.RFC3339),
		sub.ID,
		orNA(sub.LastName),
		orNA(sub.UnitNumber),
		orNA(sub.Topics),
		orNA(sub.Urgency),
		orNA(sub.Subject),
		comment,
		sub.Email,
		yesNo(sub.IsAnonymous),
		yesNo(sub.CopyPM),
		yesNo(sub.CopyMe),
		orDefault(sub.ButtonType, "General Submit"),
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, ",\"\n") {
			v = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		}
		escaped[i] = v
	}
	return strings.Join(escaped, ",")
}

func orNA(v string) string {
	return orDefault(v, "N/A")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\n', '\r', '\t':
		return -1
	}
	return r
}
