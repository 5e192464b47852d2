package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	m "reportminer.dev/pkg/reportminer/internal/model"
)

// DefaultTrackerTimeout bounds a single tracker request.
const DefaultTrackerTimeout = 30 * time.Second

const (
	issueAPIPath    = "/rest/api/3/issue/"
	summaryField    = "summary"
	maxErrorSnippet = 200
)

// ErrTrackerStatus is returned when the tracker answers with an unexpected status.
var ErrTrackerStatus = errors.New("unexpected tracker response")

// TrackerClient fetches issue data for tracker keys.
type TrackerClient interface {
	Configured() bool
	FetchIssue(ctx context.Context, key string) (m.TrackerIssue, bool, error)
	BaseURL() string
}

// JiraConfig holds static credentials and settings for Jira Cloud.
type JiraConfig struct {
	BaseURL    string
	Email      string
	Token      string
	StepsField string
	Timeout    time.Duration
}

// JiraClient talks to the Jira REST API v3.
type JiraClient struct {
	cfg   JiraConfig
	http  *http.Client
	cache ResponseCache
}

// NewJiraClient creates a client. cache may be nil.
func NewJiraClient(cfg JiraConfig, cache ResponseCache) *JiraClient {
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTrackerTimeout
	}

	return &JiraClient{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
	}
}

// Configured reports whether URL and credentials are all present.
func (c *JiraClient) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.Email != "" && c.cfg.Token != ""
}

// BaseURL returns the tracker base URL without a trailing slash.
func (c *JiraClient) BaseURL() string {
	return c.cfg.BaseURL
}

// FetchIssue returns the issue for key. The boolean is false when the client is
// not configured or the issue does not exist.
func (c *JiraClient) FetchIssue(ctx context.Context, key string) (m.TrackerIssue, bool, error) {
	if c.cache != nil {
		if issue, ok := c.cache.Get(key); ok {
			slog.Debug("tracker cache hit", "key", key)
			return issue, true, nil
		}
	}

	if !c.Configured() {
		return m.TrackerIssue{}, false, nil
	}

	issue, found, err := c.request(ctx, key)
	if err != nil || !found {
		return issue, found, err
	}

	if c.cache != nil {
		if err := c.cache.Set(key, issue); err != nil {
			slog.Warn("failed to cache tracker response", "key", key, "error", err)
		}
	}

	return issue, true, nil
}

func (c *JiraClient) request(ctx context.Context, key string) (m.TrackerIssue, bool, error) {
	fields := []string{summaryField}
	if c.cfg.StepsField != "" {
		fields = append(fields, c.cfg.StepsField)
	}

	endpoint := c.cfg.BaseURL + issueAPIPath + url.PathEscape(key) +
		"?" + url.Values{"fields": {strings.Join(fields, ",")}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return m.TrackerIssue{}, false, fmt.Errorf("build request for %s: %w", key, err)
	}

	req.SetBasicAuth(c.cfg.Email, c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return m.TrackerIssue{}, false, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return m.TrackerIssue{}, false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return m.TrackerIssue{}, false, fmt.Errorf("fetch %s: %w: %s: %s",
			key, ErrTrackerStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var payload struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return m.TrackerIssue{}, false, fmt.Errorf("decode %s: %w", key, err)
	}

	issue := m.TrackerIssue{Key: key}

	if raw, ok := payload.Fields[summaryField]; ok {
		_ = json.Unmarshal(raw, &issue.Summary)
	}

	if c.cfg.StepsField != "" {
		issue.Steps = fieldText(payload.Fields[c.cfg.StepsField])
	}

	return issue, true, nil
}

// adfNode is a node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// fieldText converts a plain or ADF field value into text.
func fieldText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc adfNode
	if trimmed[0] == '{' && json.Unmarshal(raw, &doc) == nil {
		return strings.TrimSpace(adfToText(doc))
	}

	return trimmed
}

// adfToText renders paragraphs, headings and list items of an ADF tree as text.
func adfToText(node adfNode) string {
	if node.Type == "text" {
		return node.Text
	}

	var b strings.Builder
	for _, child := range node.Content {
		b.WriteString(adfToText(child))
	}

	text := b.String()

	switch node.Type {
	case "paragraph", "heading":
		return strings.TrimSpace(text) + "\n"
	case "orderedList", "bulletList":
		return text + "\n"
	case "listItem":
		return "- " + strings.TrimSpace(text) + "\n"
	}

	return text
}
