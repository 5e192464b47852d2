// Package adapter contains infrastructure adapters for the reportminer CLI.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

var (
	// ErrNoReports is returned when no HTML report is found in the given paths.
	ErrNoReports = errors.New("no HTML files found in provided paths")
	// ErrNotHTML is returned for an existing file without an .html extension.
	ErrNotHTML = errors.New("not an HTML file")
	// ErrNoDataContainer is returned when a report lacks the JSON data blob.
	ErrNoDataContainer = errors.New("could not find data container in HTML report")
)

const (
	reportGlob         = "**/*.html"
	dataContainerID    = "data-container"
	dataBlobAttr       = "data-jsonblob"
	failureCellIndex   = 3
	minPreBlockLength  = 10
	logPartSeparator   = "\n\n"
	reportFileExtLower = ".html"
)

var (
	identifierPattern  = regexp.MustCompile(`TMS_\d+`)
	ansiEscapePattern  = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
)

// ReportExtractor finds report files and turns them into records.
type ReportExtractor interface {
	Collect(paths []m.Path) ([]m.Path, error)
	Extract(ctx context.Context, files []m.Path, progress m.ProgressFunc) ([]m.Record, error)
}

// LocalReportExtractor reads pytest-html reports from the local filesystem.
type LocalReportExtractor struct{}

// NewLocalReportExtractor constructs a LocalReportExtractor.
func NewLocalReportExtractor() *LocalReportExtractor {
	return &LocalReportExtractor{}
}

// Collect expands files and directories into a sorted list of HTML reports.
func (e *LocalReportExtractor) Collect(paths []m.Path) ([]m.Path, error) {
	var files []m.Path

	for _, path := range paths {
		info, err := os.Stat(string(path))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("path not found: %s: %w", path, err)
			}

			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			if !strings.EqualFold(filepath.Ext(string(path)), reportFileExtLower) {
				return nil, fmt.Errorf("%w: %s", ErrNotHTML, path)
			}

			files = append(files, path)

			continue
		}

		matches, err := doublestar.Glob(os.DirFS(string(path)), reportGlob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}

		for _, match := range matches {
			files = append(files, m.Path(filepath.Join(string(path), filepath.FromSlash(match))))
		}
	}

	if len(files) == 0 {
		return nil, ErrNoReports
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i] < files[j]
	})

	return files, nil
}

// Extract parses the report files one after another.
func (e *LocalReportExtractor) Extract(ctx context.Context, files []m.Path, progress m.ProgressFunc) ([]m.Record, error) {
	var records []m.Record

	total := len(files)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress.Report(i, total, filepath.Base(string(file)))

		data, err := os.ReadFile(string(file))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		parsed, dropped, err := ParseReport(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		slog.Debug("extracted report", "file", file, "records", len(parsed), "dropped", dropped)

		records = append(records, parsed...)
	}

	progress.Report(total, total, m.ProgressComplete)

	return records, nil
}

// flexString accepts JSON strings, numbers and booleans as text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	*f = flexString(trimmed)

	return nil
}

type testRun struct {
	Result          flexString        `json:"result"`
	Duration        flexString        `json:"duration"`
	Time            flexString        `json:"time"`
	Log             flexString        `json:"log"`
	Extras          []json.RawMessage `json:"extras"`
	ResultsTableRow []string          `json:"resultsTableRow"`
}

type runExtra struct {
	Name    flexString `json:"name"`
	Content flexString `json:"content"`
}

type testEntry struct {
	path string
	runs []testRun
}

// ParseReport extracts records from the content of one report file.
// It returns the number of runs dropped for an unknown status or a missing identifier.
func ParseReport(content []byte) ([]m.Record, int, error) {
	blob, err := findDataBlob(content)
	if err != nil {
		return nil, 0, err
	}

	entries, err := decodeTests([]byte(blob))
	if err != nil {
		return nil, 0, fmt.Errorf("decode report data: %w", err)
	}

	var (
		records []m.Record
		dropped int
	)

	for _, entry := range entries {
		for _, run := range entry.runs {
			record, ok := buildRecord(entry.path, run)
			if !ok {
				dropped++
				continue
			}

			records = append(records, record)
		}
	}

	return records, dropped, nil
}

func findDataBlob(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	container := findNode(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return id == dataContainerID
	})
	if container == nil {
		container = findNode(doc, func(n *html.Node) bool {
			_, ok := attr(n, dataBlobAttr)
			return ok
		})
	}

	if container == nil {
		return "", ErrNoDataContainer
	}

	blob, ok := attr(container, dataBlobAttr)
	if !ok || blob == "" {
		return "", fmt.Errorf("%w: missing %s", ErrNoDataContainer, dataBlobAttr)
	}

	return blob, nil
}

// decodeTests reads the "tests" object preserving the order of its keys.
func decodeTests(blob []byte) ([]testEntry, error) {
	var payload struct {
		Tests json.RawMessage `json:"tests"`
	}

	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, err
	}

	if len(payload.Tests) == 0 || bytes.Equal(payload.Tests, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload.Tests))

	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("tests: expected object, got %v", tok)
	}

	var entries []testEntry

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("tests[%s]: %w", key, err)
		}

		runs, err := decodeRuns(raw)
		if err != nil {
			return nil, fmt.Errorf("tests[%s]: %w", key, err)
		}

		entries = append(entries, testEntry{path: key, runs: runs})
	}

	return entries, nil
}

func decodeRuns(raw json.RawMessage) ([]testRun, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var runs []testRun
		if err := json.Unmarshal(trimmed, &runs); err != nil {
			return nil, err
		}

		return runs, nil
	}

	var run testRun
	if err := json.Unmarshal(trimmed, &run); err != nil {
		return nil, err
	}

	return []testRun{run}, nil
}

func buildRecord(path string, run testRun) (m.Record, bool) {
	status, err := m.ParseStatus(string(run.Result))
	if err != nil {
		slog.Debug("dropping test run", "test", path, "error", err)
		return m.Record{}, false
	}

	identifier := ""

	for _, cell := range run.ResultsTableRow {
		if found := identifierPattern.FindString(cell); found != "" {
			identifier = found
			break
		}
	}

	if identifier == "" {
		slog.Debug("dropping test run without identifier", "test", path)
		return m.Record{}, false
	}

	return m.Record{
		Identifier:   identifier,
		Name:         m.TestNameFromPath(path),
		Path:         path,
		Status:       status,
		FailureText:  failureText(run.ResultsTableRow),
		Duration:     string(run.Duration),
		Timestamp:    string(run.Time),
		ExecutionLog: executionLog(run),
	}, true
}

func failureText(cells []string) string {
	if len(cells) <= failureCellIndex {
		return ""
	}

	root, err := parseFragment(cells[failureCellIndex])
	if err != nil {
		return ""
	}

	var parts []string

	walk(root, func(n *html.Node) {
		if n.Type != html.TextNode {
			return
		}

		if text := strings.TrimSpace(n.Data); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "")
}

func executionLog(run testRun) string {
	var parts []string

	for _, raw := range run.Extras {
		var extra runExtra
		if err := json.Unmarshal(raw, &extra); err != nil {
			continue
		}

		name := string(extra.Name)

		switch strings.ToLower(name) {
		case "stdout", "stderr", "log":
			if extra.Content == "" {
				continue
			}

			parts = append(parts, "=== "+strings.ToUpper(name)+" ===", CleanLog(string(extra.Content)))
		}
	}

	if run.Log != "" {
		parts = append(parts, "=== LOG ===", CleanLog(string(run.Log)))
	}

	for _, cell := range run.ResultsTableRow {
		lower := strings.ToLower(cell)
		if !strings.Contains(lower, "log") && !strings.Contains(lower, "pre") {
			continue
		}

		root, err := parseFragment(cell)
		if err != nil {
			continue
		}

		walk(root, func(n *html.Node) {
			if n.Type != html.ElementNode || n.DataAtom != atom.Pre {
				return
			}

			text := nodeText(n)
			if len(strings.TrimSpace(text)) > minPreBlockLength {
				parts = append(parts, CleanLog(text))
			}
		})
	}

	return strings.Join(parts, logPartSeparator)
}

// CleanLog unescapes HTML entities and removes terminal noise from log text.
func CleanLog(content string) string {
	content = html.UnescapeString(content)
	content = ansiEscapePattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = controlCharPattern.ReplaceAllString(content, "")
	content = blankRunPattern.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

func parseFragment(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		body.AppendChild(n)
	}

	return body, nil
}

func attr(n *html.Node, key string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}

	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}

	return "", false
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node

	walk(root, func(n *html.Node) {
		if found == nil && match(n) {
			found = n
		}
	})

	return found
}

func nodeText(n *html.Node) string {
	var b strings.Builder

	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})

	return b.String()
}
