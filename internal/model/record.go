// Package model defines the data structures shared by reportminer components.
package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is a single test outcome extracted from a report.
//
// Empty string fields are treated as absent. Only the tracker fields are
// written after extraction.
type Record struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Status       Status `json:"status"`
	FailureText  string `json:"failure_text,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	ExecutionLog string `json:"-"`

	TrackerSummary string `json:"tracker_summary,omitempty"`
	TrackerSteps   string `json:"tracker_steps,omitempty"`
}

// TrackerKey returns the identifier in issue tracker format (TMS_123 -> TMS-123).
func (r Record) TrackerKey() string {
	return strings.ReplaceAll(r.Identifier, "_", "-")
}

// ReadableName returns the test name without the test_ prefix, spaced and capitalized.
func (r Record) ReadableName() string {
	name := strings.TrimPrefix(r.Name, "test_")
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}

	words := strings.SplitN(name, " ", 2)
	words[0] = cases.Title(language.Und).String(words[0])
	if len(words) == 2 {
		words[1] = strings.ToLower(words[1])
	}

	return strings.Join(words, " ")
}

// TestNameFromPath extracts the function name from a node id such as
// "tests/test_x.py::TestCls::test_name[param]".
func TestNameFromPath(path string) string {
	idx := strings.LastIndex(path, "::")
	if idx < 0 {
		return path
	}

	name := path[idx+2:]
	if bracket := strings.Index(name, "["); bracket >= 0 {
		name = name[:bracket]
	}

	return name
}

// Counts holds per-status totals for a set of records.
type Counts struct {
	Total    int
	ByStatus map[Status]int
}

// CountRecords tallies records by status.
func CountRecords(records []Record) Counts {
	counts := Counts{Total: len(records), ByStatus: make(map[Status]int)}
	for _, r := range records {
		counts.ByStatus[r.Status]++
	}

	return counts
}

// Of returns the count for a status.
func (c Counts) Of(s Status) int {
	return c.ByStatus[s]
}

// BrowseURL returns the tracker page for the record under baseURL.
func (r Record) BrowseURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/browse/" + r.TrackerKey()
}
