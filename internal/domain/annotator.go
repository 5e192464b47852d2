package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	m "reportminer.dev/pkg/reportminer/internal/model"
)

const (
	// maxCachedViews bounds the render cache. Once full, new views are not cached.
	maxCachedViews = 100

	// levelColoringLimit is the log size in characters above which level tokens are not styled.
	levelColoringLimit = 500_000
)

// LogAnnotator renders a record into a navigable view and searches its execution log.
//
// A LogAnnotator keeps per-instance state and must be driven from a single goroutine.
type LogAnnotator interface {
	Render(record m.Record) m.LogView
	View() m.LogView
	JumpToSection(name string) (int, bool)
	Search(query string) int
	NextMatch() (int, bool)
	PrevMatch() (int, bool)
	CurrentMatch() (index int, line int, ok bool)
}

type sectionPattern struct {
	name    string
	pattern *regexp.Regexp
}

var sectionPatterns = buildSectionPatterns()

func buildSectionPatterns() []sectionPattern {
	var patterns []sectionPattern

	for _, phrase := range []string{"live log", "Captured log"} {
		for _, name := range []string{m.SectionSetup, m.SectionCall, m.SectionTeardown} {
			patterns = append(patterns, sectionPattern{
				name:    name,
				pattern: regexp.MustCompile(`(?i)-+\s*` + regexp.QuoteMeta(phrase) + `\s+` + name + `\s*-+`),
			})
		}
	}

	return patterns
}

var levelPattern = regexp.MustCompile(`(?i)\b(FATAL|ERROR|ERR|WARNING|WARN|INFO|DEBUG|DBG|TRACE|TRC)\b`)

var levelStyles = map[string]m.SegmentStyle{
	"FATAL":   m.StyleFatal,
	"ERROR":   m.StyleError,
	"ERR":     m.StyleError,
	"WARNING": m.StyleWarn,
	"WARN":    m.StyleWarn,
	"INFO":    m.StyleInfo,
	"DEBUG":   m.StyleDebug,
	"DBG":     m.StyleDebug,
	"TRACE":   m.StyleTrace,
	"TRC":     m.StyleTrace,
}

type cachedView struct {
	source m.Record
	view   m.LogView
}

type logAnnotator struct {
	record  m.Record
	loaded  bool
	query   *regexp.Regexp
	view    m.LogView
	current int
	cache   map[string]cachedView
}

// NewLogAnnotator creates a LogAnnotator with an empty render cache.
func NewLogAnnotator() LogAnnotator {
	return &logAnnotator{
		current: -1,
		cache:   make(map[string]cachedView),
	}
}

// Render builds the unhighlighted view of a record and makes it current.
// Any active search is cleared.
func (a *logAnnotator) Render(record m.Record) m.LogView {
	a.record = record
	a.loaded = true
	a.clearSearch()
	a.view = a.plainView()

	return a.view
}

// View returns the current view.
func (a *logAnnotator) View() m.LogView {
	return a.view
}

// JumpToSection returns the first line of a section seen during the last render.
func (a *logAnnotator) JumpToSection(name string) (int, bool) {
	line, ok := a.view.Sections[strings.ToLower(name)]

	return line, ok
}

// Search highlights every case-insensitive occurrence of query and returns the
// number of matching lines. An empty query restores the plain view.
func (a *logAnnotator) Search(query string) int {
	if query == "" {
		a.clearSearch()

		if a.loaded {
			a.view = a.plainView()
		}

		return 0
	}

	a.query = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))
	a.current = -1

	if !a.loaded {
		return 0
	}

	a.view = buildLogView(a.record, a.query)
	a.view.Matches = findMatchingLines(a.record.ExecutionLog, a.query, a.view.HeaderLines)

	if len(a.view.Matches) > 0 {
		a.current = 0
	}

	return len(a.view.Matches)
}

// NextMatch advances to the next match, wrapping past the last one.
func (a *logAnnotator) NextMatch() (int, bool) {
	return a.step(1)
}

// PrevMatch moves to the previous match, wrapping past the first one.
func (a *logAnnotator) PrevMatch() (int, bool) {
	return a.step(-1)
}

// CurrentMatch reports the index and line of the current match.
func (a *logAnnotator) CurrentMatch() (int, int, bool) {
	if a.current < 0 || a.current >= len(a.view.Matches) {
		return 0, 0, false
	}

	return a.current, a.view.Matches[a.current], true
}

func (a *logAnnotator) step(delta int) (int, bool) {
	count := len(a.view.Matches)
	if count == 0 {
		return 0, false
	}

	a.current = ((a.current+delta)%count + count) % count

	return a.view.Matches[a.current], true
}

func (a *logAnnotator) clearSearch() {
	a.query = nil
	a.current = -1
}

func (a *logAnnotator) plainView() m.LogView {
	id := a.record.Identifier

	if entry, ok := a.cache[id]; ok {
		if entry.source == a.record {
			return entry.view
		}

		delete(a.cache, id)
	}

	view := buildLogView(a.record, nil)
	if len(a.cache) < maxCachedViews {
		a.cache[id] = cachedView{source: a.record, view: view}
	}

	return view
}

// splitLogLines splits a log on newlines, dropping carriage returns at line ends.
func splitLogLines(log string) []string {
	lines := strings.Split(log, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

func findMatchingLines(log string, query *regexp.Regexp, offset int) []int {
	if log == "" {
		return nil
	}

	var matches []int

	for i, line := range splitLogLines(log) {
		if query.MatchString(line) {
			matches = append(matches, offset+i)
		}
	}

	return matches
}

type viewBuilder struct {
	lines []m.LogLine
}

func (b *viewBuilder) add(segments ...m.Segment) {
	b.lines = append(b.lines, m.LogLine{Segments: segments})
}

func (b *viewBuilder) blank() {
	b.add(m.Segment{})
}

func (b *viewBuilder) field(label, value string) {
	for i, line := range strings.Split(value, "\n") {
		if i == 0 {
			b.add(m.Segment{Text: label, Style: m.StyleLabel}, m.Segment{Text: line})
			continue
		}

		b.add(m.Segment{Text: line})
	}
}

func (b *viewBuilder) block(title string, style m.SegmentStyle, text string) {
	b.blank()
	b.add(m.Segment{Text: title, Style: style})

	for _, line := range strings.Split(text, "\n") {
		b.add(m.Segment{Text: line})
	}
}

func buildLogView(r m.Record, query *regexp.Regexp) m.LogView {
	var b viewBuilder

	b.add(m.Segment{Text: r.TrackerKey(), Style: m.StyleIdentifier})
	b.blank()

	if r.TrackerSummary != "" {
		b.field("Title: ", r.TrackerSummary)
	}

	b.field("Test: ", r.Name)
	b.field("Path: ", r.Path)
	b.add(m.Segment{Text: "Status: ", Style: m.StyleLabel}, m.Segment{Text: r.Status.String(), Style: m.StyleStatus})

	if r.Duration != "" {
		b.field("Duration: ", r.Duration)
	}

	if r.FailureText != "" {
		b.block("Failure Reason:", m.StyleFailureBanner, r.FailureText)
	}

	if r.TrackerSteps != "" {
		b.block("Test Steps:", m.StyleStepsBanner, r.TrackerSteps)
	}

	view := m.LogView{
		Identifier: r.Identifier,
		Sections:   make(map[string]int),
	}

	if r.ExecutionLog == "" {
		view.HeaderLines = len(b.lines)
		view.Lines = b.lines

		return view
	}

	b.blank()
	b.add(m.Segment{Text: "Execution Log:", Style: m.StyleLogBanner})
	view.HeaderLines = len(b.lines)

	colorLevels := utf8.RuneCountInString(r.ExecutionLog) <= levelColoringLimit

	for _, line := range splitLogLines(r.ExecutionLog) {
		if name, ok := matchSection(line); ok {
			if _, seen := view.Sections[name]; !seen {
				view.Sections[name] = len(b.lines)
			}

			b.add(m.Segment{Text: line, Style: m.StyleSection})

			continue
		}

		if query != nil && query.MatchString(line) {
			b.add(highlightSegments(line, query)...)
			continue
		}

		if colorLevels {
			b.add(levelSegments(line)...)
			continue
		}

		b.add(m.Segment{Text: line})
	}

	view.Lines = b.lines

	return view
}

func matchSection(line string) (string, bool) {
	if !strings.Contains(line, "-") {
		return "", false
	}

	for _, sp := range sectionPatterns {
		if sp.pattern.MatchString(line) {
			return sp.name, true
		}
	}

	return "", false
}

func levelSegments(line string) []m.Segment {
	loc := levelPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return []m.Segment{{Text: line}}
	}

	start, end := loc[2], loc[3]
	style := levelStyles[strings.ToUpper(line[start:end])]

	return compactSegments([]m.Segment{
		{Text: line[:start]},
		{Text: line[start:end], Style: style},
		{Text: line[end:]},
	})
}

func highlightSegments(line string, query *regexp.Regexp) []m.Segment {
	var segments []m.Segment

	pos := 0
	for _, loc := range query.FindAllStringIndex(line, -1) {
		segments = append(segments,
			m.Segment{Text: line[pos:loc[0]]},
			m.Segment{Text: line[loc[0]:loc[1]], Style: m.StyleMatch},
		)
		pos = loc[1]
	}

	segments = append(segments, m.Segment{Text: line[pos:]})

	return compactSegments(segments)
}

func compactSegments(segments []m.Segment) []m.Segment {
	out := segments[:0]
	for _, s := range segments {
		if s.Text == "" {
			continue
		}

		out = append(out, s)
	}

	if len(out) == 0 {
		return []m.Segment{{}}
	}

	return out
}
