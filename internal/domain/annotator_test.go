package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

func logRecord(id, log string) m.Record {
	return m.Record{
		Identifier:   id,
		Name:         "test_something",
		Path:         "tests/test_mod.py::test_something",
		Status:       m.StatusFailed,
		ExecutionLog: log,
	}
}

func stylesOf(line m.LogLine) []m.SegmentStyle {
	styles := make([]m.SegmentStyle, 0, len(line.Segments))
	for _, s := range line.Segments {
		styles = append(styles, s.Style)
	}

	return styles
}

func TestLogAnnotator_SectionMap(t *testing.T) {
	a := NewLogAnnotator()
	view := a.Render(logRecord("TMS_1", strings.Join([]string{
		"----- live log call -----",
		"INFO x",
		"----- live log teardown -----",
		"DEBUG y",
	}, "\n")))

	callLine, ok := a.JumpToSection("call")
	require.True(t, ok)
	teardownLine, ok := a.JumpToSection("teardown")
	require.True(t, ok)
	_, ok = a.JumpToSection("setup")
	assert.False(t, ok)

	assert.Less(t, callLine, teardownLine)
	assert.Equal(t, view.HeaderLines, callLine)
	assert.Equal(t, view.HeaderLines+2, teardownLine)
	assert.Equal(t, "----- live log call -----", view.Lines[callLine].Text())
	assert.Equal(t, []m.SegmentStyle{m.StyleSection}, stylesOf(view.Lines[callLine]))
}

func TestLogAnnotator_SectionFirstOccurrenceWins(t *testing.T) {
	a := NewLogAnnotator()
	view := a.Render(logRecord("TMS_1", strings.Join([]string{
		"------ Captured log setup ------",
		"x",
		"--- LIVE LOG SETUP ---",
	}, "\n")))

	line, ok := a.JumpToSection("Setup")
	require.True(t, ok)
	assert.Equal(t, view.HeaderLines, line)
	assert.Len(t, view.Sections, 1)
	assert.Equal(t, []m.SegmentStyle{m.StyleSection}, stylesOf(view.Lines[view.HeaderLines+2]))
}

func TestLogAnnotator_LevelColoring(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		styles []m.SegmentStyle
		token  string
	}{
		{name: "error mid line", line: "12:00 ERROR boom", styles: []m.SegmentStyle{m.StylePlain, m.StyleError, m.StylePlain}, token: "ERROR"},
		{name: "first token only", line: "warn: then ERROR", styles: []m.SegmentStyle{m.StyleWarn, m.StylePlain}, token: "warn"},
		{name: "fatal", line: "FATAL", styles: []m.SegmentStyle{m.StyleFatal}, token: "FATAL"},
		{name: "trace short", line: "[TRC] tick", styles: []m.SegmentStyle{m.StylePlain, m.StyleTrace, m.StylePlain}, token: "TRC"},
		{name: "word boundary", line: "information overload", styles: []m.SegmentStyle{m.StylePlain}},
		{name: "dbg", line: "dbg value=1", styles: []m.SegmentStyle{m.StyleDebug, m.StylePlain}, token: "dbg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLogAnnotator()
			view := a.Render(logRecord("TMS_1", tt.line))
			line := view.Lines[view.HeaderLines]

			assert.Equal(t, tt.line, line.Text())
			assert.Equal(t, tt.styles, stylesOf(line))

			if tt.token != "" {
				for _, s := range line.Segments {
					if s.Style != m.StylePlain {
						assert.Equal(t, tt.token, s.Text)
					}
				}
			}
		})
	}
}

func TestLogAnnotator_SearchWrapsAround(t *testing.T) {
	a := NewLogAnnotator()
	view := a.Render(logRecord("TMS_1", strings.Join([]string{
		"alpha",
		"needle one",
		"beta",
		"gamma",
		"NEEDLE two",
	}, "\n")))

	count := a.Search("needle")
	require.Equal(t, 2, count)

	first := view.HeaderLines + 1
	second := view.HeaderLines + 4

	idx, line, ok := a.CurrentMatch()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, first, line)

	line, ok = a.NextMatch()
	require.True(t, ok)
	assert.Equal(t, second, line)

	line, ok = a.NextMatch()
	require.True(t, ok)
	assert.Equal(t, first, line)

	line, ok = a.PrevMatch()
	require.True(t, ok)
	assert.Equal(t, second, line)
}

func TestLogAnnotator_SearchNoMatches(t *testing.T) {
	a := NewLogAnnotator()
	a.Render(logRecord("TMS_1", "INFO nothing here"))

	assert.Equal(t, 0, a.Search("absent"))

	_, _, ok := a.CurrentMatch()
	assert.False(t, ok)

	_, ok = a.NextMatch()
	assert.False(t, ok)
	_, ok = a.PrevMatch()
	assert.False(t, ok)
}

func TestLogAnnotator_HighlightOverridesLevels(t *testing.T) {
	a := NewLogAnnotator()
	a.Render(logRecord("TMS_1", "ERROR disk full, disk gone"))

	require.Equal(t, 1, a.Search("DISK"))

	view := a.View()
	line := view.Lines[view.HeaderLines]
	assert.Equal(t, "ERROR disk full, disk gone", line.Text())
	assert.Equal(t, []m.SegmentStyle{m.StylePlain, m.StyleMatch, m.StylePlain, m.StyleMatch, m.StylePlain}, stylesOf(line))
}

func TestLogAnnotator_EmptyQueryRestoresPlainView(t *testing.T) {
	a := NewLogAnnotator()
	plain := a.Render(logRecord("TMS_1", "ERROR boom\nother"))

	require.Equal(t, 1, a.Search("boom"))
	assert.Equal(t, 0, a.Search(""))

	restored := a.View()
	assert.Equal(t, plain, restored)
	assert.Empty(t, restored.Matches)

	_, ok := a.NextMatch()
	assert.False(t, ok)
}

func TestLogAnnotator_HighlightedViewsAreNotCached(t *testing.T) {
	annotator := NewLogAnnotator()
	a, ok := annotator.(*logAnnotator)
	require.True(t, ok)

	a.Render(logRecord("TMS_1", "match me"))
	require.Equal(t, 1, a.Search("match"))

	cached := a.cache["TMS_1"].view
	for _, line := range cached.Lines {
		for _, s := range line.Segments {
			assert.NotEqual(t, m.StyleMatch, s.Style)
		}
	}
}

func TestLogAnnotator_LargeLogSkipsLevelColoring(t *testing.T) {
	filler := strings.Repeat("x", levelColoringLimit)
	a := NewLogAnnotator()
	view := a.Render(logRecord("TMS_1", "ERROR big\n"+filler))

	assert.Equal(t, []m.SegmentStyle{m.StylePlain}, stylesOf(view.Lines[view.HeaderLines]))

	require.Equal(t, 1, a.Search("big"))
	view = a.View()
	assert.Contains(t, stylesOf(view.Lines[view.HeaderLines]), m.StyleMatch)
}

func TestLogAnnotator_HeaderLineCount(t *testing.T) {
	tests := []struct {
		name   string
		record m.Record
		want   int
	}{
		{
			name:   "minimal with log",
			record: m.Record{Identifier: "TMS_1", ExecutionLog: "x"},
			// id, blank, test, path, status, blank, banner
			want: 7,
		},
		{
			name:   "no log",
			record: m.Record{Identifier: "TMS_1"},
			want:   5,
		},
		{
			name: "all fields",
			record: m.Record{
				Identifier:     "TMS_1",
				TrackerSummary: "Login works",
				Duration:       "1.2s",
				FailureText:    "AssertionError\nassert 1 == 2",
				TrackerSteps:   "- open page",
				ExecutionLog:   "x",
			},
			want: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewLogAnnotator().Render(tt.record)
			assert.Equal(t, tt.want, view.HeaderLines)
		})
	}
}

func TestLogAnnotator_HeaderContent(t *testing.T) {
	view := NewLogAnnotator().Render(m.Record{
		Identifier:     "TMS_42",
		Name:           "test_a",
		Path:           "t.py::test_a",
		Status:         m.StatusError,
		TrackerSummary: "Title here",
		ExecutionLog:   "x",
	})

	texts := make([]string, 0, view.HeaderLines)
	for _, line := range view.Lines[:view.HeaderLines] {
		texts = append(texts, line.Text())
	}

	assert.Equal(t, []string{
		"TMS-42",
		"",
		"Title: Title here",
		"Test: test_a",
		"Path: t.py::test_a",
		"Status: error",
		"",
		"Execution Log:",
	}, texts)
}

func TestLogAnnotator_AbsentLog(t *testing.T) {
	a := NewLogAnnotator()
	view := a.Render(m.Record{Identifier: "TMS_1", Status: m.StatusPassed})

	assert.Empty(t, view.Sections)
	assert.Equal(t, 0, a.Search("anything"))

	_, ok := a.JumpToSection("call")
	assert.False(t, ok)
}

func TestLogAnnotator_OperationsBeforeRender(t *testing.T) {
	a := NewLogAnnotator()

	assert.Equal(t, 0, a.Search("x"))
	_, ok := a.NextMatch()
	assert.False(t, ok)
	_, ok = a.JumpToSection("call")
	assert.False(t, ok)
}

func TestLogAnnotator_Deterministic(t *testing.T) {
	record := logRecord("TMS_1", "----- live log setup -----\nINFO a\n--- live log call ---\nERROR b")

	first := NewLogAnnotator()
	second := NewLogAnnotator()

	first.Render(record)
	second.Render(record)
	first.Search("b")
	second.Search("b")

	assert.Equal(t, len(first.View().Lines), len(second.View().Lines))
	assert.Equal(t, first.View().Sections, second.View().Sections)
	assert.Equal(t, first.View(), second.View())
}

func TestLogAnnotator_CacheIsBounded(t *testing.T) {
	annotator := NewLogAnnotator()
	a, ok := annotator.(*logAnnotator)
	require.True(t, ok)

	for i := range maxCachedViews + 50 {
		a.Render(logRecord(fmt.Sprintf("TMS_%d", i), "INFO x"))
	}

	assert.Len(t, a.cache, maxCachedViews)
	assert.Contains(t, a.cache, "TMS_0")
	assert.NotContains(t, a.cache, fmt.Sprintf("TMS_%d", maxCachedViews))

	view := a.Render(logRecord(fmt.Sprintf("TMS_%d", maxCachedViews+10), "INFO x"))
	assert.Equal(t, "INFO x", view.Lines[view.HeaderLines].Text())
}

func TestLogAnnotator_CacheInvalidatedWhenLogChanges(t *testing.T) {
	a := NewLogAnnotator()

	first := a.Render(logRecord("TMS_1", "old line"))
	assert.Equal(t, "old line", first.Lines[first.HeaderLines].Text())

	second := a.Render(logRecord("TMS_1", "new line"))
	assert.Equal(t, "new line", second.Lines[second.HeaderLines].Text())
}

func TestLogAnnotator_PreservesWhitespaceAndStripsCR(t *testing.T) {
	a := NewLogAnnotator()
	view := a.Render(logRecord("TMS_1", "  indented  \r\n\ttabbed"))

	assert.Equal(t, "  indented  ", view.Lines[view.HeaderLines].Text())
	assert.Equal(t, "\ttabbed", view.Lines[view.HeaderLines+1].Text())
}
