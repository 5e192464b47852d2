package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

func TestLoadTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("failed: \"#ff0000\"\nlevels:\n  warn: \"3\"\n"), 0o600))

	theme, err := LoadTheme(path)
	require.NoError(t, err)

	defaults := DefaultTheme()
	assert.Equal(t, "#ff0000", theme.Failed)
	assert.Equal(t, "3", theme.Levels.Warn)
	assert.Equal(t, defaults.Passed, theme.Passed)
	assert.Equal(t, defaults.Levels.Error, theme.Levels.Error)
}

func TestLoadTheme_Errors(t *testing.T) {
	_, err := LoadTheme(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("failed: [unclosed"), 0o600))

	theme, err := LoadTheme(path)
	require.Error(t, err)
	assert.Equal(t, DefaultTheme(), theme)
}

func TestStyles_RenderLineKeepsText(t *testing.T) {
	s := newStyles(DefaultTheme())

	line := m.LogLine{Segments: []m.Segment{
		{Text: "12:00 ", Style: m.StylePlain},
		{Text: "ERROR", Style: m.StyleError},
		{Text: " boom", Style: m.StylePlain},
	}}

	rendered := s.renderLine(line)
	assert.Contains(t, rendered, "12:00 ")
	assert.Contains(t, rendered, "ERROR")
	assert.Contains(t, rendered, " boom")

	for _, style := range []m.SegmentStyle{m.StyleIdentifier, m.StyleMatch, m.StyleFatal, m.StyleSection} {
		_, ok := s.segments[style]
		assert.True(t, ok)
	}
}
