package controller

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// Theme holds the browser colors. Values are lipgloss colors: ANSI numbers
// ("9") or hex ("#ff5f5f"). Empty values keep the terminal default.
type Theme struct {
	Identifier string `yaml:"identifier"`
	Label      string `yaml:"label"`
	Banner     string `yaml:"banner"`
	Section    string `yaml:"section"`
	Match      string `yaml:"match"`
	Selected   string `yaml:"selected"`
	Muted      string `yaml:"muted"`
	Border     string `yaml:"border"`

	Passed  string `yaml:"passed"`
	Failed  string `yaml:"failed"`
	Skipped string `yaml:"skipped"`
	Error   string `yaml:"error"`
	Other   string `yaml:"other"`

	Levels LevelColors `yaml:"levels"`
}

// LevelColors colors log level tokens.
type LevelColors struct {
	Fatal string `yaml:"fatal"`
	Error string `yaml:"error"`
	Warn  string `yaml:"warn"`
	Info  string `yaml:"info"`
	Debug string `yaml:"debug"`
	Trace string `yaml:"trace"`
}

// DefaultTheme returns the built-in colors.
func DefaultTheme() Theme {
	return Theme{
		Identifier: "14",
		Label:      "12",
		Banner:     "11",
		Section:    "13",
		Match:      "11",
		Selected:   "237",
		Muted:      "8",
		Border:     "240",
		Passed:     "10",
		Failed:     "9",
		Skipped:    "11",
		Error:      "13",
		Other:      "6",
		Levels: LevelColors{
			Fatal: "9",
			Error: "9",
			Warn:  "11",
			Info:  "12",
			Debug: "8",
			Trace: "8",
		},
	}
}

// LoadTheme reads a YAML theme file. Keys missing from the file keep their defaults.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()

	data, err := os.ReadFile(path)
	if err != nil {
		return theme, fmt.Errorf("read theme: %w", err)
	}

	if err := yaml.Unmarshal(data, &theme); err != nil {
		return DefaultTheme(), fmt.Errorf("parse theme %s: %w", path, err)
	}

	return theme, nil
}

// styles is a Theme compiled into lipgloss styles.
type styles struct {
	segments map[m.SegmentStyle]lipgloss.Style
	statuses map[m.Status]lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	border   lipgloss.Style
	focused  lipgloss.Style
}

func fg(color string) lipgloss.Style {
	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(lipgloss.Color(color))
	}

	return style
}

func newStyles(theme Theme) styles {
	banner := fg(theme.Banner).Bold(true)

	segments := map[m.SegmentStyle]lipgloss.Style{
		m.StylePlain:         lipgloss.NewStyle(),
		m.StyleIdentifier:    fg(theme.Identifier).Bold(true),
		m.StyleLabel:         fg(theme.Label).Bold(true),
		m.StyleStatus:        lipgloss.NewStyle().Bold(true),
		m.StyleFailureBanner: fg(theme.Failed).Bold(true),
		m.StyleStepsBanner:   banner,
		m.StyleLogBanner:     banner,
		m.StyleSection:       fg(theme.Section).Bold(true).Underline(true),
		m.StyleFatal:         fg(theme.Levels.Fatal).Bold(true).Reverse(true),
		m.StyleError:         fg(theme.Levels.Error).Bold(true),
		m.StyleWarn:          fg(theme.Levels.Warn),
		m.StyleInfo:          fg(theme.Levels.Info),
		m.StyleDebug:         fg(theme.Levels.Debug).Faint(true),
		m.StyleTrace:         fg(theme.Levels.Trace).Faint(true),
		m.StyleMatch:         lipgloss.NewStyle().Reverse(true).Bold(true),
	}

	if theme.Match != "" {
		segments[m.StyleMatch] = lipgloss.NewStyle().
			Background(lipgloss.Color(theme.Match)).
			Foreground(lipgloss.Color("0")).
			Bold(true)
	}

	statuses := map[m.Status]lipgloss.Style{
		m.StatusPassed:  fg(theme.Passed),
		m.StatusFailed:  fg(theme.Failed),
		m.StatusSkipped: fg(theme.Skipped),
		m.StatusError:   fg(theme.Error),
		m.StatusXFailed: fg(theme.Other),
		m.StatusXPassed: fg(theme.Other),
		m.StatusRerun:   fg(theme.Other),
	}

	selected := lipgloss.NewStyle().Bold(true)
	if theme.Selected != "" {
		selected = selected.Background(lipgloss.Color(theme.Selected))
	}

	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	if theme.Border != "" {
		border = border.BorderForeground(lipgloss.Color(theme.Border))
	}

	return styles{
		segments: segments,
		statuses: statuses,
		selected: selected,
		muted:    fg(theme.Muted),
		border:   border,
		focused:  border.BorderForeground(lipgloss.Color(theme.Identifier)),
	}
}

// renderLine applies segment styles to one view line.
func (s styles) renderLine(line m.LogLine) string {
	var b strings.Builder

	for _, seg := range line.Segments {
		style, ok := s.segments[seg.Style]
		if !ok || seg.Style == m.StylePlain {
			b.WriteString(seg.Text)
			continue
		}

		b.WriteString(style.Render(seg.Text))
	}

	return b.String()
}

// renderView renders every line of a view.
func (s styles) renderView(view m.LogView) string {
	lines := make([]string, len(view.Lines))
	for i, line := range view.Lines {
		lines[i] = s.renderLine(line)
	}

	return strings.Join(lines, "\n")
}

func (s styles) status(st m.Status) lipgloss.Style {
	if style, ok := s.statuses[st]; ok {
		return style
	}

	return lipgloss.NewStyle()
}
