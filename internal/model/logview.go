package model

// SegmentStyle identifies how a piece of rendered text should be displayed.
type SegmentStyle int

// Available segment styles.
const (
	StylePlain SegmentStyle = iota
	StyleIdentifier
	StyleLabel
	StyleStatus
	StyleFailureBanner
	StyleStepsBanner
	StyleLogBanner
	StyleSection
	StyleFatal
	StyleError
	StyleWarn
	StyleInfo
	StyleDebug
	StyleTrace
	StyleMatch
)

// Segment is a run of text sharing one style.
type Segment struct {
	Text  string
	Style SegmentStyle
}

// LogLine is one rendered output line.
type LogLine struct {
	Segments []Segment
}

// Text returns the line without styling.
func (l LogLine) Text() string {
	if len(l.Segments) == 1 {
		return l.Segments[0].Text
	}

	n := 0
	for _, s := range l.Segments {
		n += len(s.Text)
	}

	buf := make([]byte, 0, n)
	for _, s := range l.Segments {
		buf = append(buf, s.Text...)
	}

	return string(buf)
}

// LogView is the rendered, navigable view of one record.
type LogView struct {
	Identifier  string
	Lines       []LogLine
	HeaderLines int
	Sections    map[string]int
	Matches     []int
}

// Section names recognized in execution logs.
const (
	SectionSetup    = "setup"
	SectionCall     = "call"
	SectionTeardown = "teardown"
)
