package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown format")

// Output format names.
const (
	FormatRaw      = "raw"
	FormatPytest   = "pytest"
	FormatNames    = "names"
	FormatFull     = "full"
	FormatDetailed = "detailed"
	FormatJira     = "jira"
	FormatJiraMD   = "jira-md"
	FormatWiki     = "wiki"
	FormatGrouped  = "grouped"
	FormatTable    = "table"
	FormatJSON     = "json"
)

// DefaultRerunTemplate is the rerun command used when none is configured.
const DefaultRerunTemplate = `pytest -k "{tests}"`

const detailSeparatorWidth = 80

// Formatter renders records as text.
type Formatter interface {
	Format(records []m.Record) string
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(records []m.Record) string

// Format calls f(records).
func (f FormatterFunc) Format(records []m.Record) string {
	return f(records)
}

// FormatterOptions configure NewFormatter.
type FormatterOptions struct {
	TrackerURL string
	Group      bool
}

// AvailableFormats lists the supported format names in display order.
func AvailableFormats() []string {
	return []string{
		FormatRaw, FormatPytest, FormatNames, FormatFull, FormatDetailed,
		FormatJira, FormatJiraMD, FormatWiki, FormatGrouped, FormatTable, FormatJSON,
	}
}

// NeedsTracker reports whether a format shows tracker data.
func NeedsTracker(format string) bool {
	switch strings.ToLower(format) {
	case FormatJiraMD, FormatWiki, FormatTable, FormatJSON:
		return true
	}

	return false
}

// NewFormatter returns the formatter for name, wrapped in reason groups if requested.
func NewFormatter(name string, opts FormatterOptions) (Formatter, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	formatter := lookupFormatter(key, opts.TrackerURL)
	if formatter == nil {
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownFormat, name, strings.Join(AvailableFormats(), ", "))
	}

	if opts.Group {
		return groupedByReason(key, formatter), nil
	}

	return formatter, nil
}

func lookupFormatter(key, trackerURL string) Formatter {
	switch key {
	case FormatRaw:
		return joinFormatter(", ", func(r m.Record) string { return r.Identifier })
	case FormatPytest:
		return joinFormatter(" or ", func(r m.Record) string { return r.Identifier })
	case FormatNames:
		return joinFormatter(", ", func(r m.Record) string { return r.Name })
	case FormatFull:
		return joinFormatter("\n", func(r m.Record) string { return r.Path })
	case FormatDetailed:
		return FormatterFunc(formatDetailed)
	case FormatJira:
		return joinFormatter("\n", func(r m.Record) string { return r.BrowseURL(trackerURL) })
	case FormatJiraMD:
		return joinFormatter("\n", func(r m.Record) string {
			return fmt.Sprintf("- [%s](%s)", linkTitle(r), r.BrowseURL(trackerURL))
		})
	case FormatWiki:
		return joinFormatter("\n", func(r m.Record) string {
			return fmt.Sprintf("[%s|%s]", linkTitle(r), r.BrowseURL(trackerURL))
		})
	case FormatGrouped:
		return FormatterFunc(formatGrouped)
	case FormatTable:
		return FormatterFunc(formatTable)
	case FormatJSON:
		return FormatterFunc(formatJSON)
	}

	return nil
}

func joinFormatter(sep string, field func(m.Record) string) Formatter {
	return FormatterFunc(func(records []m.Record) string {
		parts := make([]string, 0, len(records))
		for _, r := range records {
			parts = append(parts, field(r))
		}

		return strings.Join(parts, sep)
	})
}

func linkTitle(r m.Record) string {
	if r.TrackerSummary == "" {
		return r.TrackerKey()
	}

	return r.TrackerKey() + ": " + r.TrackerSummary
}

func formatDetailed(records []m.Record) string {
	separator := strings.Repeat("-", detailSeparatorWidth)

	var lines []string

	for i, r := range records {
		if i > 0 {
			lines = append(lines, "")
		}

		lines = append(lines,
			separator,
			"TMS:      "+r.Identifier,
			"Status:   "+r.Status.String(),
			"Test:     "+r.Name,
		)

		if r.FailureText != "" {
			lines = append(lines, "Reason:")
			for _, line := range strings.Split(r.FailureText, "\n") {
				lines = append(lines, "  "+line)
			}
		}
	}

	if len(lines) > 0 {
		lines = append(lines, separator)
	}

	return strings.Join(lines, "\n")
}

func listByName(records []m.Record) []string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("  - %s: %s", r.Identifier, r.Name))
	}

	return lines
}

func formatGrouped(records []m.Record) string {
	var lines []string

	for _, group := range GroupByReason(records) {
		lines = append(lines, fmt.Sprintf("[%d tests] %s", len(group.Records), group.Reason))
		lines = append(lines, listByName(group.Records)...)
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \n")
}

func groupedByReason(key string, inner Formatter) Formatter {
	return FormatterFunc(func(records []m.Record) string {
		var lines []string

		for _, group := range GroupByReason(records) {
			lines = append(lines, fmt.Sprintf("### [%d tests] %s", len(group.Records), group.Reason), "")

			if key == FormatGrouped {
				lines = append(lines, listByName(group.Records)...)
			} else {
				for _, line := range strings.Split(inner.Format(group.Records), "\n") {
					if line != "" {
						lines = append(lines, "  "+line)
					}
				}
			}

			lines = append(lines, "")
		}

		return strings.TrimRight(strings.Join(lines, "\n"), " \n")
	})
}

func formatTable(records []m.Record) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"ID", "Status", "Test", "Duration"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
	})

	for _, r := range records {
		table.Append([]string{r.Identifier, r.Status.String(), r.Name, r.Duration})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(records)), "", "", ""})
	table.Render()

	return strings.TrimRight(buf.String(), "\n")
}

func formatJSON(records []m.Record) string {
	if records == nil {
		records = []m.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		slog.Error("failed to encode records", "error", err)
		return ""
	}

	return string(data)
}

// FormatRerun substitutes the test names joined by " or " into template's {tests}.
func FormatRerun(template string, records []m.Record) string {
	if len(records) == 0 {
		return "# No tests to rerun"
	}

	if template == "" {
		template = DefaultRerunTemplate
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}

	return strings.ReplaceAll(template, "{tests}", strings.Join(names, " or "))
}
