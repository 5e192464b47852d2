package controller

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// SimpleUI implements UI using cobra Command's output streams.
// Results go to stdout; notices and the spinner go to stderr.
type SimpleUI struct {
	cmd         *cobra.Command
	interactive bool
	spinner     *spinner
}

// NewSimpleUI creates a SimpleUI without spinner or browser.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// NewUI creates the UI for the current terminal. The spinner is drawn when
// stderr is a terminal and the browser needs stdout to be one.
func NewUI(cmd *cobra.Command, terminal Terminal, spinnerStyle string) UI {
	ui := NewSimpleUI(cmd)
	ui.interactive = terminal.Stdout

	if terminal.Stderr {
		ui.spinner = newSpinner(cmd.ErrOrStderr(), spinnerStyle)
	}

	return ui
}

// Start shows the spinner when one is attached.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.spinner == nil {
		return nil
	}

	cfg := newStartConfig(options)

	label := cfg.label
	if label == "" {
		label = pickPhrase(cfg.mode)
	}

	s.spinner.Start(label)

	return nil
}

// Progress returns a callback that feeds the spinner counter.
func (s *SimpleUI) Progress(_ context.Context) m.ProgressFunc {
	return func(current, total int, item string) {
		slog.Debug("progress", "current", current, "total", total, "item", item)

		if s.spinner != nil {
			s.spinner.Update(current, total)
		}
	}
}

// Finish stops the spinner and confirms completion with message.
func (s *SimpleUI) Finish(_ context.Context, message string) {
	if s.spinner != nil {
		s.spinner.Stop(message)
	}
}

// Close stops the spinner without a message.
func (s *SimpleUI) Close(_ context.Context) {
	if s.spinner != nil {
		s.spinner.Stop("")
	}
}

// DisplayResults prints text followed by a newline.
func (s *SimpleUI) DisplayResults(ctx context.Context, text string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", text)
}

// DisplayNotice prints an informational message on stderr.
func (s *SimpleUI) DisplayNotice(ctx context.Context, message string) {
	if err := ctx.Err(); err != nil {
		return
	}

	_, _ = fmt.Fprintln(s.cmd.ErrOrStderr(), message)
}

// DisplayCounts prints a per-status summary table.
func (s *SimpleUI) DisplayCounts(ctx context.Context, counts m.Counts) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s", renderCountsTable(counts))
}

func renderCountsTable(counts m.Counts) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Status", "Tests"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, status := range m.Statuses() {
		n := counts.Of(status)
		if n == 0 {
			continue
		}

		table.Append([]string{status.String(), strconv.Itoa(n)})
	}

	table.SetFooter([]string{"Total", strconv.Itoa(counts.Total)})
	table.Render()

	return tableBuffer.String()
}

// Browse runs the interactive browser until the user quits.
func (s *SimpleUI) Browse(ctx context.Context, records []m.Record, options BrowseOptions) error {
	if !s.interactive {
		return ErrNotInteractive
	}

	program := tea.NewProgram(
		newBrowserModel(records, options),
		tea.WithContext(ctx),
		tea.WithOutput(s.cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
