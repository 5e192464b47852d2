// Package controller presents reportminer results on the terminal.
package controller

import (
	"context"
	"errors"
	"os"

	"golang.org/x/term"
	"reportminer.dev/pkg/reportminer/internal/adapter"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// ErrNotInteractive is returned when the browser is requested without a terminal.
var ErrNotInteractive = errors.New("interactive browser requires a terminal")

// StartMode selects the phrases shown by the progress spinner.
type StartMode int

// Available StartMode values.
const (
	ModeLoading StartMode = iota
	ModeWriting
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode  StartMode
	label string
}

// WithLoadingMode shows loading phrases while reports are read.
func WithLoadingMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeLoading
	}
}

// WithWritingMode shows writing phrases while output is produced.
func WithWritingMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeWriting
	}
}

// WithLabel replaces the random phrase with a fixed label.
func WithLabel(label string) StartOption {
	return func(c *StartConfig) {
		c.label = label
	}
}

func newStartConfig(options []StartOption) StartConfig {
	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// Annotator renders records for the detail pane and searches their logs.
type Annotator interface {
	Render(record m.Record) m.LogView
	View() m.LogView
	JumpToSection(name string) (int, bool)
	Search(query string) int
	NextMatch() (int, bool)
	PrevMatch() (int, bool)
	CurrentMatch() (index int, line int, ok bool)
}

// BrowseOptions carries the collaborators of the interactive browser.
type BrowseOptions struct {
	Annotator  Annotator
	Matches    func(record m.Record, query string) bool
	Clipboard  adapter.Clipboard
	Opener     adapter.URLOpener
	TrackerURL string
	Theme      Theme
}

// UI defines how workflow results reach the user.
// Implementations can use different output methods (plain text, spinner, TUI).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Progress(ctx context.Context) m.ProgressFunc
	Finish(ctx context.Context, message string)
	Close(ctx context.Context)
	DisplayResults(ctx context.Context, text string)
	DisplayNotice(ctx context.Context, message string)
	DisplayCounts(ctx context.Context, counts m.Counts)
	Browse(ctx context.Context, records []m.Record, options BrowseOptions) error
}

// Terminal records which output streams are attached to a terminal.
type Terminal struct {
	Stdout bool
	Stderr bool
}

// DetectTerminal inspects the process stdout and stderr.
func DetectTerminal() Terminal {
	return Terminal{Stdout: IsTTY(os.Stdout), Stderr: IsTTY(os.Stderr)}
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
