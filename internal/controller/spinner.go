package controller

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"
)

// Spinner styles selectable through configuration.
const (
	SpinnerUnicode = "unicode"
	SpinnerASCII   = "ascii"
)

const (
	spinnerInterval = 100 * time.Millisecond
	clearLine       = "\r\033[K"
)

var spinnerFrames = map[string][]string{
	SpinnerUnicode: {".", "*", "✶", "✴", "✳", "✺", "✹", "✵"},
	SpinnerASCII:   {".", "o", "O", "@", "*", ".", "o", "O"},
}

var checkMarks = map[string]string{
	SpinnerUnicode: "✓",
	SpinnerASCII:   "+",
}

var loadingPhrases = []string{
	"Reading reports",
	"Digging through test runs",
	"Unpacking results",
	"Collecting outcomes",
	"Sifting through logs",
}

var writingPhrases = []string{
	"Formatting results",
	"Assembling output",
	"Polishing the list",
	"Lining things up",
}

// spinner draws a single status line that is redrawn in place.
type spinner struct {
	out      io.Writer
	frames   []string
	check    string
	interval time.Duration

	mu       sync.Mutex
	label    string
	progress string
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

func newSpinner(out io.Writer, style string) *spinner {
	frames, ok := spinnerFrames[style]
	if !ok {
		style = SpinnerUnicode
		frames = spinnerFrames[style]
	}

	return &spinner{
		out:      out,
		frames:   frames,
		check:    checkMarks[style],
		interval: spinnerInterval,
	}
}

func pickPhrase(mode StartMode) string {
	phrases := loadingPhrases
	if mode == ModeWriting {
		phrases = writingPhrases
	}

	return phrases[rand.IntN(len(phrases))]
}

// frame returns the frame for a tick. The first frame only opens the first cycle.
func (s *spinner) frame(tick int) string {
	if tick < len(s.frames) || len(s.frames) < 2 {
		return s.frames[tick%len(s.frames)]
	}

	rest := len(s.frames) - 1

	return s.frames[1+(tick-1)%rest]
}

func (s *spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = label
	s.progress = ""

	if s.running {
		return
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
}

func (s *spinner) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		s.draw(tick)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *spinner) draw(tick int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.frame(tick) + " " + s.label
	if s.progress != "" {
		line += " " + s.progress
	}

	_, _ = fmt.Fprint(s.out, clearLine+line)
}

// Update sets the (current/total) counter shown after the label.
func (s *spinner) Update(current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= 0 {
		s.progress = ""
		return
	}

	if current >= total {
		current = total - 1
	}

	s.progress = fmt.Sprintf("(%d/%d)", current+1, total)
}

// Stop clears the spinner line and prints message behind a check mark when set.
func (s *spinner) Stop(message string) {
	s.mu.Lock()
	running := s.running
	stop, done := s.stop, s.done
	s.running = false
	s.mu.Unlock()

	if running {
		close(stop)
		<-done
		_, _ = fmt.Fprint(s.out, clearLine)
	}

	if message != "" {
		_, _ = fmt.Fprintf(s.out, "%s %s\n", s.check, message)
	}
}
