package adapter

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrEmptyURL is returned when there is nothing to open.
var ErrEmptyURL = errors.New("empty url")

// URLOpener opens a URL in the user's browser.
type URLOpener interface {
	Open(url string) error
}

// BrowserOpener starts the platform's URL handler.
type BrowserOpener struct {
	goos  string
	start func(name string, args ...string) error
}

// NewBrowserOpener creates an opener for the running platform.
func NewBrowserOpener() *BrowserOpener {
	return &BrowserOpener{
		goos: runtime.GOOS,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Open launches url without waiting for the handler to exit.
func (o *BrowserOpener) Open(url string) error {
	if url == "" {
		return ErrEmptyURL
	}

	name, args := openCommand(o.goos, url)
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}

	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
