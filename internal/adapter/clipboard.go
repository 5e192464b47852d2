package adapter

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard utility is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard copies text to the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard uses the platform clipboard utilities.
type SystemClipboard struct {
	unsupported bool
	write       func(string) error
}

// NewSystemClipboard creates a clipboard backed by xclip/xsel/pbcopy/clip.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{
		unsupported: clipboard.Unsupported,
		write:       clipboard.WriteAll,
	}
}

// Copy writes text to the clipboard.
func (c *SystemClipboard) Copy(text string) error {
	if c.unsupported {
		return ErrClipboardUnavailable
	}

	if err := c.write(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	return nil
}
