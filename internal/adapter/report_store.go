package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	m "reportminer.dev/pkg/reportminer/internal/model"
)

// ResultStore persists formatted command output.
type ResultStore interface {
	WriteResults(path m.Path, text string) error
}

// LocalResultStore writes results to the local filesystem.
type LocalResultStore struct{}

// NewResultStore creates a LocalResultStore.
func NewResultStore() *LocalResultStore {
	return &LocalResultStore{}
}

// WriteResults writes text to path, creating parent directories. A trailing
// newline is added when missing.
func (s *LocalResultStore) WriteResults(path m.Path, text string) error {
	target := string(path)
	if target == "" {
		return fmt.Errorf("write results: %w", os.ErrInvalid)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if text != "" && text[len(text)-1] != '\n' {
		text += "\n"
	}

	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write results to %s: %w", target, err)
	}

	return nil
}
