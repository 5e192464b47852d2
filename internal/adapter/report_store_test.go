package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

func TestLocalResultStore_WriteResults(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "adds newline", text: "TMS_1, TMS_2", want: "TMS_1, TMS_2\n"},
		{name: "keeps newline", text: "a\nb\n", want: "a\nb\n"},
		{name: "empty", text: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "nested", "results.txt")

			require.NoError(t, NewResultStore().WriteResults(m.Path(path), tt.text))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestLocalResultStore_EmptyPath(t *testing.T) {
	err := NewResultStore().WriteResults("", "x")
	require.ErrorIs(t, err, os.ErrInvalid)
}
