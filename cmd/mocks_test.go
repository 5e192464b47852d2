package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
	"reportminer.dev/pkg/reportminer/internal/domain"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Extract(ctx context.Context, args domain.ExtractArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) Diff(ctx context.Context, args domain.DiffArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) ClearCache(ctx context.Context) error {
	return w.Called(ctx).Error(0)
}

// useWorkflow swaps the workflow factory for the duration of the test.
func useWorkflow(t *testing.T, wf domain.Workflow) {
	t.Helper()

	original := newWorkflow
	newWorkflow = func(*cobra.Command) (domain.Workflow, func(), error) {
		return wf, func() {}, nil
	}

	t.Cleanup(func() { newWorkflow = original })
}
