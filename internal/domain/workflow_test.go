package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"reportminer.dev/pkg/reportminer/internal/adapter"
	"reportminer.dev/pkg/reportminer/internal/domain"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

type workflowDeps struct {
	extractor *mockExtractor
	tracker   *mockTracker
	cache     *mockCache
	store     *mockStore
	clipboard *mockClipboard
	opener    *mockOpener
	ui        *recordingUI
}

func newTestWorkflow(t *testing.T) (domain.Workflow, *workflowDeps) {
	t.Helper()

	deps := &workflowDeps{
		extractor: &mockExtractor{},
		tracker:   &mockTracker{},
		cache:     &mockCache{},
		store:     &mockStore{},
		clipboard: &mockClipboard{},
		opener:    &mockOpener{},
		ui:        &recordingUI{},
	}

	deps.tracker.On("BaseURL").Return("https://jira.example.com").Maybe()

	wf := domain.NewWorkflow(
		deps.extractor,
		deps.tracker,
		deps.cache,
		deps.store,
		deps.clipboard,
		deps.opener,
		deps.ui,
		domain.NewEnricher(deps.tracker, 2),
		domain.NewComparator(),
	)

	return wf, deps
}

func (d *workflowDeps) expectReport(path m.Path, records []m.Record) {
	files := []m.Path{path}
	d.extractor.On("Collect", []m.Path{path}).Return(files, nil).Once()
	d.extractor.On("Extract", mock.Anything, files, mock.Anything).Return(records, nil).Once()
}

func extractRecords() []m.Record {
	return []m.Record{
		{Identifier: "TMS_3", Name: "test_c", Status: m.StatusFailed, FailureText: "boom"},
		{Identifier: "TMS_1", Name: "test_a", Status: m.StatusFailed},
		{Identifier: "TMS_3", Name: "test_c", Status: m.StatusFailed},
		{Identifier: "TMS_2", Name: "test_b", Status: m.StatusPassed},
	}
}

func TestWorkflow_Extract(t *testing.T) {
	tests := []struct {
		name string
		args domain.ExtractArgs
		want string
	}{
		{
			name: "unique failed raw",
			args: domain.ExtractArgs{Format: "raw", Status: "failed", Unique: true},
			want: "TMS_3, TMS_1",
		},
		{
			name: "sorted pytest with duplicates",
			args: domain.ExtractArgs{Format: "pytest", Status: "failed", Sort: true},
			want: "TMS_1 or TMS_3 or TMS_3",
		},
		{
			name: "all statuses names",
			args: domain.ExtractArgs{Format: "names", Status: "all", Unique: true, Sort: true},
			want: "test_a, test_b, test_c",
		},
		{
			name: "rerun",
			args: domain.ExtractArgs{Status: "failed", Unique: true, Rerun: true, RerunTemplate: "pytest -k '{tests}'"},
			want: "pytest -k 'test_c or test_a'",
		},
		{
			name: "count",
			args: domain.ExtractArgs{Status: "all", Unique: true, Count: true},
			want: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, deps := newTestWorkflow(t)
			tt.args.Paths = []m.Path{"report.html"}
			deps.expectReport("report.html", extractRecords())

			require.NoError(t, wf.Extract(context.Background(), tt.args))

			assert.Equal(t, []string{tt.want}, deps.ui.results)
			assert.Len(t, deps.ui.finished, 1)
			deps.extractor.AssertExpectations(t)
		})
	}
}

func TestWorkflow_ExtractCountSummary(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())

	err := wf.Extract(context.Background(), domain.ExtractArgs{
		Paths: []m.Path{"report.html"}, Status: "all", Count: true, Summary: true,
	})
	require.NoError(t, err)

	require.Len(t, deps.ui.counts, 1)
	assert.Equal(t, 3, deps.ui.counts[0].Of(m.StatusFailed))
	assert.Equal(t, 1, deps.ui.counts[0].Of(m.StatusPassed))
}

func TestWorkflow_ExtractNoMatches(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())

	err := wf.Extract(context.Background(), domain.ExtractArgs{
		Paths: []m.Path{"report.html"}, Format: "raw", Status: "skipped",
	})
	require.NoError(t, err)

	assert.Empty(t, deps.ui.results)
	assert.Equal(t, []string{"No tests found matching criteria."}, deps.ui.notices)
}

func TestWorkflow_ExtractErrors(t *testing.T) {
	t.Run("unknown format fails before reading", func(t *testing.T) {
		wf, deps := newTestWorkflow(t)

		err := wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"r.html"}, Format: "xml", Status: "all"})
		require.ErrorIs(t, err, domain.ErrUnknownFormat)
		deps.extractor.AssertNotCalled(t, "Collect", mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		wf, deps := newTestWorkflow(t)
		deps.expectReport("r.html", extractRecords())

		err := wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"r.html"}, Format: "raw", Status: "nope"})
		require.ErrorIs(t, err, m.ErrUnknownStatus)
	})

	t.Run("collect failure", func(t *testing.T) {
		wf, deps := newTestWorkflow(t)
		deps.extractor.On("Collect", mock.Anything).Return(nil, adapter.ErrNoReports)

		err := wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"dir"}, Format: "raw", Status: "all"})
		require.ErrorIs(t, err, adapter.ErrNoReports)
	})

	t.Run("extract failure closes the ui", func(t *testing.T) {
		wf, deps := newTestWorkflow(t)
		deps.extractor.On("Collect", mock.Anything).Return([]m.Path{"bad.html"}, nil)
		deps.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(nil, adapter.ErrNoDataContainer)

		err := wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"bad.html"}, Format: "raw", Status: "all"})
		require.ErrorIs(t, err, adapter.ErrNoDataContainer)
		assert.Equal(t, 1, deps.ui.closed)
	})

	t.Run("write failure closes the ui", func(t *testing.T) {
		wf, deps := newTestWorkflow(t)
		deps.expectReport("report.html", extractRecords())
		deps.store.On("WriteResults", m.Path("out.txt"), mock.Anything).Return(errors.New("read-only")).Once()

		err := wf.Extract(context.Background(), domain.ExtractArgs{
			Paths: []m.Path{"report.html"}, Format: "raw", Status: "all", Output: "out.txt",
		})
		require.ErrorContains(t, err, "write results")
		assert.Equal(t, 1, deps.ui.closed)
		assert.Empty(t, deps.ui.results)
	})
}

func TestWorkflow_ExtractEnrichesTrackerFormats(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", []m.Record{{Identifier: "TMS_1", Name: "test_a", Status: m.StatusFailed}})
	deps.tracker.On("Configured").Return(true)
	deps.tracker.On("FetchIssue", mock.Anything, "TMS-1").Return(m.TrackerIssue{Key: "TMS-1", Summary: "Login"}, true, nil).Once()

	err := wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"report.html"}, Format: "jira-md", Status: "failed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"- [TMS-1: Login](https://jira.example.com/browse/TMS-1)"}, deps.ui.results)
	assert.Contains(t, deps.ui.finished, "Fetched 1/1 tracker issues")
	deps.tracker.AssertExpectations(t)
}

func TestWorkflow_ExtractSkipsEnrichmentForPlainFormats(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())

	require.NoError(t, wf.Extract(context.Background(), domain.ExtractArgs{Paths: []m.Path{"report.html"}, Format: "raw", Status: "all"}))

	deps.tracker.AssertNotCalled(t, "Configured")
	deps.tracker.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything)
}

func TestWorkflow_ExtractCopyAndOutput(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())
	deps.clipboard.On("Copy", "TMS_3, TMS_1").Return(nil).Once()
	deps.store.On("WriteResults", m.Path("out.txt"), "TMS_3, TMS_1").Return(nil).Once()

	err := wf.Extract(context.Background(), domain.ExtractArgs{
		Paths: []m.Path{"report.html"}, Format: "raw", Status: "failed", Unique: true,
		Copy: true, Output: "out.txt",
	})
	require.NoError(t, err)

	assert.Empty(t, deps.ui.results)
	assert.Equal(t, []string{"Copied to clipboard", "Results written to out.txt"}, deps.ui.notices)
	assert.Equal(t, 2, deps.ui.started)
	deps.clipboard.AssertExpectations(t)
	deps.store.AssertExpectations(t)
}

func TestWorkflow_CopyFailureIsNotFatal(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())
	deps.clipboard.On("Copy", mock.Anything).Return(adapter.ErrClipboardUnavailable)

	err := wf.Extract(context.Background(), domain.ExtractArgs{
		Paths: []m.Path{"report.html"}, Format: "raw", Status: "passed", Copy: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"TMS_2"}, deps.ui.results)
	require.Len(t, deps.ui.notices, 1)
	assert.Contains(t, deps.ui.notices[0], "Could not copy")
}

func TestWorkflow_Diff(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("old.html", []m.Record{
		{Identifier: "TMS_1", Name: "test_a", Status: m.StatusPassed},
		{Identifier: "TMS_2", Name: "test_b", Status: m.StatusFailed},
	})
	deps.expectReport("new.html", []m.Record{
		{Identifier: "TMS_1", Name: "test_a", Status: m.StatusFailed, FailureText: "boom"},
		{Identifier: "TMS_2", Name: "test_b", Status: m.StatusPassed},
	})

	require.NoError(t, wf.Diff(context.Background(), domain.DiffArgs{Old: "old.html", New: "new.html"}))

	require.Len(t, deps.ui.results, 1)
	assert.Contains(t, deps.ui.results[0], "NEW FAILURES (1):\n  - TMS_1: test_a\n    boom")
	assert.Contains(t, deps.ui.results[0], "FIXED (1):\n  + TMS_2: test_b")
}

func TestWorkflow_DiffErrors(t *testing.T) {
	wf, deps := newTestWorkflow(t)

	require.ErrorIs(t, wf.Diff(context.Background(), domain.DiffArgs{Old: "old.html"}), domain.ErrMissingReport)

	deps.extractor.On("Collect", []m.Path{"old.html"}).Return(nil, adapter.ErrNotHTML)

	err := wf.Diff(context.Background(), domain.DiffArgs{Old: "old.html", New: "new.html"})
	require.ErrorIs(t, err, adapter.ErrNotHTML)
	assert.Contains(t, err.Error(), "load old report")
}

func TestWorkflow_View(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", extractRecords())
	deps.tracker.On("Configured").Return(false)

	require.NoError(t, wf.View(context.Background(), domain.ViewArgs{Paths: []m.Path{"report.html"}}))

	assert.Equal(t, []string{"TMS_3", "TMS_1", "TMS_2"}, ids(deps.ui.browsed))
	assert.NotNil(t, deps.ui.options.Annotator)
	assert.NotNil(t, deps.ui.options.Matches)
	assert.Equal(t, "https://jira.example.com", deps.ui.options.TrackerURL)
	assert.Same(t, deps.clipboard, deps.ui.options.Clipboard)
}

func TestWorkflow_ViewEmpty(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.expectReport("report.html", nil)

	require.NoError(t, wf.View(context.Background(), domain.ViewArgs{Paths: []m.Path{"report.html"}}))

	assert.Nil(t, deps.ui.browsed)
	assert.Equal(t, []string{"No tests found."}, deps.ui.notices)
}

func TestWorkflow_ClearCache(t *testing.T) {
	wf, deps := newTestWorkflow(t)
	deps.cache.On("Clear").Return(7, nil).Once()

	require.NoError(t, wf.ClearCache(context.Background()))
	assert.Equal(t, []string{"Cleared 7 cached responses"}, deps.ui.results)

	deps.cache.On("Clear").Return(0, errors.New("locked")).Once()
	require.Error(t, wf.ClearCache(context.Background()))
}
