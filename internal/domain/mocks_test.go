package domain_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"reportminer.dev/pkg/reportminer/internal/controller"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

type mockTracker struct {
	mock.Mock
}

func (t *mockTracker) Configured() bool {
	return t.Called().Bool(0)
}

func (t *mockTracker) FetchIssue(ctx context.Context, key string) (m.TrackerIssue, bool, error) {
	args := t.Called(ctx, key)
	return args.Get(0).(m.TrackerIssue), args.Bool(1), args.Error(2)
}

func (t *mockTracker) BaseURL() string {
	return t.Called().String(0)
}

type mockExtractor struct {
	mock.Mock
}

func (e *mockExtractor) Collect(paths []m.Path) ([]m.Path, error) {
	args := e.Called(paths)
	files, _ := args.Get(0).([]m.Path)

	return files, args.Error(1)
}

func (e *mockExtractor) Extract(ctx context.Context, files []m.Path, progress m.ProgressFunc) ([]m.Record, error) {
	args := e.Called(ctx, files, progress)
	records, _ := args.Get(0).([]m.Record)

	return records, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (c *mockCache) Get(key string) (m.TrackerIssue, bool) {
	args := c.Called(key)
	return args.Get(0).(m.TrackerIssue), args.Bool(1)
}

func (c *mockCache) Set(key string, issue m.TrackerIssue) error {
	return c.Called(key, issue).Error(0)
}

func (c *mockCache) Clear() (int, error) {
	args := c.Called()
	return args.Int(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (s *mockStore) WriteResults(path m.Path, text string) error {
	return s.Called(path, text).Error(0)
}

type mockClipboard struct {
	mock.Mock
}

func (c *mockClipboard) Copy(text string) error {
	return c.Called(text).Error(0)
}

type mockOpener struct {
	mock.Mock
}

func (o *mockOpener) Open(url string) error {
	return o.Called(url).Error(0)
}

// recordingUI captures what the workflow shows to the user.
type recordingUI struct {
	mu       sync.Mutex
	results  []string
	notices  []string
	finished []string
	counts   []m.Counts
	started  int
	closed   int
	browsed  []m.Record
	options  controller.BrowseOptions
}

func (u *recordingUI) Start(ctx context.Context, _ ...controller.StartOption) error {
	u.started++
	return ctx.Err()
}

func (u *recordingUI) Progress(_ context.Context) m.ProgressFunc {
	return func(int, int, string) {}
}

func (u *recordingUI) Finish(_ context.Context, message string) {
	u.finished = append(u.finished, message)
}

func (u *recordingUI) Close(_ context.Context) {
	u.closed++
}

func (u *recordingUI) DisplayResults(_ context.Context, text string) {
	u.results = append(u.results, text)
}

func (u *recordingUI) DisplayNotice(_ context.Context, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.notices = append(u.notices, message)
}

func (u *recordingUI) DisplayCounts(_ context.Context, counts m.Counts) {
	u.counts = append(u.counts, counts)
}

func (u *recordingUI) Browse(_ context.Context, records []m.Record, options controller.BrowseOptions) error {
	u.browsed = records
	u.options = options

	return nil
}
