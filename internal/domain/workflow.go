package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"reportminer.dev/pkg/reportminer/internal/adapter"
	"reportminer.dev/pkg/reportminer/internal/controller"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// ErrMissingReport is returned when diff is not given two reports.
var ErrMissingReport = errors.New("two reports are required")

const (
	noMatchesNotice = "No tests found matching criteria."
	noTestsNotice   = "No tests found."
)

// ExtractArgs contains the arguments of the extract operation.
type ExtractArgs struct {
	Paths         []m.Path
	Format        string
	Status        string
	Output        m.Path
	Unique        bool
	Sort          bool
	Count         bool
	Summary       bool
	Copy          bool
	Group         bool
	Rerun         bool
	RerunTemplate string
}

// DiffArgs contains the arguments of the diff operation.
type DiffArgs struct {
	Old    m.Path
	New    m.Path
	Output m.Path
	Copy   bool
}

// ViewArgs contains the arguments of the view operation.
type ViewArgs struct {
	Paths []m.Path
	Theme controller.Theme
}

// Workflow runs the user-facing operations.
type Workflow interface {
	Extract(ctx context.Context, args ExtractArgs) error
	Diff(ctx context.Context, args DiffArgs) error
	View(ctx context.Context, args ViewArgs) error
	ClearCache(ctx context.Context) error
}

type workflow struct {
	adapter.ReportExtractor
	adapter.TrackerClient
	adapter.ResponseCache
	adapter.ResultStore
	adapter.Clipboard
	adapter.URLOpener
	controller.UI
	Enricher
	Comparator
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	extractor adapter.ReportExtractor,
	tracker adapter.TrackerClient,
	cache adapter.ResponseCache,
	store adapter.ResultStore,
	clipboard adapter.Clipboard,
	opener adapter.URLOpener,
	ui controller.UI,
	enricher Enricher,
	comparator Comparator,
) Workflow {
	return &workflow{
		ReportExtractor: extractor,
		TrackerClient:   tracker,
		ResponseCache:   cache,
		ResultStore:     store,
		Clipboard:       clipboard,
		URLOpener:       opener,
		UI:              ui,
		Enricher:        enricher,
		Comparator:      comparator,
	}
}

// Extract lists records of the given reports in the requested format.
func (w *workflow) Extract(ctx context.Context, args ExtractArgs) error {
	var (
		formatter Formatter
		err       error
	)

	if !args.Rerun && !args.Count {
		formatter, err = NewFormatter(args.Format, FormatterOptions{TrackerURL: w.trackerURL(), Group: args.Group})
		if err != nil {
			return err
		}
	}

	records, err := w.load(ctx, args.Paths)
	if err != nil {
		return err
	}

	if args.Unique {
		records = Deduplicate(records)
	}

	records, err = FilterByStatus(records, args.Status)
	if err != nil {
		return err
	}

	if args.Sort {
		records = SortByIdentifier(records)
	}

	slog.Debug("selected records", "count", len(records), "status", args.Status, "unique", args.Unique)

	if len(records) == 0 {
		w.DisplayNotice(ctx, noMatchesNotice)
		return nil
	}

	if args.Count {
		w.DisplayResults(ctx, strconv.Itoa(len(records)))

		if args.Summary {
			w.DisplayCounts(ctx, m.CountRecords(records))
		}

		return nil
	}

	var text string

	if args.Rerun {
		text = FormatRerun(args.RerunTemplate, records)
	} else {
		if NeedsTracker(args.Format) {
			w.enrich(ctx, records)
		}

		text = formatter.Format(records)
	}

	return w.emit(ctx, text, args.Output, args.Copy)
}

// Diff compares two report snapshots.
func (w *workflow) Diff(ctx context.Context, args DiffArgs) error {
	if args.Old == "" || args.New == "" {
		return ErrMissingReport
	}

	old, err := w.load(ctx, []m.Path{args.Old})
	if err != nil {
		return fmt.Errorf("load old report: %w", err)
	}

	current, err := w.load(ctx, []m.Path{args.New})
	if err != nil {
		return fmt.Errorf("load new report: %w", err)
	}

	comparison := w.Compare(old, current)

	return w.emit(ctx, FormatComparison(comparison), args.Output, args.Copy)
}

// View opens the interactive browser on the given reports.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	records, err := w.load(ctx, args.Paths)
	if err != nil {
		return err
	}

	records = Deduplicate(records)
	if len(records) == 0 {
		w.DisplayNotice(ctx, noTestsNotice)
		return nil
	}

	w.enrich(ctx, records)

	return w.Browse(ctx, records, controller.BrowseOptions{
		Annotator:  NewLogAnnotator(),
		Matches:    MatchesQuery,
		Clipboard:  w.Clipboard,
		Opener:     w.URLOpener,
		TrackerURL: w.trackerURL(),
		Theme:      args.Theme,
	})
}

// ClearCache removes every cached tracker response.
func (w *workflow) ClearCache(ctx context.Context) error {
	if w.ResponseCache == nil {
		w.DisplayResults(ctx, "Cleared 0 cached responses")
		return nil
	}

	n, err := w.Clear()
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	slog.Info("cleared response cache", "entries", n)
	w.DisplayResults(ctx, fmt.Sprintf("Cleared %d cached responses", n))

	return nil
}

func (w *workflow) load(ctx context.Context, paths []m.Path) ([]m.Record, error) {
	files, err := w.Collect(paths)
	if err != nil {
		return nil, fmt.Errorf("collect reports: %w", err)
	}

	if err := w.Start(ctx, controller.WithLoadingMode()); err != nil {
		return nil, err
	}

	records, err := w.ReportExtractor.Extract(ctx, files, w.Progress(ctx))
	if err != nil {
		w.Close(ctx)
		return nil, fmt.Errorf("extract reports: %w", err)
	}

	w.Finish(ctx, fmt.Sprintf("Extracted %d records from %d report(s)", len(records), len(files)))

	return records, nil
}

func (w *workflow) enrich(ctx context.Context, records []m.Record) {
	if w.Enricher == nil || w.TrackerClient == nil || !w.Configured() {
		return
	}

	if err := w.Start(ctx, controller.WithLabel("Fetching tracker issues")); err != nil {
		return
	}

	stats := w.Enrich(ctx, records, w.Progress(ctx))

	w.Finish(ctx, fmt.Sprintf("Fetched %d/%d tracker issues", stats.Found, stats.Requested))

	if stats.Failed > 0 {
		w.DisplayNotice(ctx, fmt.Sprintf("%d tracker lookups failed, see the log for details", stats.Failed))
	}
}

func (w *workflow) emit(ctx context.Context, text string, output m.Path, copyText bool) error {
	if copyText {
		if err := w.Copy(text); err != nil {
			slog.Warn("clipboard copy failed", "error", err)
			w.DisplayNotice(ctx, "Could not copy to clipboard: "+err.Error())
		} else {
			w.DisplayNotice(ctx, "Copied to clipboard")
		}
	}

	if output != "" {
		if err := w.Start(ctx, controller.WithWritingMode()); err != nil {
			return err
		}

		if err := w.WriteResults(output, text); err != nil {
			w.Close(ctx)
			return fmt.Errorf("write results: %w", err)
		}

		w.Finish(ctx, "")
		w.DisplayNotice(ctx, "Results written to "+output.String())

		return nil
	}

	w.DisplayResults(ctx, text)

	return nil
}

func (w *workflow) trackerURL() string {
	if w.TrackerClient == nil {
		return ""
	}

	return w.BaseURL()
}
