package domain

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"reportminer.dev/pkg/reportminer/internal/adapter"
	m "reportminer.dev/pkg/reportminer/internal/model"
)

// DefaultEnrichParallel is the number of concurrent tracker requests.
const DefaultEnrichParallel = 4

// EnrichStats summarizes an enrichment pass.
type EnrichStats struct {
	Requested int
	Found     int
	Missing   int
	Failed    int
}

// Enricher attaches tracker summaries and steps to records.
type Enricher interface {
	Enrich(ctx context.Context, records []m.Record, progress m.ProgressFunc) EnrichStats
}

type enricher struct {
	adapter.TrackerClient
	parallel int
}

// NewEnricher creates an Enricher that runs up to parallel lookups at once.
func NewEnricher(client adapter.TrackerClient, parallel int) Enricher {
	if parallel <= 0 {
		parallel = DefaultEnrichParallel
	}

	return &enricher{TrackerClient: client, parallel: parallel}
}

// Enrich updates records in place. Lookups are best effort: failures are
// logged and counted, and the records keep their previous tracker fields.
func (e *enricher) Enrich(ctx context.Context, records []m.Record, progress m.ProgressFunc) EnrichStats {
	if e.TrackerClient == nil || !e.Configured() || len(records) == 0 {
		return EnrichStats{}
	}

	keys, positions := uniqueTrackerKeys(records)
	stats := EnrichStats{Requested: len(keys)}

	var (
		mu   sync.Mutex
		done int
	)

	progress.Report(0, len(keys), "")

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.parallel)

	for _, key := range keys {
		group.Go(func() error {
			issue, found, err := e.FetchIssue(groupCtx, key)

			mu.Lock()
			defer mu.Unlock()

			done++

			switch {
			case err != nil:
				stats.Failed++
				slog.Warn("tracker lookup failed", "key", key, "error", err)
			case !found:
				stats.Missing++
				slog.Debug("tracker issue not found", "key", key)
			default:
				stats.Found++

				for _, i := range positions[key] {
					records[i].TrackerSummary = issue.Summary
					records[i].TrackerSteps = issue.Steps
				}
			}

			progress.Report(done-1, len(keys), key)

			return nil
		})
	}

	_ = group.Wait()

	progress.Report(len(keys), len(keys), m.ProgressComplete)
	slog.Debug("enrichment finished",
		"requested", stats.Requested, "found", stats.Found,
		"missing", stats.Missing, "failed", stats.Failed)

	return stats
}

func uniqueTrackerKeys(records []m.Record) ([]string, map[string][]int) {
	positions := make(map[string][]int, len(records))
	keys := make([]string, 0, len(records))

	for i, r := range records {
		key := r.TrackerKey()
		if _, seen := positions[key]; !seen {
			keys = append(keys, key)
		}

		positions[key] = append(positions[key], i)
	}

	return keys, positions
}
