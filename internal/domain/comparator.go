package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	m "reportminer.dev/pkg/reportminer/internal/model"
)

// Comparator classifies test state transitions between two reports.
type Comparator interface {
	Compare(old, current []m.Record) m.Comparison
}

type comparator struct{}

// NewComparator creates a stateless Comparator.
func NewComparator() Comparator {
	return &comparator{}
}

type idSet map[string]struct{}

func (s idSet) minus(others ...idSet) idSet {
	out := make(idSet, len(s))

	for id := range s {
		if inAny(id, others) {
			continue
		}

		out[id] = struct{}{}
	}

	return out
}

func (s idSet) intersect(other idSet) idSet {
	out := make(idSet)

	for id := range s {
		if _, ok := other[id]; ok {
			out[id] = struct{}{}
		}
	}

	return out
}

func inAny(id string, sets []idSet) bool {
	for _, set := range sets {
		if _, ok := set[id]; ok {
			return true
		}
	}

	return false
}

// reportSide holds one report indexed by identifier with its status partitions.
type reportSide struct {
	byID   map[string]m.Record
	failed idSet
	errors idSet
	passed idSet
}

func indexSide(label string, records []m.Record) reportSide {
	side := reportSide{
		byID:   make(map[string]m.Record, len(records)),
		failed: make(idSet),
		errors: make(idSet),
		passed: make(idSet),
	}

	for _, r := range records {
		if prev, ok := side.byID[r.Identifier]; ok {
			slog.Warn("duplicate identifier in comparison input, keeping last",
				"side", label, "identifier", r.Identifier,
				"previous_status", prev.Status.String(), "status", r.Status.String())
			delete(side.failed, r.Identifier)
			delete(side.errors, r.Identifier)
			delete(side.passed, r.Identifier)
		}

		side.byID[r.Identifier] = r

		switch r.Status {
		case m.StatusFailed:
			side.failed[r.Identifier] = struct{}{}
		case m.StatusError:
			side.errors[r.Identifier] = struct{}{}
		case m.StatusPassed:
			side.passed[r.Identifier] = struct{}{}
		case m.StatusSkipped, m.StatusXFailed, m.StatusXPassed, m.StatusRerun:
			// Not part of any transition bucket.
		}
	}

	return side
}

func (s reportSide) records(ids idSet) []m.Record {
	out := make([]m.Record, 0, len(ids))
	for id := range ids {
		out = append(out, s.byID[id])
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Identifier < out[j].Identifier
	})

	return out
}

// Compare buckets every identifier by its old and new status.
func (c *comparator) Compare(old, current []m.Record) m.Comparison {
	before := indexSide("old", old)
	after := indexSide("new", current)

	return m.Comparison{
		NewFailures:   after.records(after.failed.minus(before.failed, before.errors)),
		Fixed:         after.records(before.failed.intersect(after.passed)),
		StillFailing:  after.records(before.failed.intersect(after.failed)),
		NewErrors:     after.records(after.errors.minus(before.errors, before.failed)),
		FixedErrors:   after.records(before.errors.intersect(after.passed)),
		StillErroring: after.records(before.errors.intersect(after.errors)),
		NewPasses:     after.records(after.passed.minus(before.passed, before.failed, before.errors)),
	}
}

type comparisonSection struct {
	title       string
	marker      string
	records     []m.Record
	withFailure bool
}

// FormatComparison renders a comparison as grouped text sections and a summary.
func FormatComparison(c m.Comparison) string {
	sections := []comparisonSection{
		{title: "NEW FAILURES", marker: "-", records: c.NewFailures, withFailure: true},
		{title: "NEW ERRORS", marker: "!", records: c.NewErrors, withFailure: true},
		{title: "FIXED", marker: "+", records: c.Fixed},
		{title: "FIXED ERRORS", marker: "+", records: c.FixedErrors},
		{title: "STILL FAILING", marker: "~", records: c.StillFailing, withFailure: true},
		{title: "STILL ERRORING", marker: "~", records: c.StillErroring, withFailure: true},
	}

	var b strings.Builder

	for _, section := range sections {
		if len(section.records) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%s (%d):\n", section.title, len(section.records))

		for _, r := range section.records {
			fmt.Fprintf(&b, "  %s %s: %s\n", section.marker, r.Identifier, r.Name)

			if section.withFailure && r.FailureText != "" {
				for _, line := range strings.Split(r.FailureText, "\n") {
					fmt.Fprintf(&b, "    %s\n", line)
				}
			}
		}

		b.WriteString("\n")
	}

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "  New failures: %d\n", len(c.NewFailures))
	fmt.Fprintf(&b, "  New errors: %d\n", len(c.NewErrors))
	fmt.Fprintf(&b, "  Fixed: %d\n", len(c.Fixed))
	fmt.Fprintf(&b, "  Fixed errors: %d\n", len(c.FixedErrors))
	fmt.Fprintf(&b, "  Still failing: %d\n", len(c.StillFailing))
	fmt.Fprintf(&b, "  Still erroring: %d", len(c.StillErroring))

	return b.String()
}
