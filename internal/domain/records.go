package domain

import (
	"fmt"
	"sort"
	"strings"

	m "reportminer.dev/pkg/reportminer/internal/model"
)

// StatusFilterAll keeps every record regardless of status.
const StatusFilterAll = "all"

const (
	maxReasonLength  = 80
	noFailureReason  = "No failure reason"
	reasonTruncation = "..."
)

// FilterByStatus keeps records matching a status name, or all of them for "all".
func FilterByStatus(records []m.Record, filter string) ([]m.Record, error) {
	if strings.EqualFold(strings.TrimSpace(filter), StatusFilterAll) {
		return records, nil
	}

	status, err := m.ParseStatus(filter)
	if err != nil {
		return nil, fmt.Errorf("parse status filter: %w", err)
	}

	out := make([]m.Record, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			out = append(out, r)
		}
	}

	return out, nil
}

// Deduplicate removes records with an already seen identifier, keeping the first.
func Deduplicate(records []m.Record) []m.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]m.Record, 0, len(records))

	for _, r := range records {
		if _, ok := seen[r.Identifier]; ok {
			continue
		}

		seen[r.Identifier] = struct{}{}
		out = append(out, r)
	}

	return out
}

// SortByIdentifier returns a copy of records sorted by identifier.
func SortByIdentifier(records []m.Record) []m.Record {
	out := append([]m.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Identifier < out[j].Identifier
	})

	return out
}

// NormalizeIdentifier lowercases an identifier and treats "-" and "_" alike.
func NormalizeIdentifier(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), "-", "_")
}

// MatchesQuery reports whether the identifier, name or tracker summary contain query.
func MatchesQuery(r m.Record, query string) bool {
	if query == "" {
		return true
	}

	if strings.Contains(NormalizeIdentifier(r.Identifier), NormalizeIdentifier(query)) {
		return true
	}

	lower := strings.ToLower(query)

	return strings.Contains(strings.ToLower(r.Name), lower) ||
		strings.Contains(strings.ToLower(r.TrackerSummary), lower)
}

// ReasonGroup is a set of records sharing the first line of their failure text.
type ReasonGroup struct {
	Reason  string
	Records []m.Record
}

// FailureReasonKey returns the grouping key for a record's failure text.
func FailureReasonKey(r m.Record) string {
	reason, _, _ := strings.Cut(r.FailureText, "\n")
	reason = strings.TrimSpace(reason)

	if reason == "" {
		return noFailureReason
	}

	if len([]rune(reason)) > maxReasonLength {
		reason = string([]rune(reason)[:maxReasonLength-len(reasonTruncation)]) + reasonTruncation
	}

	return reason
}

// GroupByReason groups records by failure reason, largest group first.
func GroupByReason(records []m.Record) []ReasonGroup {
	index := make(map[string]int)

	var groups []ReasonGroup

	for _, r := range records {
		key := FailureReasonKey(r)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ReasonGroup{Reason: key})
		}

		groups[i].Records = append(groups[i].Records, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Records) > len(groups[j].Records)
	})

	return groups
}
