package schoolmap

import (
	"sort"

	"github.com/rs/zerolog"
)

// Merge folds newly derived mappings into an existing set. For each original
// name: absent keys are inserted, strictly higher confidence replaces, and
// ties keep the existing record so re-derived but equivalent rows cause no
// churn. Taking the max by precedence makes the operation associative and
// idempotent; merging a set into itself is a no-op.
//
// The result is sorted by original name so persisted tables diff cleanly
// across runs.
func Merge(existing, incoming []MappingRecord) []MappingRecord {
	byOriginal := make(map[string]MappingRecord, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))
	absorb := func(rec MappingRecord) {
		cur, ok := byOriginal[rec.Original]
		if !ok {
			byOriginal[rec.Original] = rec
			order = append(order, rec.Original)
			return
		}
		if rec.Confidence.Supersedes(cur.Confidence) {
			byOriginal[rec.Original] = rec
		}
	}
	for _, rec := range existing {
		absorb(rec)
	}
	for _, rec := range incoming {
		absorb(rec)
	}

	sort.Strings(order)
	out := make([]MappingRecord, 0, len(order))
	for _, original := range order {
		out = append(out, byOriginal[original])
	}
	return out
}

// Dedupe collapses duplicate original keys inside a single mapping set using
// the same precedence rule as Merge. Duplicates indicate a corrupted or
// hand-edited table; they are logged and resolved, never fatal.
func Dedupe(records []MappingRecord, logger zerolog.Logger) []MappingRecord {
	byOriginal := make(map[string]MappingRecord, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		cur, ok := byOriginal[rec.Original]
		if !ok {
			byOriginal[rec.Original] = rec
			order = append(order, rec.Original)
			continue
		}
		kept := cur
		if rec.Confidence.Supersedes(cur.Confidence) {
			kept = rec
			byOriginal[rec.Original] = rec
		}
		logger.Warn().
			Str("original", rec.Original).
			Str("kept", string(kept.Confidence)).
			Msg("duplicate mapping key resolved by precedence")
	}
	out := make([]MappingRecord, 0, len(order))
	for _, original := range order {
		out = append(out, byOriginal[original])
	}
	return out
}
