// Package rows projects raw CSV rows onto the canonical field set. It applies
// the header plan's column mapping, merges duplicate target columns with a
// first-non-empty-wins rule, and derives a composite timestamp string when the
// file splits it across date and time columns.
package rows

import (
	"sort"
	"strings"

	"github.com/eljeilany/ecom-analytics-studdy/internal/header"
	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/pkg/records"
)

// isEmpty reports whether v counts as "no value" for merge and derivation
// purposes: nil, or a string that is empty after trimming. Non-string values
// always count as present.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Choose implements the column-merge rule: keep existing unless it is nil or
// an empty/whitespace-only string, in which case the candidate wins. Source
// column order decides which value is "existing".
func Choose(existing, candidate any) any {
	if isEmpty(existing) {
		return candidate
	}
	return existing
}

// Normalize maps one raw row onto the canonical field set per the header
// plan. The input is never mutated; the result's keys are always a subset of
// the canonical schema. Running Normalize on an already-normalized row yields
// the same row unchanged.
func Normalize(row records.Record, plan header.Plan) records.Record {
	merged := make(records.Record, len(schema.Fields))
	for _, key := range sourceOrder(row, plan) {
		target, ok := plan.ColumnMap[key]
		if !ok {
			target = header.NormalizeToken(key)
		}
		if existing, seen := merged[target]; seen {
			merged[target] = Choose(existing, row[key])
		} else {
			merged[target] = row[key]
		}
	}

	if plan.DeriveTimestamp {
		if _, ok := merged[schema.FieldTimestamp]; !ok {
			if ts, ok := composeTimestamp(merged["date"], merged["time"]); ok {
				merged[schema.FieldTimestamp] = ts
			}
		}
	}

	out := make(records.Record, len(merged))
	for k, v := range merged {
		if schema.IsCanonical(k) {
			out[k] = v
		}
	}
	return out
}

// composeTimestamp builds "{date} {time}" from whichever parts are non-empty.
// When both are empty the timestamp stays absent.
func composeTimestamp(date, tod any) (string, bool) {
	d, hasDate := stringValue(date)
	t, hasTime := stringValue(tod)
	switch {
	case hasDate && hasTime:
		return d + " " + t, true
	case hasDate:
		return d, true
	case hasTime:
		return t, true
	}
	return "", false
}

func stringValue(v any) (string, bool) {
	if isEmpty(v) {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

// sourceOrder returns the row's keys in source column order (the sanitized
// header sequence), followed by any keys outside the header set in sorted
// order so merge outcomes stay deterministic.
func sourceOrder(row records.Record, plan header.Plan) []string {
	out := make([]string, 0, len(row))
	seen := make(map[string]struct{}, len(row))
	for _, h := range plan.Report.RawHeaders {
		if _, ok := row[h]; ok {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	var rest []string
	for k := range row {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
