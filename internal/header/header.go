// Package header reconciles raw CSV header rows against the canonical event
// schema. It canonicalizes individual tokens (BOM/whitespace stripping, alias
// and camelCase matching, diacritic folding), decides whether a composite
// date+time pair substitutes for a single timestamp column, and produces the
// per-file HeaderReport of extra and missing columns.
package header

import (
	"sort"
	"strings"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
)

const utf8BOM = "\uFEFF"

// Interim targets recognized during normalization but outside the canonical
// schema; they are consumed by the timestamp derivation decision.
const (
	colDate = "date"
	colTime = "time"
)

// Sanitize strips a UTF-8 byte-order marker and surrounding whitespace from a
// raw header token.
func Sanitize(token string) string {
	return strings.TrimSpace(strings.ReplaceAll(token, utf8BOM, ""))
}

// aliases maps the folded, lowercased spelling of every recognized header
// variant to its canonical target. CamelCase spellings land here too since
// lowering collapses them.
var aliases = map[string]string{
	"clientid":   schema.FieldClientID,
	"client_id":  schema.FieldClientID,
	"eventname":  schema.FieldEventName,
	"event_name": schema.FieldEventName,
	"eventdata":  schema.FieldEventData,
	"event_data": schema.FieldEventData,
	"pageurl":    schema.FieldPageURL,
	"page_url":   schema.FieldPageURL,
	"useragent":  schema.FieldUserAgent,
	"user_agent": schema.FieldUserAgent,
	"referrer":   schema.FieldReferrer,
	"timestamp":  schema.FieldTimestamp,
	"date":       colDate,
	"time":       colTime,
}

// NormalizeToken canonicalizes one raw header token. Recognized aliases map
// to their canonical name regardless of casing, camelCase spelling, or
// diacritics; unrecognized tokens pass through as their sanitized original
// string and later surface as extra columns. Normalizing an already-canonical
// name is a no-op.
func NormalizeToken(token string) string {
	raw := Sanitize(token)
	if canonical, ok := aliases[strings.ToLower(fold(raw))]; ok {
		return canonical
	}
	return raw
}

// Plan is the per-file outcome of header reconciliation: the source-column to
// canonical-target mapping the row normalizer applies, the timestamp
// derivation flag, and the advisory report.
type Plan struct {
	// ColumnMap maps each sanitized source header to its canonical target.
	ColumnMap map[string]string

	// DeriveTimestamp is set when the file has date and time columns but no
	// timestamp; both are consumed at row-normalization time.
	DeriveTimestamp bool

	Report schema.HeaderReport
}

// BuildPlan applies NormalizeToken to every header and resolves the timestamp
// decision, in priority order:
//
//  1. timestamp present: no derivation.
//  2. date and time present: derive a composite timestamp per row; neither
//     column appears in the effective header set.
//  3. only date: that column targets timestamp directly.
//  4. only time: that column targets timestamp directly; no date is invented.
//
// Extra and missing-core columns are advisory and never abort processing.
func BuildPlan(rawHeaders []string) Plan {
	sanitized := make([]string, len(rawHeaders))
	normalized := make([]string, len(rawHeaders))
	columnMap := make(map[string]string, len(rawHeaders))

	hasTimestamp, hasDate, hasTime := false, false, false
	for i, h := range rawHeaders {
		s := Sanitize(h)
		n := NormalizeToken(s)
		sanitized[i] = s
		normalized[i] = n
		columnMap[s] = n
		switch n {
		case schema.FieldTimestamp:
			hasTimestamp = true
		case colDate:
			hasDate = true
		case colTime:
			hasTime = true
		}
	}

	derive := !hasTimestamp && hasDate && hasTime

	// A lone date or time column is renamed to timestamp outright.
	if !hasTimestamp && hasDate != hasTime {
		from := colDate
		if hasTime {
			from = colTime
		}
		for src, target := range columnMap {
			if target == from {
				columnMap[src] = schema.FieldTimestamp
			}
		}
		for i, n := range normalized {
			if n == from {
				normalized[i] = schema.FieldTimestamp
			}
		}
	}

	effective := make(map[string]struct{}, len(normalized))
	for _, n := range normalized {
		effective[n] = struct{}{}
	}
	if derive {
		effective[schema.FieldTimestamp] = struct{}{}
		delete(effective, colDate)
		delete(effective, colTime)
	}

	var extra []string
	headers := make([]string, 0, len(effective))
	for n := range effective {
		headers = append(headers, n)
		if !schema.IsCanonical(n) {
			extra = append(extra, n)
		}
	}
	sort.Strings(headers)
	sort.Strings(extra)

	var missing []string
	for _, core := range schema.CoreFields {
		if _, ok := effective[core]; !ok {
			missing = append(missing, core)
		}
	}
	sort.Strings(missing)

	return Plan{
		ColumnMap:       columnMap,
		DeriveTimestamp: derive,
		Report: schema.HeaderReport{
			RawHeaders:        sanitized,
			NormalizedHeaders: headers,
			ExtraColumns:      extra,
			MissingCore:       missing,
		},
	}
}

// EmptyPlan describes a file with no header row at all: every core column is
// missing and there is nothing to map. Zero rows follow, so the file still
// completes cleanly.
func EmptyPlan() Plan {
	missing := make([]string, len(schema.CoreFields))
	copy(missing, schema.CoreFields)
	sort.Strings(missing)
	return Plan{
		ColumnMap: map[string]string{},
		Report: schema.HeaderReport{
			RawHeaders:        []string{},
			NormalizedHeaders: []string{},
			ExtraColumns:      []string{},
			MissingCore:       missing,
		},
	}
}
