// Package schema defines the canonical event schema every ingested file is
// reconciled against: the fixed field set, the event-name enumeration, the
// fully-typed Event produced by validation, and the per-file audit types
// (HeaderReport, RunLogEntry).
package schema

import "time"

// Canonical field names, in relation column order.
const (
	FieldClientID  = "client_id"
	FieldPageURL   = "page_url"
	FieldReferrer  = "referrer"
	FieldTimestamp = "timestamp"
	FieldEventName = "event_name"
	FieldEventData = "event_data"
	FieldUserAgent = "user_agent"
)

// Fields is the full canonical schema in the order the persistence boundary
// expects for the quarantine CSV header.
var Fields = []string{
	FieldClientID,
	FieldPageURL,
	FieldReferrer,
	FieldTimestamp,
	FieldEventName,
	FieldEventData,
	FieldUserAgent,
}

// CoreFields are required at the header level for a file to be considered
// well-formed; referrer is optional.
var CoreFields = []string{
	FieldClientID,
	FieldPageURL,
	FieldTimestamp,
	FieldEventName,
	FieldEventData,
	FieldUserAgent,
}

// InsertColumns is the seven-column order of the raw_events relation.
var InsertColumns = []string{
	FieldClientID,
	FieldTimestamp,
	FieldEventName,
	FieldEventData,
	FieldPageURL,
	FieldReferrer,
	FieldUserAgent,
}

// IsCanonical reports whether name is a canonical field.
func IsCanonical(name string) bool {
	_, ok := canonicalSet[name]
	return ok
}

var canonicalSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Fields))
	for _, f := range Fields {
		m[f] = struct{}{}
	}
	return m
}()

// EventName is the closed enumeration of recognized event types.
type EventName string

const (
	EventPageViewed         EventName = "page_viewed"
	EventPurchase           EventName = "purchase"
	EventCheckoutStarted    EventName = "checkout_started"
	EventCheckoutCompleted  EventName = "checkout_completed"
	EventProductAddedToCart EventName = "product_added_to_cart"
	EventEmailFilledOnPopup EventName = "email_filled_on_popup"
)

var eventNames = map[EventName]struct{}{
	EventPageViewed:         {},
	EventPurchase:           {},
	EventCheckoutStarted:    {},
	EventCheckoutCompleted:  {},
	EventProductAddedToCart: {},
	EventEmailFilledOnPopup: {},
}

// ParseEventName matches s against the enumeration after the caller has
// already trimmed and lowercased it.
func ParseEventName(s string) (EventName, bool) {
	n := EventName(s)
	_, ok := eventNames[n]
	return n, ok
}

// Event is a fully-typed, validated event record. Construction is
// all-or-nothing: a value of this type only exists when every field passed
// its validator.
type Event struct {
	ClientID  string
	Timestamp time.Time
	EventName EventName
	EventData map[string]any

	// EventDataJSON is the compact serialized form of EventData, the shape
	// the persistence boundary stores.
	EventDataJSON string

	PageURL   string
	Referrer  *string // nil means "no referrer"
	UserAgent string
}

// InsertValues returns the event laid out in InsertColumns order for a bulk
// insert. Referrer maps to NULL when absent.
func (e Event) InsertValues() []any {
	var ref any
	if e.Referrer != nil {
		ref = *e.Referrer
	}
	return []any{
		e.ClientID,
		e.Timestamp,
		string(e.EventName),
		e.EventDataJSON,
		e.PageURL,
		ref,
		e.UserAgent,
	}
}

// HeaderReport describes how one file's header row reconciled against the
// canonical schema. It is advisory: extra or missing columns are logged as
// warnings and never block row processing.
type HeaderReport struct {
	RawHeaders        []string
	NormalizedHeaders []string // effective header set, sorted, deduplicated
	ExtraColumns      []string // normalized names outside the canonical schema, sorted
	MissingCore       []string // core fields absent from the effective set, sorted
}

// Run statuses recorded on pipeline log entries.
const (
	StatusCompleted      = "COMPLETED"
	StatusPartialFailure = "partial_failure"
	StatusFailed         = "FAILED"
)

// RunLogEntry is one append-only audit row per processed file. It is created
// once, after the file finishes, and never updated.
type RunLogEntry struct {
	Filename        string
	RunTimestamp    time.Time
	RowsRead        int64
	RowsInserted    int64
	RowsQuarantined int64
	Status          string

	// Checksum is the xxh3-64 hash of the source file, hex encoded. Empty
	// when the file could not be hashed.
	Checksum string
}
