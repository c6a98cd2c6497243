// Package validate type-checks one normalized row into either a fully-typed
// schema.Event or a quarantine record with structured error reasons.
//
// Validation is independent per field and collects every applicable failure
// rather than short-circuiting, so a single bad row yields a complete
// diagnostic. A field whose input is structurally unusable (e.g. a boolean
// timestamp) short-circuits that field alone.
package validate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/pkg/records"
)

// ErrorSeparator joins per-field messages into one error_reason string.
const ErrorSeparator = " | "

// Field paths used in error messages.
const (
	pathClientID  = schema.FieldClientID
	pathPageURL   = schema.FieldPageURL
	pathTimestamp = schema.FieldTimestamp
	pathEventName = schema.FieldEventName
	pathEventData = schema.FieldEventData
	pathUserAgent = schema.FieldUserAgent
	pathReferrer  = schema.FieldReferrer
)

// FieldError is one failed field validator. Path is empty when the failure is
// not attributable to a specific field.
type FieldError struct {
	Path   string
	Reason string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

func fieldErr(path, reason string) *FieldError {
	return &FieldError{Path: path, Reason: reason}
}

// Reason joins one message per failed validator with the fixed separator.
func Reason(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ErrorSeparator)
}

// Options configures row validation behavior.
type Options struct {
	// BareTime selects how a bare time-of-day timestamp (a file that only
	// had a time column) is handled: BareTimeReject or BareTimeAnchor.
	BareTime string

	// AnchorDate (YYYY-MM-DD) is prefixed to bare time strings when
	// BareTime is BareTimeAnchor.
	AnchorDate string
}

// Validator validates normalized rows against the canonical schema.
type Validator struct {
	opts Options
}

func New(opts Options) *Validator {
	if opts.BareTime == "" {
		opts.BareTime = BareTimeReject
	}
	return &Validator{opts: opts}
}

// Validate checks every field of row independently and returns either a
// complete Event or the full list of field errors. Construction is
// all-or-nothing; no partially valid Event is ever returned.
func (v *Validator) Validate(row records.Record) (schema.Event, []FieldError) {
	var (
		ev   schema.Event
		errs []FieldError
	)
	collect := func(e *FieldError) {
		if e != nil {
			errs = append(errs, *e)
		}
	}

	var e *FieldError
	ev.ClientID, e = requiredString(pathClientID, row[schema.FieldClientID])
	collect(e)

	ev.Timestamp, e = v.parseTimestamp(row[schema.FieldTimestamp])
	collect(e)

	ev.EventName, e = parseEvent(row[schema.FieldEventName])
	collect(e)

	ev.EventData, e = parseEventData(row[schema.FieldEventData])
	collect(e)

	ev.PageURL, e = requiredString(pathPageURL, row[schema.FieldPageURL])
	collect(e)

	ev.Referrer = optionalString(row[schema.FieldReferrer])

	ev.UserAgent, e = requiredString(pathUserAgent, row[schema.FieldUserAgent])
	collect(e)

	if len(errs) > 0 {
		return schema.Event{}, errs
	}

	// The persistence boundary stores event_data as compact JSON text.
	data, err := json.Marshal(ev.EventData)
	if err != nil {
		return schema.Event{}, []FieldError{{Path: pathEventData, Reason: "event_data is not serializable"}}
	}
	ev.EventDataJSON = string(data)
	return ev, nil
}

// Quarantined carries the original pre-validation value for every canonical
// field plus the concatenated error reason.
type Quarantined struct {
	Values      records.Record
	ErrorReason string
}

// Quarantine builds the quarantine record for a row that failed validation.
// Values are taken from the normalized row before any validator coercion.
func Quarantine(row records.Record, errs []FieldError) Quarantined {
	values := make(records.Record, len(schema.Fields))
	for _, f := range schema.Fields {
		values[f] = row[f]
	}
	return Quarantined{Values: values, ErrorReason: Reason(errs)}
}

// requiredString validates client_id, page_url, and user_agent: null fails,
// anything else is coerced to a string and trimmed, and an empty result
// fails.
func requiredString(path string, val any) (string, *FieldError) {
	if val == nil {
		return "", fieldErr(path, "required field is null")
	}
	s := strings.TrimSpace(asString(val))
	if s == "" {
		return "", fieldErr(path, "required field is empty")
	}
	return s, nil
}

// optionalString handles referrer: absence is valid and means "no referrer";
// present values are kept as-is with no emptiness check.
func optionalString(val any) *string {
	if val == nil {
		return nil
	}
	s := asString(val)
	return &s
}

// parseEvent trims and lowercases string input before matching it against
// the event-name enumeration.
func parseEvent(val any) (schema.EventName, *FieldError) {
	s := asString(val)
	if sv, ok := val.(string); ok {
		s = strings.ToLower(strings.TrimSpace(sv))
	}
	name, ok := schema.ParseEventName(s)
	if !ok {
		return "", fieldErr(pathEventName, "is not a recognized event name")
	}
	return name, nil
}

// parseEventData resolves the event_data payload to a JSON object. Null,
// empty, and the literal "null" all mean "no payload" and yield an empty
// object rather than an error.
func parseEventData(val any) (map[string]any, *FieldError) {
	switch t := val.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		// Copy so the event does not alias a caller-owned map.
		return records.Clone(t), nil
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" || strings.EqualFold(raw, "null") {
			return map[string]any{}, nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fieldErr(pathEventData, fmt.Sprintf("is not valid JSON: %v", jsonErrMsg(err)))
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return nil, fieldErr(pathEventData, "JSON must be an object")
		}
		return obj, nil
	default:
		return nil, fieldErr(pathEventData, "must be a JSON string or object")
	}
}

// jsonErrMsg strips the "invalid character ... " offset noise down to the
// parser's message so identical failures tally together in the error digest.
func jsonErrMsg(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, " in numeric literal"); i > 0 {
		return msg[:i]
	}
	return msg
}

// asString renders common raw-cell types without fmt.Sprint overhead.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
