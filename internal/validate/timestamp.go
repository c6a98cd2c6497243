package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Bare time-of-day policies for files that carried only a time column.
const (
	BareTimeReject = "reject" // fail such rows as "not a valid datetime"
	BareTimeAnchor = "anchor" // prefix the configured anchor date
)

// epochMillisThreshold decides the unit of a numeric timestamp: values above
// it are milliseconds, at or below it seconds. Second-precision timestamps
// past 2286-11-20 are misread as milliseconds; accepted as a known
// limitation of the fixed threshold.
const epochMillisThreshold = 10_000_000_000

// stringParser is one strategy in the ordered fallback chain for timestamp
// strings. ok=false means "could not parse, try the next one"; a non-nil
// error means the chain stops with that reason.
type stringParser func(v *Validator, s string) (t time.Time, ok bool, err *FieldError)

// The chain: strict ISO first, then numeric epoch (preserving the fixed unit
// threshold ahead of any permissive guessing), then the permissive parser.
// New formats slot in here without touching existing strategies.
var stringParsers = []stringParser{
	parseISO,
	parseEpochString,
	parsePermissive,
}

// parseTimestamp resolves a raw timestamp value to an absolute point in time.
//
// Dispatch by input shape:
//   - already a time.Time: accepted directly
//   - string: normalized then run through the strategy chain
//   - integer or float: epoch seconds or milliseconds per the threshold
//   - bool: never valid, even though it is numeric in some type systems
func (v *Validator) parseTimestamp(val any) (time.Time, *FieldError) {
	switch t := val.(type) {
	case nil:
		return time.Time{}, fieldErr(pathTimestamp, "timestamp is null")
	case time.Time:
		return t, nil
	case bool:
		return time.Time{}, fieldErr(pathTimestamp, "timestamp is not a valid datetime")
	case string:
		return v.parseTimestampString(t)
	case int:
		return fromEpoch(float64(t)), nil
	case int64:
		return fromEpoch(float64(t)), nil
	case float64:
		return fromEpoch(t), nil
	default:
		return time.Time{}, fieldErr(pathTimestamp, "timestamp is not a valid datetime")
	}
}

var bareTimeRe = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?$`)

func (v *Validator) parseTimestampString(raw string) (time.Time, *FieldError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fieldErr(pathTimestamp, "timestamp is empty")
	}

	// A bare time-of-day has no date to pin it to; whether that is an error
	// or resolves against a reference date is a per-pipeline choice.
	if bareTimeRe.MatchString(s) {
		if v.opts.BareTime != BareTimeAnchor || v.opts.AnchorDate == "" {
			return time.Time{}, fieldErr(pathTimestamp, "timestamp is not a valid datetime")
		}
		s = v.opts.AnchorDate + " " + s
	}

	for _, parse := range stringParsers {
		t, ok, ferr := parse(v, s)
		if ferr != nil {
			return time.Time{}, ferr
		}
		if ok {
			return t, nil
		}
	}
	return time.Time{}, fieldErr(pathTimestamp, "timestamp is not a valid datetime")
}

// isoLayouts are tried in order against the normalized candidate. Offsetless
// layouts parse in UTC.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
	// Basic-format calendar dates ("20240501") must resolve here; otherwise
	// their eight digits would be misread as an epoch value.
	{"20060102", false},
}

// parseISO attempts a strict ISO-8601 parse. Before parsing it normalizes a
// single space between the date and time segments into 'T' when no 'T' is
// already present, and rewrites a bare trailing UTC marker into an explicit
// zero offset.
func parseISO(_ *Validator, s string) (time.Time, bool, *FieldError) {
	candidate := s
	if strings.Contains(candidate, " ") && !strings.Contains(candidate, "T") {
		candidate = strings.Replace(candidate, " ", "T", 1)
	}
	if strings.HasSuffix(candidate, "Z") {
		candidate = strings.TrimSuffix(candidate, "Z") + "+00:00"
	}

	for _, l := range isoLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, candidate); err == nil {
				return t, true, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, candidate, time.UTC); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}

// parseEpochString routes numeric strings through the epoch rule so the unit
// threshold stays deterministic instead of being re-guessed downstream.
func parseEpochString(_ *Validator, s string) (time.Time, bool, *FieldError) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false, nil
	}
	return fromEpoch(f), true, nil
}

// parsePermissive is the last resort: a general-purpose parser that fails
// loudly on ambiguous input rather than guessing silently.
func parsePermissive(_ *Validator, s string) (time.Time, bool, *FieldError) {
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, false, fieldErr(pathTimestamp, "timestamp is not a valid datetime")
	}
	return t, true, nil
}

// fromEpoch interprets f as epoch milliseconds when its magnitude exceeds the
// threshold, seconds otherwise. Fractional seconds are preserved.
func fromEpoch(f float64) time.Time {
	if math.Abs(f) > epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
