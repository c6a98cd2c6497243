package schema

import (
	"testing"
	"time"
)

func TestParseEventName(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"page_viewed", "purchase", "checkout_started", "checkout_completed", "product_added_to_cart", "email_filled_on_popup"} {
		if _, ok := ParseEventName(s); !ok {
			t.Errorf("ParseEventName(%q) not recognized", s)
		}
	}
	for _, s := range []string{"", "Purchase", "login", "page viewed"} {
		if _, ok := ParseEventName(s); ok {
			t.Errorf("ParseEventName(%q) unexpectedly recognized", s)
		}
	}
}

// TestInsertValues pins the column order and the referrer NULL mapping.
func TestInsertValues(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := Event{
		ClientID:      "c1",
		Timestamp:     ts,
		EventName:     EventPurchase,
		EventDataJSON: `{"a":1}`,
		PageURL:       "https://x/p",
		UserAgent:     "UA",
	}

	vals := ev.InsertValues()
	if len(vals) != len(InsertColumns) {
		t.Fatalf("len = %d, want %d", len(vals), len(InsertColumns))
	}
	if vals[0] != "c1" || vals[1] != ts || vals[2] != "purchase" || vals[3] != `{"a":1}` {
		t.Fatalf("vals = %v", vals)
	}
	if vals[5] != nil {
		t.Fatalf("absent referrer = %v, want nil", vals[5])
	}

	ref := "https://r"
	ev.Referrer = &ref
	if vals := ev.InsertValues(); vals[5] != "https://r" {
		t.Fatalf("referrer = %v", vals[5])
	}
}

func TestIsCanonical(t *testing.T) {
	t.Parallel()

	for _, f := range Fields {
		if !IsCanonical(f) {
			t.Errorf("IsCanonical(%q) = false", f)
		}
	}
	for _, f := range []string{"date", "time", "session_id", ""} {
		if IsCanonical(f) {
			t.Errorf("IsCanonical(%q) = true", f)
		}
	}
}
