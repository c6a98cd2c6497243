package datadog

import (
	"sort"
	"testing"

	"github.com/eljeilany/ecom-analytics-studdy/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	// UDP clients do not need a listening agent, so constructing against a
	// loopback address exercises the full option wiring.
	b, err := NewBackend(Config{
		Addr:       "127.0.0.1:8125",
		Namespace:  "ingest.",
		GlobalTags: []string{"job:events"},
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("ingest_files_total", 1, metrics.Labels{"status": "ok"})
	b.ObserveHistogram("ingest_file_duration_seconds", 0.25, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected an error for an empty Addr")
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"job": "events", "status": "ok"})
	sort.Strings(got)
	want := []string{"job:events", "status:ok"}
	if len(got) != len(want) {
		t.Fatalf("labelsToTags: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labelsToTags: got %v, want %v", got, want)
		}
	}

	if labelsToTags(nil) != nil {
		t.Fatal("expected nil tags for empty labels")
	}
}
