package metrics

import (
	"errors"
	"testing"
	"time"
)

type capture struct {
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]Labels
}

func newCapture() *capture {
	return &capture{
		counters:   map[string]float64{},
		histograms: map[string][]float64{},
		labels:     map[string]Labels{},
	}
}

func (c *capture) IncCounter(name string, delta float64, labels Labels) {
	c.counters[name] += delta
	c.labels[name] = labels
}

func (c *capture) ObserveHistogram(name string, value float64, labels Labels) {
	c.histograms[name] = append(c.histograms[name], value)
	c.labels[name] = labels
}

func (c *capture) Flush() error { return nil }

// Not parallel: tests swap the package-global backend.
func withBackend(t *testing.T, b Backend) {
	t.Helper()
	prev := backend
	SetBackend(b)
	t.Cleanup(func() { backend = prev })
}

func TestRecordFile(t *testing.T) {
	c := newCapture()
	withBackend(t, c)

	RecordFile("events", "a.csv", nil, 250*time.Millisecond)
	RecordFile("events", "b.csv", errors.New("boom"), time.Second)

	if got := c.counters["ingest_files_total"]; got != 2 {
		t.Errorf("ingest_files_total = %v", got)
	}
	if got := len(c.histograms["ingest_file_duration_seconds"]); got != 2 {
		t.Errorf("duration observations = %d", got)
	}
	if got := c.labels["ingest_files_total"]["status"]; got != "failure" {
		t.Errorf("last status label = %q, want failure", got)
	}
	if got := c.labels["ingest_files_total"]["file"]; got != "b.csv" {
		t.Errorf("last file label = %q, want b.csv", got)
	}
}

func TestRecordRows(t *testing.T) {
	c := newCapture()
	withBackend(t, c)

	RecordRows("events", "read", 10)
	RecordRows("events", "read", 5)
	RecordRows("events", "quarantined", 0) // no-op

	if got := c.counters["ingest_rows_total"]; got != 15 {
		t.Errorf("ingest_rows_total = %v", got)
	}
	if lbls := c.labels["ingest_rows_total"]; lbls["kind"] != "read" || lbls["job"] != "events" {
		t.Errorf("labels = %v", lbls)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	c := newCapture()
	withBackend(t, c)
	SetBackend(nil)

	RecordRows("events", "read", 1)
	if c.counters["ingest_rows_total"] != 1 {
		t.Errorf("nil SetBackend replaced the backend")
	}
}
