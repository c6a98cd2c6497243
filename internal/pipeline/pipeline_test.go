package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/eljeilany/ecom-analytics-studdy/internal/config"
	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
)

// fakeRepo records inserts and log appends in memory.
type fakeRepo struct {
	mu        sync.Mutex
	inserted  [][]schema.Event
	logs      []schema.RunLogEntry
	insertErr error
	logErr    error
}

func (f *fakeRepo) InsertEvents(_ context.Context, events []schema.Event) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, events)
	return int64(len(events)), nil
}

func (f *fakeRepo) AppendRunLog(_ context.Context, entry schema.RunLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeRepo) Exec(context.Context, string) error { return nil }
func (f *fakeRepo) Close() error                       { return nil }

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func testConfig(srcDir, qDir string) config.Pipeline {
	return config.Pipeline{
		Job: "test",
		Source: config.Source{
			Kind: "dir",
			Dir:  config.SourceDir{Path: srcDir, Glob: "*.csv"},
		},
		Quarantine: config.Quarantine{Dir: qDir},
	}
}

const goodHeader = "client_id,timestamp,event_name,event_data,page_url,referrer,user_agent\n"

func goodRow(client string) string {
	return client + `,2024-05-01T10:00:00,purchase,"{""total"": 9}",https://x/p,,UA` + "\n"
}

func badRow(client string) string {
	return client + ",,login,{},https://x/p,,UA\n"
}

func TestRun_MixedFile(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	writeFile(t, src, "events.csv", goodHeader+goodRow("c1")+badRow("c2")+goodRow("c3"))

	repo := &fakeRepo{}
	sum, err := New(testConfig(src, q), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Read != 3 || sum.Written != 2 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	if len(repo.inserted) != 1 || len(repo.inserted[0]) != 2 {
		t.Fatalf("inserted batches = %v", repo.inserted)
	}
	if len(repo.logs) != 1 {
		t.Fatalf("logs = %v", repo.logs)
	}
	entry := repo.logs[0]
	if entry.Filename != "events.csv" || entry.Status != schema.StatusPartialFailure {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.RowsRead != 3 || entry.RowsInserted != 2 || entry.RowsQuarantined != 1 {
		t.Fatalf("entry counts = %+v", entry)
	}
	if len(entry.Checksum) != 16 {
		t.Fatalf("checksum = %q, want 16 hex chars", entry.Checksum)
	}

	// The quarantine side file holds the bad row plus its reasons.
	qf := filepath.Join(q, "events_errors.csv")
	f, err := os.Open(qf)
	if err != nil {
		t.Fatalf("open quarantine: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read quarantine: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("quarantine rows = %v", recs)
	}
	wantHeader := append(append([]string{}, schema.Fields...), "error_reason")
	if strings.Join(recs[0], ",") != strings.Join(wantHeader, ",") {
		t.Fatalf("quarantine header = %v", recs[0])
	}
	reason := recs[1][len(recs[1])-1]
	if !strings.Contains(reason, "timestamp: timestamp is null") ||
		!strings.Contains(reason, "event_name: is not a recognized event name") {
		t.Fatalf("reason = %q", reason)
	}
}

// TestRun_MissingClientIDRows: rows with an empty client_id quarantine while
// the rest of the file still inserts, and the run log splits the counts.
func TestRun_MissingClientIDRows(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	body := goodHeader
	for i := 0; i < 10; i++ {
		client := "c1"
		if i%3 == 2 { // rows 3, 6, 9
			client = ""
		}
		body += goodRow(client)
	}
	writeFile(t, src, "events.csv", body)

	repo := &fakeRepo{}
	sum, err := New(testConfig(src, q), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Read != 10 || sum.Written != 7 || sum.Failed != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("logs = %v", repo.logs)
	}
	entry := repo.logs[0]
	if entry.RowsRead != 10 || entry.RowsInserted != 7 || entry.RowsQuarantined != 3 {
		t.Fatalf("entry counts = %+v", entry)
	}
	if entry.Status != schema.StatusPartialFailure {
		t.Fatalf("status = %q", entry.Status)
	}

	f, err := os.Open(filepath.Join(q, "events_errors.csv"))
	if err != nil {
		t.Fatalf("open quarantine: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read quarantine: %v", err)
	}
	if len(recs) != 4 { // header + three rows
		t.Fatalf("quarantine rows = %d", len(recs)-1)
	}
	for _, rec := range recs[1:] {
		if reason := rec[len(rec)-1]; !strings.Contains(reason, "client_id") {
			t.Errorf("reason = %q, want client_id mentioned", reason)
		}
	}
}

func TestRun_Statuses(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	writeFile(t, src, "clean.csv", goodHeader+goodRow("c1")+goodRow("c2"))
	writeFile(t, src, "dirty.csv", goodHeader+badRow("c1"))
	writeFile(t, src, "empty.csv", "")

	repo := &fakeRepo{}
	sum, err := New(testConfig(src, q), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	byFile := map[string]schema.RunLogEntry{}
	for _, e := range repo.logs {
		byFile[e.Filename] = e
	}
	if got := byFile["clean.csv"].Status; got != schema.StatusCompleted {
		t.Errorf("clean.csv status = %q", got)
	}
	if got := byFile["dirty.csv"].Status; got != schema.StatusFailed {
		t.Errorf("dirty.csv status = %q", got)
	}
	// A file with no rows at all completes with zero counts.
	if e := byFile["empty.csv"]; e.Status != schema.StatusCompleted || e.RowsRead != 0 {
		t.Errorf("empty.csv entry = %+v", e)
	}

	// Clean files leave no quarantine side file behind.
	if _, err := os.Stat(filepath.Join(q, "clean_errors.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unexpected clean_errors.csv (err=%v)", err)
	}
	if _, err := os.Stat(filepath.Join(q, "dirty_errors.csv")); err != nil {
		t.Errorf("missing dirty_errors.csv: %v", err)
	}
	if sum.Read != 3 {
		t.Errorf("summary read = %d, want 3", sum.Read)
	}
}

// Infrastructure failures abort the run instead of being swallowed into row
// accounting.
func TestRun_InsertFailureIsFatal(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	writeFile(t, src, "events.csv", goodHeader+goodRow("c1"))

	repo := &fakeRepo{insertErr: errors.New("connection lost")}
	if _, err := New(testConfig(src, q), repo).Run(context.Background()); err == nil ||
		!strings.Contains(err.Error(), "connection lost") {
		t.Fatalf("err = %v, want insert failure", err)
	}
}

func TestRun_MissingCoreColumns(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	// No timestamp, no user_agent: every row quarantines but the file, and
	// the run, still complete.
	writeFile(t, src, "events.csv", "client_id,event_name\nc1,purchase\n")

	repo := &fakeRepo{}
	sum, err := New(testConfig(src, q), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Written != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if repo.logs[0].Status != schema.StatusFailed {
		t.Fatalf("status = %q", repo.logs[0].Status)
	}
}

func TestRun_DateTimeDerivation(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	body := "clientId,date,time,eventName,event_data,pageUrl,userAgent\n" +
		`c1,2024-05-01,10:15:00,purchase,"{}",https://x/p,UA` + "\n"
	writeFile(t, src, "split.csv", body)

	repo := &fakeRepo{}
	if _, err := New(testConfig(src, q), repo).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.inserted) != 1 || len(repo.inserted[0]) != 1 {
		t.Fatalf("inserted = %v", repo.inserted)
	}
	ev := repo.inserted[0][0]
	if got := ev.Timestamp.Format("2006-01-02 15:04:05"); got != "2024-05-01 10:15:00" {
		t.Fatalf("derived timestamp = %q", got)
	}
}

func TestRun_ParallelWorkers(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	for _, n := range []string{"a.csv", "b.csv", "c.csv", "d.csv"} {
		writeFile(t, src, n, goodHeader+goodRow("c1"))
	}
	cfg := testConfig(src, q)
	cfg.Runtime.FileWorkers = 4

	repo := &fakeRepo{}
	sum, err := New(cfg, repo).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Written != 4 || len(repo.logs) != 4 {
		t.Fatalf("summary = %+v, logs = %d", sum, len(repo.logs))
	}
}

func TestCheck_Report(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	writeFile(t, src, "events.csv", goodHeader+goodRow("c1")+badRow("c2")+badRow("c3"))

	rep, err := New(testConfig(src, q), nil).Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.Passed != 1 || rep.Failed != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if !rep.HasFailures() {
		t.Fatalf("HasFailures = false")
	}
	if len(rep.Top) == 0 || rep.Top[0].Count != 2 {
		t.Fatalf("Top = %v", rep.Top)
	}
	// Quarantine side files are still written in check mode.
	if _, err := os.Stat(filepath.Join(q, "events_errors.csv")); err != nil {
		t.Fatalf("missing quarantine file: %v", err)
	}
}

func TestCheck_CleanReport(t *testing.T) {
	t.Parallel()

	src, q := t.TempDir(), t.TempDir()
	writeFile(t, src, "events.csv", goodHeader+goodRow("c1"))

	rep, err := New(testConfig(src, q), nil).Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.HasFailures() || len(rep.Top) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		inserted, quarantined int64
		want                  string
	}{
		{2, 0, schema.StatusCompleted},
		{0, 0, schema.StatusCompleted},
		{2, 1, schema.StatusPartialFailure},
		{0, 3, schema.StatusFailed},
	}
	for _, c := range cases {
		if got := statusFor(c.inserted, c.quarantined); got != c.want {
			t.Errorf("statusFor(%d, %d) = %q, want %q", c.inserted, c.quarantined, got, c.want)
		}
	}
}

func TestQuarantinePath(t *testing.T) {
	t.Parallel()

	if got := quarantinePath("/q", "/data/in/events.csv"); got != filepath.Join("/q", "events_errors.csv") {
		t.Errorf("quarantinePath = %q", got)
	}
	// Without a quarantine dir the side file lands next to the source.
	if got := quarantinePath("", "/data/in/events.csv"); got != filepath.Join("/data/in", "events_errors.csv") {
		t.Errorf("quarantinePath = %q", got)
	}
}

func TestErrTally_Top(t *testing.T) {
	t.Parallel()

	tally := newErrTally()
	for i := 0; i < 5; i++ {
		tally.add("common")
	}
	for i := 0; i < 3; i++ {
		tally.add("rare")
	}
	tally.add("b-once")
	tally.add("a-once")

	top := tally.top(3)
	if len(top) != 3 {
		t.Fatalf("top = %v", top)
	}
	if top[0].Message != "common" || top[0].Count != 5 {
		t.Errorf("top[0] = %v", top[0])
	}
	if top[1].Message != "rare" {
		t.Errorf("top[1] = %v", top[1])
	}
	// Ties rank alphabetically.
	if top[2].Message != "a-once" {
		t.Errorf("top[2] = %v", top[2])
	}
}

func TestChecksummer(t *testing.T) {
	t.Parallel()

	a := newChecksummer(strings.NewReader("same bytes"))
	b := newChecksummer(strings.NewReader("same bytes"))
	c := newChecksummer(strings.NewReader("other bytes"))
	for _, cs := range []*checksummer{a, b, c} {
		buf := make([]byte, 4)
		for {
			if _, err := cs.Read(buf); err != nil {
				break
			}
		}
	}
	if a.Hex() != b.Hex() {
		t.Errorf("identical input, different digests: %s vs %s", a.Hex(), b.Hex())
	}
	if a.Hex() == c.Hex() {
		t.Errorf("different input, same digest: %s", a.Hex())
	}
	if len(a.Hex()) != 16 {
		t.Errorf("digest length = %d", len(a.Hex()))
	}
}
