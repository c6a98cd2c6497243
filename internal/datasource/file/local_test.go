package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt", "c.CSV"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Scan(dir, "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}

	got, err = Scan(dir, "*.txt")
	if err != nil {
		t.Fatalf("Scan txt: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "notes.txt" {
		t.Fatalf("Scan txt = %v", got)
	}
}

func TestScan_MissingDir(t *testing.T) {
	t.Parallel()

	if _, err := Scan(filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, err := NewLocal(p).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}

	if _, err := NewLocal(filepath.Join(dir, "missing.csv")).Open(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v, want os.ErrNotExist", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(p).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx err = %v", err)
	}
}
