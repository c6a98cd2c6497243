package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eljeilany/ecom-analytics-studdy/internal/schema"
	"github.com/eljeilany/ecom-analytics-studdy/internal/validate"
)

// writeQuarantine dumps rejected rows to a CSV side file: the canonical
// columns in schema order plus a trailing error_reason. Nil cells render as
// empty so the file round-trips through the same null conventions as input.
func writeQuarantine(path string, rejected []validate.Quarantined) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(append([]string{}, schema.Fields...), "error_reason")
	if err := w.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, q := range rejected {
		for i, field := range schema.Fields {
			record[i] = renderCell(q.Values[field])
		}
		record[len(record)-1] = q.ErrorReason
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
