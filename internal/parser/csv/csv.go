// Package csv reads event CSV files into raw rows keyed by their sanitized
// source headers. It stays deliberately tolerant: variable field counts,
// optional lazy quoting, and a configurable set of cell literals treated as
// null, so that header reconciliation and validation downstream see the file
// as it really is.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/eljeilany/ecom-analytics-studdy/internal/config"
	"github.com/eljeilany/ecom-analytics-studdy/internal/header"
	"github.com/eljeilany/ecom-analytics-studdy/pkg/records"
)

// defaultNullValues are cell literals read as null. Exports from spreadsheet
// tools and dataframe libraries commonly spell missing cells these ways.
var defaultNullValues = []string{"", "null", "NULL", "None"}

// ReadRows reads an entire CSV stream.
//
// The first line is the header row; its tokens are sanitized (BOM and edge
// whitespace stripped) and become the row keys. Every following line becomes
// one records.Record. Cells beyond the header width are dropped; missing
// cells and null literals become nil. When two header tokens sanitize to the
// same name, the first non-null cell wins.
//
// A stream with no header row at all returns (nil, nil, nil): an empty file
// is not itself an error.
//
// Options (all optional):
//   - comma (string; first rune; default ',')
//   - trim_space (bool; default true)
//   - lazy_quotes (bool; default true)
//   - null_values ([]string; default ["", "null", "NULL", "None"])
func ReadRows(src io.Reader, opt config.Options) ([]string, []records.Record, error) {
	cr := csv.NewReader(src)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", true)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	trim := opt.Bool("trim_space", true)

	nulls := defaultNullValues
	if opt.Has("null_values") {
		nulls = opt.StringSlice("null_values")
	}
	nullSet := make(map[string]struct{}, len(nulls))
	for _, n := range nulls {
		nullSet[n] = struct{}{}
	}

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	headers := make([]string, len(hdr))
	for i, h := range hdr {
		headers[i] = header.Sanitize(h)
	}

	var rows []records.Record
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return headers, rows, nil
		}
		line++
		if err != nil {
			return headers, rows, fmt.Errorf("line %d: %w", line, err)
		}

		row := make(records.Record, len(headers))
		for i, name := range headers {
			var v any
			if i < len(rec) {
				v = cellValue(rec[i], trim, nullSet)
			}
			if existing, ok := row[name]; ok && existing != nil {
				continue
			}
			row[name] = v
		}
		rows = append(rows, row)
	}
}

// cellValue trims the cell when configured and maps null literals to nil.
func cellValue(cell string, trim bool, nullSet map[string]struct{}) any {
	if trim {
		cell = trimEdgeSpace(cell)
	}
	if _, isNull := nullSet[cell]; isNull {
		return nil
	}
	return cell
}

// trimEdgeSpace trims leading/trailing ASCII whitespace without the full
// strings.TrimSpace unicode tables; CSV cells rarely carry exotic spaces.
func trimEdgeSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
