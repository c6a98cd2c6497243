// Package records defines the loosely-typed record shape passed between
// pipeline stages. A Record maps canonical column names to raw cell values:
// strings as read from the source, nil for absent/empty cells, or typed
// values once a stage has coerced them.
package records

// Record is a single logical row keyed by canonical column name.
type Record map[string]any

// Clone returns a shallow copy of r. Stages that must not mutate their input
// (the row normalizer, quarantine capture) operate on clones.
func Clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
