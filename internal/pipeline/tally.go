package pipeline

import (
	"sort"
	"sync"
)

// errTally counts validation messages by exact string so the reporter can
// rank the most frequent failure modes.
type errTally struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newErrTally() *errTally {
	return &errTally{counts: make(map[string]int64)}
}

func (t *errTally) add(msg string) {
	t.mu.Lock()
	t.counts[msg]++
	t.mu.Unlock()
}

// MessageCount pairs a validation message with its occurrence count.
type MessageCount struct {
	Message string
	Count   int64
}

// top returns the n most frequent messages, ties broken alphabetically so the
// ranking is stable.
func (t *errTally) top(n int) []MessageCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]MessageCount, 0, len(t.counts))
	for msg, c := range t.counts {
		out = append(out, MessageCount{Message: msg, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
