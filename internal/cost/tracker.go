package cost

import (
	"maps"
	"slices"
	"sync"
)

// Entry is the spend recorded against one stage and provider.
type Entry struct {
	Stage    string  `json:"stage"`
	Provider string  `json:"provider"`
	Calls    int     `json:"calls"`
	USD      float64 `json:"usd"`
}

type entryKey struct{ stage, provider string }

// Tracker accumulates spend per stage and provider. It is safe for
// concurrent use by pool workers.
type Tracker struct {
	mu      sync.Mutex
	entries map[entryKey]*Entry
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[entryKey]*Entry)}
}

// Add records one call costing usd. A nil tracker ignores the call.
func (t *Tracker) Add(stage, provider string, usd float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	k := entryKey{stage, provider}
	e, ok := t.entries[k]
	if !ok {
		e = &Entry{Stage: stage, Provider: provider}
		t.entries[k] = e
	}
	e.Calls++
	e.USD += usd
}

// Entries returns a snapshot sorted by stage then provider.
func (t *Tracker) Entries() []Entry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := slices.SortedFunc(maps.Keys(t.entries), func(a, b entryKey) int {
		if a.stage != b.stage {
			if a.stage < b.stage {
				return -1
			}
			return 1
		}
		switch {
		case a.provider < b.provider:
			return -1
		case a.provider > b.provider:
			return 1
		}
		return 0
	})
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, *t.entries[k])
	}
	return out
}

// Total returns the spend across all stages.
func (t *Tracker) Total() float64 {
	var total float64
	for _, e := range t.Entries() {
		total += e.USD
	}
	return total
}

// StageTotal returns the spend recorded against stage.
func (t *Tracker) StageTotal(stage string) float64 {
	var total float64
	for _, e := range t.Entries() {
		if e.Stage == stage {
			total += e.USD
		}
	}
	return total
}
