package aggregate

import (
	"strings"
	"sync"
)

// Stats summarizes what went through the aggregator.
type Stats struct {
	Folded   int
	Excluded int
}

// Aggregator owns the accumulator of one scan and is its only mutator.
type Aggregator struct {
	mu      sync.Mutex
	acc     Accumulator
	exclude string
	stats   Stats
}

// NewAggregator creates an aggregator for mode that drops exclude in every mode.
func NewAggregator(mode Mode, exclude string) *Aggregator {
	return &Aggregator{acc: New(mode), exclude: exclude}
}

// Mode returns the fixed mode of the scan.
func (a *Aggregator) Mode() Mode { return a.acc.Mode() }

// Fold merges a batch of successes and returns how many were excluded.
func (a *Aggregator) Fold(successes []Ownership) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	excluded := 0
	for _, o := range successes {
		if a.excluded(o.Owner) {
			excluded++
			continue
		}
		a.acc.Add(o)
		a.stats.Folded++
	}
	a.stats.Excluded += excluded
	return excluded
}

// Accumulator exposes the aggregate for export.
func (a *Aggregator) Accumulator() Accumulator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acc
}

// Stats returns the running totals.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// the count table lowercases keys, so the filter ignores case to keep the
// excluded address out of every shape
func (a *Aggregator) excluded(owner string) bool {
	return a.exclude != "" && strings.EqualFold(owner, a.exclude)
}
