package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var errLookup = errors.New("rpc timeout")

type fakeQuerier struct {
	owners map[uint64]string
	fail   map[uint64]bool
	delay  time.Duration

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	closed      atomic.Bool
}

func (f *fakeQuerier) OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if cur <= peak || f.maxInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}
	if f.delay > 0 {
		// later tokens settle first
		time.Sleep(f.delay / time.Duration(tokenID%5+1))
	}
	if f.fail[tokenID] {
		return "", errLookup
	}
	return f.owners[tokenID], nil
}

func (f *fakeQuerier) Close() error {
	f.closed.Store(true)
	return nil
}

type memoryRecorder struct {
	failures []Failure
}

func (m *memoryRecorder) Record(f Failure) { m.failures = append(m.failures, f) }
