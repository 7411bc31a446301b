// Package scan drives an ownership scan: it splits the token range into
// batches, runs each batch's lookups concurrently and feeds the results to
// the aggregator before exporting.
package scan

import (
	"fmt"
	"math"
)

// Batch is an inclusive run of token ids queried together.
type Batch struct {
	Start uint64
	End   uint64
}

// Len is the number of token ids in the batch.
func (b Batch) Len() int { return int(b.End-b.Start) + 1 }

// InvalidRangeError rejects a scan request before any query is made.
type InvalidRangeError struct {
	Start     uint64
	End       uint64
	BatchSize int
}

func (e *InvalidRangeError) Error() string {
	if e.BatchSize < 1 {
		return fmt.Sprintf("invalid batch size %d", e.BatchSize)
	}
	return fmt.Sprintf("invalid token range %d..%d", e.Start, e.End)
}

// Split partitions [start, end] into consecutive batches of at most size ids.
func Split(start, end uint64, size int) ([]Batch, error) {
	if start > end || size < 1 {
		return nil, &InvalidRangeError{Start: start, End: end, BatchSize: size}
	}
	step := uint64(size)
	n := (end-start)/step + 1
	batches := make([]Batch, 0, min(n, math.MaxInt32))
	for lo := start; ; lo += step {
		hi := end
		if end-lo >= step {
			hi = lo + step - 1
		}
		batches = append(batches, Batch{Start: lo, End: hi})
		if hi == end {
			return batches, nil
		}
	}
}
