package pod5

import "fmt"

// signalRowResolver maps an abstract signal-row index to a physical
// (batch, row) position in the signal store.
//
// The mapping assumes every signal batch except possibly the last holds
// exactly capacity rows. The capacity is established once, from the first
// batch, and is fixed for the life of an open file. A store violating the
// uniformity assumption silently mis-resolves; enable capacity validation
// at open time to reject such stores.
type signalRowResolver struct {
	// capacity is the row count of the first signal batch, 0 when the store
	// has no batches.
	capacity int
}

// Resolve returns the batch and row holding the given abstract index.
func (r signalRowResolver) Resolve(index uint64) (batchIndex, rowIndex int, err error) {
	if r.capacity <= 0 {
		return 0, 0, ErrNoSignal
	}
	cap64 := uint64(r.capacity)
	return int(index / cap64), int(index % cap64), nil
}

// validate checks the uniform-capacity invariant against actual batch sizes:
// no batch may be longer than the capacity and only the last may be shorter.
func (r signalRowResolver) validate(batchRows []int) error {
	for i, n := range batchRows {
		if n > r.capacity {
			return fmt.Errorf("%w: signal batch %d has %d rows, capacity is %d",
				ErrFormat, i, n, r.capacity)
		}
		if n < r.capacity && i != len(batchRows)-1 {
			return fmt.Errorf("%w: signal batch %d has %d rows but is not the last batch",
				ErrFormat, i, n)
		}
	}
	return nil
}
