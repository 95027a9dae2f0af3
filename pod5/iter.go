package pod5

import (
	"context"

	"github.com/google/uuid"
)

// Iterators are lazy, forward-only, and independent: each call to
// ReadBatches, Reads, or SelectReads constructs a fresh one, and restarting
// means recreating. A caller that wants to stop early just discards the
// iterator; there is no cancellation beyond the context on batch fetches.

// -----------------------------------------------------------------------------
// BatchIter
// -----------------------------------------------------------------------------

// BatchIter iterates read batches in file order.
//
// Usage follows the has-more/produce-next contract:
//
//	it := reader.ReadBatches(ctx)
//	for it.Next() {
//		batch := it.Batch()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type BatchIter struct {
	ctx    context.Context
	reader *Reader
	next   int
	cur    *ReadBatch
	err    error
}

// Next fetches the next batch. It returns false when the iteration is
// exhausted or a fetch failed; check Err afterwards.
func (it *BatchIter) Next() bool {
	if it.err != nil || it.next >= it.reader.BatchCount() {
		return false
	}
	batch, err := it.reader.GetBatch(it.ctx, it.next)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = batch
	it.next++
	return true
}

// Batch returns the batch fetched by the last successful Next.
func (it *BatchIter) Batch() *ReadBatch {
	return it.cur
}

// Err returns the first error encountered, if any.
func (it *BatchIter) Err() error {
	return it.err
}

// -----------------------------------------------------------------------------
// ReadIter
// -----------------------------------------------------------------------------

// ReadIter iterates reads either within one batch or flattened across all
// batches, optionally filtered to a selection of read ids.
type ReadIter struct {
	ctx     context.Context
	batches *BatchIter // nil when iterating a single batch
	single  *ReadBatch

	// selection restricts iteration to the given ids; nil means all reads.
	selection map[uuid.UUID]struct{}

	cur *ReadBatch
	row int
	val *ReadRow
	err error
}

// Next advances to the next (matching) read. It returns false when the
// iteration is exhausted or an error occurred; check Err afterwards.
func (it *ReadIter) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.cur == nil || it.row >= it.cur.NumRows() {
			if !it.advanceBatch() {
				return false
			}
			continue
		}

		read := &ReadRow{reader: it.cur.reader, batch: it.cur.batch, row: it.row}
		it.row++

		if it.selection != nil {
			id, err := read.ReadID()
			if err != nil {
				it.err = err
				return false
			}
			if _, ok := it.selection[id]; !ok {
				continue
			}
		}

		it.val = read
		return true
	}
}

func (it *ReadIter) advanceBatch() bool {
	if it.batches == nil {
		// Single-batch mode: first advance enters the batch, second ends.
		if it.cur != nil || it.single == nil {
			return false
		}
		it.cur = it.single
		it.row = 0
		return true
	}
	if !it.batches.Next() {
		it.err = it.batches.Err()
		return false
	}
	it.cur = it.batches.Batch()
	it.row = 0
	return true
}

// Read returns the read produced by the last successful Next.
func (it *ReadIter) Read() *ReadRow {
	return it.val
}

// Err returns the first error encountered, if any.
func (it *ReadIter) Err() error {
	return it.err
}

// Collect drains the iterator into a slice. Intended for tests and small
// selections; full files should be streamed.
func (it *ReadIter) Collect() ([]*ReadRow, error) {
	var reads []*ReadRow
	for it.Next() {
		reads = append(reads, it.Read())
	}
	return reads, it.Err()
}
