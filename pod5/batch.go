package pod5

import "fmt"

// ReadBatch wraps one fetched metadata batch.
type ReadBatch struct {
	reader *Reader
	batch  ReadRecordBatch
	index  int
}

// Index returns the batch's position in the read table.
func (b *ReadBatch) Index() int {
	return b.index
}

// NumRows returns the number of reads in the batch.
func (b *ReadBatch) NumRows() int {
	return b.batch.NumRows()
}

// Row returns the read at a row position within the batch.
func (b *ReadBatch) Row(i int) (*ReadRow, error) {
	if i < 0 || i >= b.batch.NumRows() {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, b.batch.NumRows())
	}
	return &ReadRow{reader: b.reader, batch: b.batch, row: i}, nil
}

// Reads returns a fresh iterator over the batch's reads in store order.
// No column is touched until a ReadRow accessor is called.
func (b *ReadBatch) Reads() *ReadIter {
	return &ReadIter{single: b}
}
