package pod5

import (
	"context"
	"fmt"
)

// In-memory tables back tests and let callers assemble files from data they
// already hold. They implement the same contracts as the parquet-backed
// tables, minus the I/O.

// MemReadRecord is one read's metadata in a memory-backed read table.
type MemReadRecord struct {
	// ReadID holds the raw identifier bytes. 16 bytes for a valid read;
	// other lengths are stored as-is and surface as ErrFormat on access.
	ReadID []byte

	ReadNumber   uint32
	StartSample  uint64
	MedianBefore float64

	Pore        PoreData
	Calibration CalibrationData
	EndReason   EndReasonData
	RunInfo     RunInfoData

	// Signal lists the read's abstract signal-row indices in acquisition
	// order.
	Signal []uint64
}

// MemSignalRecord is one signal chunk in a memory-backed signal table.
type MemSignalRecord struct {
	Payload     []byte
	SampleCount uint32
}

// -----------------------------------------------------------------------------
// Memory read table
// -----------------------------------------------------------------------------

type memReadTable struct {
	batches [][]MemReadRecord
}

// NewMemReadTable creates a read table from explicit batches of records.
func NewMemReadTable(batches ...[]MemReadRecord) ReadTable {
	return &memReadTable{batches: batches}
}

func (t *memReadTable) NumBatches() int {
	return len(t.batches)
}

func (t *memReadTable) Batch(_ context.Context, i int) (ReadRecordBatch, error) {
	if i < 0 || i >= len(t.batches) {
		return nil, fmt.Errorf("%w: read batch %d of %d", ErrIndexOutOfRange, i, len(t.batches))
	}
	return memReadBatch(t.batches[i]), nil
}

func (t *memReadTable) Close() error {
	return nil
}

type memReadBatch []MemReadRecord

func (b memReadBatch) NumRows() int {
	return len(b)
}

func (b memReadBatch) record(row int) (*MemReadRecord, error) {
	if row < 0 || row >= len(b) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b))
	}
	return &b[row], nil
}

func (b memReadBatch) ReadID(row int) ([]byte, error) {
	rec, err := b.record(row)
	if err != nil {
		return nil, err
	}
	return rec.ReadID, nil
}

func (b memReadBatch) ReadNumber(row int) (uint32, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return rec.ReadNumber, nil
}

func (b memReadBatch) StartSample(row int) (uint64, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return rec.StartSample, nil
}

func (b memReadBatch) MedianBefore(row int) (float64, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return rec.MedianBefore, nil
}

func (b memReadBatch) Pore(row int) (PoreData, error) {
	rec, err := b.record(row)
	if err != nil {
		return PoreData{}, err
	}
	return rec.Pore, nil
}

func (b memReadBatch) Calibration(row int) (CalibrationData, error) {
	rec, err := b.record(row)
	if err != nil {
		return CalibrationData{}, err
	}
	return rec.Calibration, nil
}

func (b memReadBatch) EndReason(row int) (EndReasonData, error) {
	rec, err := b.record(row)
	if err != nil {
		return EndReasonData{}, err
	}
	return rec.EndReason, nil
}

func (b memReadBatch) RunInfo(row int) (RunInfoData, error) {
	rec, err := b.record(row)
	if err != nil {
		return RunInfoData{}, err
	}
	return rec.RunInfo, nil
}

func (b memReadBatch) SignalRowIndices(row int) ([]uint64, error) {
	rec, err := b.record(row)
	if err != nil {
		return nil, err
	}
	return rec.Signal, nil
}

// -----------------------------------------------------------------------------
// Memory signal table
// -----------------------------------------------------------------------------

type memSignalTable struct {
	encoding SignalEncoding
	batches  [][]MemSignalRecord
}

// NewMemSignalTable creates a signal table from explicit batches of chunks,
// all sharing one encoding.
func NewMemSignalTable(encoding SignalEncoding, batches ...[]MemSignalRecord) SignalTable {
	return &memSignalTable{encoding: encoding, batches: batches}
}

func (t *memSignalTable) NumBatches() int {
	return len(t.batches)
}

func (t *memSignalTable) Batch(_ context.Context, i int) (SignalRecordBatch, error) {
	if i < 0 || i >= len(t.batches) {
		return nil, fmt.Errorf("%w: signal batch %d of %d", ErrIndexOutOfRange, i, len(t.batches))
	}
	return &memSignalBatch{encoding: t.encoding, rows: t.batches[i]}, nil
}

func (t *memSignalTable) Close() error {
	return nil
}

type memSignalBatch struct {
	encoding SignalEncoding
	rows     []MemSignalRecord
}

func (b *memSignalBatch) NumRows() int {
	return len(b.rows)
}

func (b *memSignalBatch) Encoding() SignalEncoding {
	return b.encoding
}

func (b *memSignalBatch) Payload(row int) ([]byte, error) {
	if row < 0 || row >= len(b.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b.rows))
	}
	return b.rows[row].Payload, nil
}

func (b *memSignalBatch) SampleCount(row int) (uint32, error) {
	if row < 0 || row >= len(b.rows) {
		return 0, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b.rows))
	}
	return b.rows[row].SampleCount, nil
}
