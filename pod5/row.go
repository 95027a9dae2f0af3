package pod5

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ReadRow is a per-read accessor over one row of a metadata batch.
//
// Scalar and struct accessors touch only the metadata batch. Signal
// accessors resolve the read's abstract signal-row indices against the
// signal store on every call; nothing is memoized, so repeated access
// repeats the underlying I/O (see WithSignalBatchCache).
type ReadRow struct {
	reader *Reader
	batch  ReadRecordBatch
	row    int
}

// ReadID returns the read's 128-bit unique identifier.
func (r *ReadRow) ReadID() (uuid.UUID, error) {
	raw, err := r.batch.ReadID(r.row)
	if err != nil {
		return uuid.UUID{}, err
	}
	if len(raw) != 16 {
		return uuid.UUID{}, fmt.Errorf("%w: read id is %d bytes, want 16", ErrFormat, len(raw))
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return id, nil
}

// ReadNumber returns the integer read number.
func (r *ReadRow) ReadNumber() (uint32, error) {
	return r.batch.ReadNumber(r.row)
}

// StartSample returns the absolute sample offset the read started at.
func (r *ReadRow) StartSample() (uint64, error) {
	return r.batch.StartSample(r.row)
}

// MedianBefore returns the median current level (pA) before the read.
func (r *ReadRow) MedianBefore() (float64, error) {
	return r.batch.MedianBefore(r.row)
}

// Pore returns the pore attributes for the read.
func (r *ReadRow) Pore() (PoreData, error) {
	return r.batch.Pore(r.row)
}

// Calibration returns the ADC calibration for the read.
func (r *ReadRow) Calibration() (CalibrationData, error) {
	return r.batch.Calibration(r.row)
}

// EndReason returns the end reason attributes for the read.
func (r *ReadRow) EndReason() (EndReasonData, error) {
	return r.batch.EndReason(r.row)
}

// RunInfo returns the run attributes for the read.
func (r *ReadRow) RunInfo() (RunInfoData, error) {
	return r.batch.RunInfo(r.row)
}

// SignalRows resolves every chunk of the read to a physical descriptor, in
// acquisition order. No decoding happens; ByteCount is the on-disk payload
// length.
func (r *ReadRow) SignalRows(ctx context.Context) ([]SignalRowInfo, error) {
	indices, err := r.batch.SignalRowIndices(r.row)
	if err != nil {
		return nil, err
	}

	rows := make([]SignalRowInfo, 0, len(indices))
	for _, idx := range indices {
		batchIdx, rowIdx, err := r.reader.resolver.Resolve(idx)
		if err != nil {
			return nil, err
		}
		batch, err := r.reader.fetchSignalBatch(ctx, batchIdx)
		if err != nil {
			return nil, err
		}
		if rowIdx >= batch.NumRows() {
			return nil, fmt.Errorf("%w: signal row %d resolves past batch %d (%d rows)",
				ErrIndexOutOfRange, idx, batchIdx, batch.NumRows())
		}
		samples, err := batch.SampleCount(rowIdx)
		if err != nil {
			return nil, err
		}
		payload, err := batch.Payload(rowIdx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, SignalRowInfo{
			BatchIndex:  batchIdx,
			RowIndex:    rowIdx,
			SampleCount: samples,
			ByteCount:   len(payload),
		})
	}
	return rows, nil
}

// Signal reconstructs the read's full sample trace: every chunk decoded in
// acquisition order and concatenated. A decode failure in any chunk fails
// the whole reconstruction.
func (r *ReadRow) Signal(ctx context.Context) ([]int16, error) {
	indices, err := r.batch.SignalRowIndices(r.row)
	if err != nil {
		return nil, err
	}

	var signal []int16
	for _, idx := range indices {
		chunk, err := r.signalForIndex(ctx, idx)
		if err != nil {
			return nil, err
		}
		signal = append(signal, chunk...)
	}
	return signal, nil
}

// SignalForChunk decodes only chunk i of the read, for windowed access
// without materializing the whole trace.
func (r *ReadRow) SignalForChunk(ctx context.Context, i int) ([]int16, error) {
	indices, err := r.batch.SignalRowIndices(r.row)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(indices) {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrIndexOutOfRange, i, len(indices))
	}
	return r.signalForIndex(ctx, indices[i])
}

// SampleCount returns the total decoded length of the read's signal without
// decoding: the sum of per-chunk declared sample counts.
func (r *ReadRow) SampleCount(ctx context.Context) (uint64, error) {
	rows, err := r.SignalRows(ctx)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, row := range rows {
		total += uint64(row.SampleCount)
	}
	return total, nil
}

// ByteCount returns the total on-disk size of the read's signal: the sum of
// per-chunk payload lengths.
func (r *ReadRow) ByteCount(ctx context.Context) (uint64, error) {
	rows, err := r.SignalRows(ctx)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, row := range rows {
		total += uint64(row.ByteCount)
	}
	return total, nil
}

// signalForIndex resolves and decodes one abstract signal-row index.
func (r *ReadRow) signalForIndex(ctx context.Context, idx uint64) ([]int16, error) {
	batchIdx, rowIdx, err := r.reader.resolver.Resolve(idx)
	if err != nil {
		return nil, err
	}
	batch, err := r.reader.fetchSignalBatch(ctx, batchIdx)
	if err != nil {
		return nil, err
	}
	if rowIdx >= batch.NumRows() {
		return nil, fmt.Errorf("%w: signal row %d resolves past batch %d (%d rows)",
			ErrIndexOutOfRange, idx, batchIdx, batch.NumRows())
	}
	payload, err := batch.Payload(rowIdx)
	if err != nil {
		return nil, err
	}
	samples, err := batch.SampleCount(rowIdx)
	if err != nil {
		return nil, err
	}
	return decodeChunk(batch.Encoding(), r.reader.codec, payload, samples)
}
