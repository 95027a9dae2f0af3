// Package pod5 provides read-only, random-access decoding of dual-store
// columnar nanopore sequencing data.
//
// A file binds two columnar stores: a read table holding per-read metadata
// and a signal table holding chunked, possibly-compressed raw samples. The
// package focuses on the read path: resolving a read's abstract signal-row
// indices to physical (batch, row) positions and reconstructing full sample
// traces. It does not implement acquisition, basecalling, or a writer.
package pod5

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Signal encoding
// -----------------------------------------------------------------------------

// SignalEncoding identifies how a signal batch stores its sample payloads.
//
// The encoding is a property of the batch schema, resolved once per batch,
// not inspected per row.
type SignalEncoding int

const (
	// SignalRaw stores samples as a fixed-width little-endian int16 buffer.
	SignalRaw SignalEncoding = iota

	// SignalCompressed stores samples as a variable-length buffer that must
	// be decoded by the file's SignalCodec.
	SignalCompressed
)

// String returns the encoding identifier used in file metadata.
func (e SignalEncoding) String() string {
	switch e {
	case SignalRaw:
		return "raw"
	case SignalCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Attribute records
// -----------------------------------------------------------------------------

// PoreData describes the pore a read was acquired through.
type PoreData struct {
	// Channel is the 1-indexed channel the read occurred on.
	Channel uint16

	// Well is the well within the channel.
	Well uint8

	// PoreType is the pore chemistry identifier.
	PoreType string
}

// CalibrationData converts raw ADC samples to picoamps:
// pA = (adc + Offset) * Scale.
type CalibrationData struct {
	Offset float64
	Scale  float64
}

// EndReasonData describes why acquisition of a read ended.
type EndReasonData struct {
	// Name is the end reason identifier (e.g. "signal_positive").
	Name string

	// Forced reports whether the end was forced by the device rather than
	// observed in the signal.
	Forced bool
}

// RunInfoData describes the sequencing run a read belongs to.
type RunInfoData struct {
	AcquisitionID    string
	AcquisitionStart time.Time
	ADCMax           int16
	ADCMin           int16
	ExperimentName   string
	FlowCellID       string
	ProtocolName     string
	ProtocolRunID    string
	SampleID         string
	SampleRate       uint32
	SequencingKit    string
	SystemName       string
	SystemType       string
}

// -----------------------------------------------------------------------------
// Signal row descriptors
// -----------------------------------------------------------------------------

// SignalRowInfo describes one physical chunk of a read's signal.
type SignalRowInfo struct {
	// BatchIndex is the signal-table batch holding the chunk.
	BatchIndex int

	// RowIndex is the row within that batch.
	RowIndex int

	// SampleCount is the declared number of int16 samples in the chunk.
	SampleCount uint32

	// ByteCount is the on-disk payload length in bytes, compressed size for
	// compressed encodings. It is not the decoded length.
	ByteCount int
}

// -----------------------------------------------------------------------------
// Store interfaces
// -----------------------------------------------------------------------------

// ReadTable is the metadata store: ordered batches of per-read records.
//
// Implementations are expected to be used by a single reader session;
// concurrent access is not guarded at this layer.
type ReadTable interface {
	// NumBatches returns the number of record batches in the table.
	NumBatches() int

	// Batch fetches batch i. Implementations return ErrIndexOutOfRange for
	// out-of-range indices.
	Batch(ctx context.Context, i int) (ReadRecordBatch, error)

	// Close releases resources held by the table.
	Close() error
}

// ReadRecordBatch exposes the columns of one metadata batch by row.
type ReadRecordBatch interface {
	NumRows() int

	// ReadID returns the raw identifier bytes for a row. Callers validate
	// the 16-byte length; implementations return whatever is stored.
	ReadID(row int) ([]byte, error)

	ReadNumber(row int) (uint32, error)
	StartSample(row int) (uint64, error)
	MedianBefore(row int) (float64, error)

	Pore(row int) (PoreData, error)
	Calibration(row int) (CalibrationData, error)
	EndReason(row int) (EndReasonData, error)
	RunInfo(row int) (RunInfoData, error)

	// SignalRowIndices returns the read's abstract signal-row indices in
	// acquisition order.
	SignalRowIndices(row int) ([]uint64, error)
}

// SignalTable is the signal store: ordered batches of chunk rows.
//
// All batches except possibly the last are assumed to share the row capacity
// of the first batch. This uniformity is load-bearing for index resolution;
// see Reader and WithValidatedCapacity.
type SignalTable interface {
	NumBatches() int
	Batch(ctx context.Context, i int) (SignalRecordBatch, error)
	Close() error
}

// SignalRecordBatch exposes the columns of one signal batch by row.
type SignalRecordBatch interface {
	NumRows() int

	// Encoding reports how this batch stores payloads, resolved from the
	// batch schema.
	Encoding() SignalEncoding

	// Payload returns the on-disk chunk bytes for a row.
	Payload(row int) ([]byte, error)

	// SampleCount returns the declared decoded sample count for a row.
	SampleCount(row int) (uint32, error)
}

// -----------------------------------------------------------------------------
// Signal codec
// -----------------------------------------------------------------------------

// SignalCodec compresses and decompresses int16 sample chunks.
//
// Decode is a pure function with a length-prefixed contract: given a payload
// and the expected sample count it must return exactly that many samples or
// fail. Implementations never truncate or pad.
type SignalCodec interface {
	// Name returns the codec identifier (for example "dzz" or "dzl").
	Name() string

	// Encode compresses a sample chunk.
	Encode(samples []int16) ([]byte, error)

	// Decode decompresses a payload into exactly sampleCount samples.
	Decode(payload []byte, sampleCount int) ([]int16, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for the reader's failure taxonomy.
var (
	// ErrFormat indicates malformed stored data: wrong-length identifier
	// bytes or a payload inconsistent with its declared encoding.
	ErrFormat = errors.New("pod5: malformed data")

	// ErrIndexOutOfRange indicates an out-of-range batch or chunk index.
	ErrIndexOutOfRange = errors.New("pod5: index out of range")

	// ErrDecode indicates the signal codec could not produce the declared
	// sample count.
	ErrDecode = errors.New("pod5: signal decode failed")

	// ErrNoSignal indicates the signal store has no batches, so the batch
	// row capacity is undefined and signal access cannot resolve.
	ErrNoSignal = errors.New("pod5: signal store has no batches")

	// ErrUnknownCodec indicates an unrecognized signal codec name.
	ErrUnknownCodec = errors.New("pod5: unknown signal codec")
)

// ReadID is a convenience alias for the 128-bit read identifier type.
type ReadID = uuid.UUID
