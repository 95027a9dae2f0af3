// Package pod5test builds deterministic file fixtures for tests.
package pod5test

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/squigglekit/pod5go/pod5"
)

// BatchCapacity is the signal-batch row capacity used by fixtures.
const BatchCapacity = 3

// Fixture is a synthetic dual-table file with known contents.
type Fixture struct {
	// ReadBatches holds the metadata records, one slice per batch.
	ReadBatches [][]pod5.MemReadRecord

	// SignalBatches holds the encoded chunks, one slice per batch, with
	// BatchCapacity rows per batch except possibly the last.
	SignalBatches [][]pod5.MemSignalRecord

	// Signals maps each read id to its expected full decoded trace.
	Signals map[uuid.UUID][]int16

	// Codec encoded the signal payloads.
	Codec pod5.SignalCodec
}

// ReadIDs returns every read id in file encounter order.
func (f *Fixture) ReadIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, batch := range f.ReadBatches {
		for _, rec := range batch {
			id, _ := uuid.FromBytes(rec.ReadID)
			ids = append(ids, id)
		}
	}
	return ids
}

// New builds the standard fixture: two read batches of two reads each, with
// chunked compressed signals spread over signal batches of BatchCapacity
// rows.
func New(t *testing.T) *Fixture {
	t.Helper()

	f := &Fixture{
		Codec:   pod5.NewZstdCodec(),
		Signals: make(map[uuid.UUID][]int16),
	}

	// Chunk lengths per read; chunk count varies so reads straddle signal
	// batch boundaries.
	chunkLens := [][]int{
		{4, 4},
		{4, 4, 2},
		{5},
		{3, 3},
	}

	var chunks []pod5.MemSignalRecord
	nextIndex := uint64(0)
	sample := int16(100)

	var records []pod5.MemReadRecord
	for readNo, lens := range chunkLens {
		id := uuid.MustParse("00000000-0000-0000-0000-00000000000" + string(rune('1'+readNo)))

		var trace []int16
		var indices []uint64
		for _, n := range lens {
			chunk := make([]int16, n)
			for i := range chunk {
				sample += int16((i % 7) - 3)
				chunk[i] = sample
			}
			payload, err := f.Codec.Encode(chunk)
			if err != nil {
				t.Fatalf("encoding fixture chunk: %v", err)
			}
			chunks = append(chunks, pod5.MemSignalRecord{
				Payload:     payload,
				SampleCount: uint32(n),
			})
			indices = append(indices, nextIndex)
			nextIndex++
			trace = append(trace, chunk...)
		}

		f.Signals[id] = trace
		records = append(records, pod5.MemReadRecord{
			ReadID:       id[:],
			ReadNumber:   uint32(1000 + readNo),
			StartSample:  uint64(readNo * 5000),
			MedianBefore: 220.5 + float64(readNo),
			Pore: pod5.PoreData{
				Channel:  uint16(readNo + 1),
				Well:     uint8(readNo%4 + 1),
				PoreType: "R10.4.1",
			},
			Calibration: pod5.CalibrationData{Offset: -240, Scale: 0.175},
			EndReason:   pod5.EndReasonData{Name: "signal_positive", Forced: false},
			RunInfo: pod5.RunInfoData{
				AcquisitionID:    "acq-7fd3",
				AcquisitionStart: time.Date(2024, 11, 4, 9, 30, 0, 0, time.UTC),
				ADCMax:           2047,
				ADCMin:           -2048,
				ExperimentName:   "fixture-run",
				FlowCellID:       "FAS12345",
				ProtocolName:     "sequencing/sequencing_MIN106_DNA",
				ProtocolRunID:    "proto-1",
				SampleID:         "sample-1",
				SampleRate:       4000,
				SequencingKit:    "SQK-LSK114",
				SystemName:       "minion-a",
				SystemType:       "MinION",
			},
			Signal: indices,
		})
	}

	f.ReadBatches = [][]pod5.MemReadRecord{records[:2], records[2:]}

	for len(chunks) > 0 {
		n := BatchCapacity
		if len(chunks) < n {
			n = len(chunks)
		}
		f.SignalBatches = append(f.SignalBatches, chunks[:n])
		chunks = chunks[n:]
	}

	return f
}

// MemTables returns memory-backed tables over the fixture.
func (f *Fixture) MemTables() (pod5.ReadTable, pod5.SignalTable) {
	return pod5.NewMemReadTable(f.ReadBatches...),
		pod5.NewMemSignalTable(pod5.SignalCompressed, f.SignalBatches...)
}

// CombinedBytes serializes the fixture as a combined container.
func (f *Fixture) CombinedBytes(t *testing.T) []byte {
	t.Helper()

	var reads, signal bytes.Buffer
	if err := pod5.WriteParquetReadTable(&reads, f.ReadBatches...); err != nil {
		t.Fatalf("writing fixture read table: %v", err)
	}
	if err := pod5.WriteParquetSignalTable(&signal, pod5.SignalCompressed, f.Codec.Name(), f.SignalBatches...); err != nil {
		t.Fatalf("writing fixture signal table: %v", err)
	}

	var out bytes.Buffer
	if err := pod5.WriteContainer(&out, reads.Bytes(), signal.Bytes(), f.Codec.Name()); err != nil {
		t.Fatalf("writing fixture container: %v", err)
	}
	return out.Bytes()
}

// WriteCombined writes the fixture as a combined file at path.
func (f *Fixture) WriteCombined(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, f.CombinedBytes(t), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
}

// WriteSplit writes the fixture as a split pair of parquet files.
func (f *Fixture) WriteSplit(t *testing.T, readsPath, signalPath string) {
	t.Helper()

	var reads, signal bytes.Buffer
	if err := pod5.WriteParquetReadTable(&reads, f.ReadBatches...); err != nil {
		t.Fatalf("writing fixture read table: %v", err)
	}
	if err := pod5.WriteParquetSignalTable(&signal, pod5.SignalCompressed, f.Codec.Name(), f.SignalBatches...); err != nil {
		t.Fatalf("writing fixture signal table: %v", err)
	}
	if err := os.WriteFile(readsPath, reads.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture reads file: %v", err)
	}
	if err := os.WriteFile(signalPath, signal.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture signal file: %v", err)
	}
}
