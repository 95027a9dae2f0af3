package pod5_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/squigglekit/pod5go/internal/pod5test"
	"github.com/squigglekit/pod5go/pod5"
)

func TestParquetTables_RoundTrip(t *testing.T) {
	f := pod5test.New(t)
	ctx := context.Background()

	var reads, signal bytes.Buffer
	if err := pod5.WriteParquetReadTable(&reads, f.ReadBatches...); err != nil {
		t.Fatalf("WriteParquetReadTable: %v", err)
	}
	if err := pod5.WriteParquetSignalTable(&signal, pod5.SignalCompressed, f.Codec.Name(), f.SignalBatches...); err != nil {
		t.Fatalf("WriteParquetSignalTable: %v", err)
	}

	readTable, err := pod5.OpenParquetReadTable(pod5.NewBytesSource(reads.Bytes()))
	if err != nil {
		t.Fatalf("OpenParquetReadTable: %v", err)
	}
	if readTable.NumBatches() != len(f.ReadBatches) {
		t.Fatalf("read table has %d batches, want %d", readTable.NumBatches(), len(f.ReadBatches))
	}

	signalTable, err := pod5.OpenParquetSignalTable(pod5.NewBytesSource(signal.Bytes()))
	if err != nil {
		t.Fatalf("OpenParquetSignalTable: %v", err)
	}
	if signalTable.NumBatches() != len(f.SignalBatches) {
		t.Fatalf("signal table has %d batches, want %d", signalTable.NumBatches(), len(f.SignalBatches))
	}
	if signalTable.CodecName() != f.Codec.Name() {
		t.Errorf("CodecName = %q, want %q", signalTable.CodecName(), f.Codec.Name())
	}

	r, err := pod5.NewReader(ctx, readTable, signalTable, pod5.WithSignalCodec(f.Codec))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer func() { _ = r.Close() }()

	verifyFixture(t, r, f)
}

// verifyFixture checks every read's metadata and reconstructed signal
// against the fixture's expectations.
func verifyFixture(t *testing.T, r *pod5.Reader, f *pod5test.Fixture) {
	t.Helper()
	ctx := context.Background()

	it := r.Reads(ctx)
	var seen int
	for it.Next() {
		read := it.Read()
		id, err := read.ReadID()
		if err != nil {
			t.Fatalf("ReadID: %v", err)
		}

		want, ok := f.Signals[id]
		if !ok {
			t.Fatalf("unexpected read %s", id)
		}

		got, err := read.Signal(ctx)
		if err != nil {
			t.Fatalf("Signal(%s): %v", id, err)
		}
		if len(got) != len(want) {
			t.Fatalf("read %s: %d samples, want %d", id, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("read %s sample %d = %d, want %d", id, i, got[i], want[i])
			}
		}

		samples, err := read.SampleCount(ctx)
		if err != nil {
			t.Fatalf("SampleCount(%s): %v", id, err)
		}
		if int(samples) != len(want) {
			t.Errorf("read %s: SampleCount = %d, signal length %d", id, samples, len(want))
		}

		pore, err := read.Pore()
		if err != nil {
			t.Fatalf("Pore(%s): %v", id, err)
		}
		if pore.PoreType != "R10.4.1" {
			t.Errorf("read %s: PoreType = %q", id, pore.PoreType)
		}

		info, err := read.RunInfo()
		if err != nil {
			t.Fatalf("RunInfo(%s): %v", id, err)
		}
		if info.SampleRate != 4000 || info.FlowCellID != "FAS12345" {
			t.Errorf("read %s: RunInfo = %+v", id, info)
		}
		if info.AcquisitionStart.IsZero() {
			t.Errorf("read %s: AcquisitionStart not preserved", id)
		}

		seen++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterating reads: %v", err)
	}
	if seen != len(f.Signals) {
		t.Errorf("saw %d reads, want %d", seen, len(f.Signals))
	}
}

func TestOpenParquetReadTable_NotParquet(t *testing.T) {
	_, err := pod5.OpenParquetReadTable(pod5.NewBytesSource([]byte("not a parquet file")))
	if err == nil {
		t.Fatal("expected error for non-parquet source")
	}
}

func TestOpenParquetSignalTable_MissingEncoding(t *testing.T) {
	f := pod5test.New(t)

	// A read table is a valid parquet file but lacks the signal encoding
	// metadata.
	var reads bytes.Buffer
	if err := pod5.WriteParquetReadTable(&reads, f.ReadBatches...); err != nil {
		t.Fatalf("WriteParquetReadTable: %v", err)
	}

	_, err := pod5.OpenParquetSignalTable(pod5.NewBytesSource(reads.Bytes()))
	if err == nil {
		t.Fatal("expected error for missing encoding metadata")
	}
}

func TestWriteParquetSignalTable_RawEncoding(t *testing.T) {
	ctx := context.Background()

	raw := []pod5.MemSignalRecord{
		{Payload: []byte{1, 0, 2, 0, 3, 0}, SampleCount: 3},
	}
	var buf bytes.Buffer
	if err := pod5.WriteParquetSignalTable(&buf, pod5.SignalRaw, "", raw); err != nil {
		t.Fatalf("WriteParquetSignalTable: %v", err)
	}

	table, err := pod5.OpenParquetSignalTable(pod5.NewBytesSource(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenParquetSignalTable: %v", err)
	}
	batch, err := table.Batch(ctx, 0)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if batch.Encoding() != pod5.SignalRaw {
		t.Errorf("Encoding = %v, want SignalRaw", batch.Encoding())
	}
	payload, err := batch.Payload(0)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if len(payload) != 6 {
		t.Errorf("payload length = %d, want 6", len(payload))
	}
}
