package pod5_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/squigglekit/pod5go/internal/pod5test"
	"github.com/squigglekit/pod5go/pod5"
)

func TestOpenCombined(t *testing.T) {
	f := pod5test.New(t)

	r, err := pod5.OpenCombined(context.Background(), pod5.NewBytesSource(f.CombinedBytes(t)))
	if err != nil {
		t.Fatalf("OpenCombined: %v", err)
	}
	defer func() { _ = r.Close() }()

	// The codec comes from the container footer; no option needed.
	verifyFixture(t, r, f)
}

func TestOpenCombinedFile(t *testing.T) {
	f := pod5test.New(t)
	path := filepath.Join(t.TempDir(), "fixture.pod5")
	f.WriteCombined(t, path)

	r, err := pod5.OpenCombinedFile(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenCombinedFile: %v", err)
	}
	defer func() { _ = r.Close() }()

	verifyFixture(t, r, f)
}

func TestOpenSplitFiles(t *testing.T) {
	f := pod5test.New(t)
	dir := t.TempDir()
	readsPath := filepath.Join(dir, "fixture.reads.parquet")
	signalPath := filepath.Join(dir, "fixture.signal.parquet")
	f.WriteSplit(t, readsPath, signalPath)

	r, err := pod5.OpenSplitFiles(context.Background(), readsPath, signalPath)
	if err != nil {
		t.Fatalf("OpenSplitFiles: %v", err)
	}
	defer func() { _ = r.Close() }()

	// The codec comes from the signal table metadata.
	verifyFixture(t, r, f)
}

func TestOpenCombined_SelectReads(t *testing.T) {
	f := pod5test.New(t)
	ctx := context.Background()

	r, err := pod5.OpenCombined(ctx, pod5.NewBytesSource(f.CombinedBytes(t)))
	if err != nil {
		t.Fatalf("OpenCombined: %v", err)
	}
	defer func() { _ = r.Close() }()

	ids := f.ReadIDs()
	want := []pod5.ReadID{ids[1], ids[3]}

	reads, err := r.SelectReads(ctx, want[1], want[0]).Collect()
	if err != nil {
		t.Fatalf("SelectReads: %v", err)
	}
	if len(reads) != 2 {
		t.Fatalf("selected %d reads, want 2", len(reads))
	}
	for i, read := range reads {
		id, err := read.ReadID()
		if err != nil {
			t.Fatalf("ReadID: %v", err)
		}
		if id != want[i] {
			t.Errorf("selection[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestOpenCombined_BadMagic(t *testing.T) {
	f := pod5test.New(t)
	data := f.CombinedBytes(t)
	data[len(data)-1] ^= 0xff

	_, err := pod5.OpenCombined(context.Background(), pod5.NewBytesSource(data))
	if !errors.Is(err, pod5.ErrFormat) {
		t.Errorf("expected ErrFormat, got: %v", err)
	}
}

func TestOpenCombined_Truncated(t *testing.T) {
	_, err := pod5.OpenCombined(context.Background(), pod5.NewBytesSource([]byte("tiny")))
	if !errors.Is(err, pod5.ErrFormat) {
		t.Errorf("expected ErrFormat, got: %v", err)
	}
}

func TestWriteContainer_PassThrough(t *testing.T) {
	f := pod5test.New(t)

	// Repackaging split tables into a container must not alter the bytes:
	// the combined reader sees identical data.
	var reads, signal bytes.Buffer
	if err := pod5.WriteParquetReadTable(&reads, f.ReadBatches...); err != nil {
		t.Fatalf("WriteParquetReadTable: %v", err)
	}
	if err := pod5.WriteParquetSignalTable(&signal, pod5.SignalCompressed, f.Codec.Name(), f.SignalBatches...); err != nil {
		t.Fatalf("WriteParquetSignalTable: %v", err)
	}

	var combined bytes.Buffer
	if err := pod5.WriteContainer(&combined, reads.Bytes(), signal.Bytes(), f.Codec.Name()); err != nil {
		t.Fatalf("WriteContainer: %v", err)
	}

	r, err := pod5.OpenCombined(context.Background(), pod5.NewBytesSource(combined.Bytes()))
	if err != nil {
		t.Fatalf("OpenCombined: %v", err)
	}
	defer func() { _ = r.Close() }()

	verifyFixture(t, r, f)
}
