package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/squigglekit/pod5go/internal/pod5test"
	"github.com/squigglekit/pod5go/pod5"
)

// -----------------------------------------------------------------------------
// Unit tests for the S3 source
// These use the mock client and don't require real S3/LocalStack/MinIO.
// -----------------------------------------------------------------------------

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil, Config{Bucket: "test"})
	if err == nil {
		t.Error("expected error for nil client")
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(NewMockS3Client(), Config{})
	if err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestNew_PrefixNormalization(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"", ""},
		{"runs", "runs/"},
		{"runs/", "runs/"},
		{"runs/2026", "runs/2026/"},
	}

	for _, tt := range tests {
		opener, err := New(NewMockS3Client(), Config{Bucket: "test", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if opener.prefix != tt.expected {
			t.Errorf("prefix %q: expected %q, got %q", tt.prefix, tt.expected, opener.prefix)
		}
	}
}

func TestOpener_Source_NotFound(t *testing.T) {
	ctx := context.Background()
	opener, _ := New(NewMockS3Client(), Config{Bucket: "test"})

	_, err := opener.Source(ctx, "missing.pod5")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestOpener_Source_PrefixedKey(t *testing.T) {
	ctx := context.Background()
	mock := NewMockS3Client()
	mock.PutObjectBytes("runs/flowcell.pod5", []byte{1, 2, 3, 4})

	opener, _ := New(mock, Config{Bucket: "test", Prefix: "runs"})
	src, err := opener.Source(ctx, "flowcell.pod5")
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if src.Size() != 4 {
		t.Errorf("Size = %d, want 4", src.Size())
	}
}

func TestSource_ReadAt(t *testing.T) {
	ctx := context.Background()
	mock := NewMockS3Client()
	mock.PutObjectBytes("data.pod5", []byte("0123456789"))

	opener, _ := New(mock, Config{Bucket: "test"})
	src, err := opener.Source(ctx, "data.pod5")
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}

	tests := []struct {
		name    string
		off     int64
		length  int
		want    string
		wantErr error
	}{
		{"full object", 0, 10, "0123456789", nil},
		{"interior window", 3, 4, "3456", nil},
		{"tail", 8, 2, "89", nil},
		{"past end", 6, 10, "6789", io.EOF},
		{"at end", 10, 4, "", io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.length)
			n, err := src.ReadAt(buf, tt.off)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadAt error = %v, want %v", err, tt.wantErr)
			}
			if got := string(buf[:n]); got != tt.want {
				t.Errorf("ReadAt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSource_ReadAt_NegativeOffset(t *testing.T) {
	ctx := context.Background()
	mock := NewMockS3Client()
	mock.PutObjectBytes("data.pod5", []byte("abc"))

	opener, _ := New(mock, Config{Bucket: "test"})
	src, err := opener.Source(ctx, "data.pod5")
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}

	if _, err := src.ReadAt(make([]byte, 1), -1); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestSource_OpenCombined(t *testing.T) {
	ctx := context.Background()
	f := pod5test.New(t)

	mock := NewMockS3Client()
	mock.PutObjectBytes("runs/fixture.pod5", f.CombinedBytes(t))

	opener, _ := New(mock, Config{Bucket: "test", Prefix: "runs"})
	src, err := opener.Source(ctx, "fixture.pod5")
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}

	r, err := pod5.OpenCombined(ctx, src)
	if err != nil {
		t.Fatalf("OpenCombined over S3 source: %v", err)
	}
	defer func() { _ = r.Close() }()

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
		seen++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterating reads: %v", err)
	}
	if seen != len(f.Signals) {
		t.Errorf("saw %d reads, want %d", seen, len(f.Signals))
	}
	if mock.GetObjectCalls == 0 {
		t.Error("expected ranged GetObject calls against the mock")
	}
}
