package pod5

import (
	"errors"
	"testing"
)

func TestSignalRowResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		index     uint64
		wantBatch int
		wantRow   int
	}{
		{name: "first row", capacity: 3, index: 0, wantBatch: 0, wantRow: 0},
		{name: "last row of first batch", capacity: 3, index: 2, wantBatch: 0, wantRow: 2},
		{name: "first row of second batch", capacity: 3, index: 3, wantBatch: 1, wantRow: 0},
		{name: "chunk 4 with capacity 3", capacity: 3, index: 4, wantBatch: 1, wantRow: 1},
		{name: "capacity 1", capacity: 1, index: 5, wantBatch: 5, wantRow: 0},
		{name: "large index", capacity: 1000, index: 123456, wantBatch: 123, wantRow: 456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := signalRowResolver{capacity: tt.capacity}
			batch, row, err := r.Resolve(tt.index)
			if err != nil {
				t.Fatalf("Resolve(%d): %v", tt.index, err)
			}
			if batch != tt.wantBatch || row != tt.wantRow {
				t.Errorf("Resolve(%d) = (%d, %d), want (%d, %d)",
					tt.index, batch, row, tt.wantBatch, tt.wantRow)
			}
		})
	}
}

func TestSignalRowResolver_UnresolvedCapacity(t *testing.T) {
	r := signalRowResolver{}
	_, _, err := r.Resolve(0)
	if !errors.Is(err, ErrNoSignal) {
		t.Errorf("expected ErrNoSignal, got: %v", err)
	}
}

func TestSignalRowResolver_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rows    []int
		wantErr bool
	}{
		{name: "uniform", rows: []int{3, 3, 3}},
		{name: "short last batch", rows: []int{3, 3, 2}},
		{name: "single batch", rows: []int{3}},
		{name: "oversized batch", rows: []int{3, 4}, wantErr: true},
		{name: "oversized last batch", rows: []int{3, 3, 5}, wantErr: true},
		{name: "short middle batch", rows: []int{3, 1, 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := signalRowResolver{capacity: 3}
			err := r.validate(tt.rows)
			if tt.wantErr && !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got: %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
