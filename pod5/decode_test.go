package pod5

import (
	"errors"
	"fmt"
	"testing"
)

// shortCodec returns one sample fewer than asked, to exercise the length
// contract.
type shortCodec struct{}

func (shortCodec) Name() string                    { return "short" }
func (shortCodec) Encode([]int16) ([]byte, error)  { return nil, nil }
func (shortCodec) Decode(_ []byte, n int) ([]int16, error) {
	return make([]int16, n-1), nil
}

// failCodec always fails.
type failCodec struct{}

func (failCodec) Name() string                   { return "fail" }
func (failCodec) Encode([]int16) ([]byte, error) { return nil, nil }
func (failCodec) Decode([]byte, int) ([]int16, error) {
	return nil, fmt.Errorf("corrupt payload")
}

func TestDecodeRawChunk(t *testing.T) {
	// 4 declared samples, 8-byte little-endian payload.
	payload := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0xff, 0x7f}
	want := []int16{1, -1, -32768, 32767}

	samples, err := decodeChunk(SignalRaw, nil, payload, 4)
	if err != nil {
		t.Fatalf("decodeChunk: %v", err)
	}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestDecodeRawChunk_LengthMismatch(t *testing.T) {
	tests := []struct {
		name        string
		payloadLen  int
		sampleCount uint32
	}{
		{name: "payload too short", payloadLen: 6, sampleCount: 4},
		{name: "payload too long", payloadLen: 10, sampleCount: 4},
		{name: "odd payload", payloadLen: 7, sampleCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeChunk(SignalRaw, nil, make([]byte, tt.payloadLen), tt.sampleCount)
			if !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got: %v", err)
			}
		})
	}
}

func TestDecodeChunk_CompressedRoundTrip(t *testing.T) {
	codec := NewZstdCodec()
	want := []int16{12, -7, 300, 299, 301, 0, -32768, 32767}

	payload, err := codec.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	samples, err := decodeChunk(SignalCompressed, codec, payload, uint32(len(want)))
	if err != nil {
		t.Fatalf("decodeChunk: %v", err)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestDecodeChunk_CodecShortOutput(t *testing.T) {
	_, err := decodeChunk(SignalCompressed, shortCodec{}, []byte{1}, 4)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got: %v", err)
	}
}

func TestDecodeChunk_CodecFailure(t *testing.T) {
	_, err := decodeChunk(SignalCompressed, failCodec{}, []byte{1}, 4)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got: %v", err)
	}
}

func TestDecodeChunk_NoCodec(t *testing.T) {
	_, err := decodeChunk(SignalCompressed, nil, []byte{1}, 4)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got: %v", err)
	}
}
