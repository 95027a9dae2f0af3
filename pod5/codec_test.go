package pod5

import (
	"errors"
	"math/rand"
	"testing"
)

func testSignals() map[string][]int16 {
	rng := rand.New(rand.NewSource(42))

	noisy := make([]int16, 1000)
	level := int16(400)
	for i := range noisy {
		level += int16(rng.Intn(11) - 5)
		noisy[i] = level
	}

	incompressible := make([]int16, 256)
	for i := range incompressible {
		incompressible[i] = int16(rng.Intn(65536) - 32768)
	}

	return map[string][]int16{
		"empty":          {},
		"single":         {-42},
		"constant":       {500, 500, 500, 500},
		"noisy":          noisy,
		"incompressible": incompressible,
		"extremes":       {-32768, 32767, -32768, 32767, 0},
	}
}

func TestSignalCodec_RoundTrip(t *testing.T) {
	codecs := []SignalCodec{NewZstdCodec(), NewLZ4Codec()}

	for _, codec := range codecs {
		for name, want := range testSignals() {
			t.Run(codec.Name()+"/"+name, func(t *testing.T) {
				payload, err := codec.Encode(want)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}

				got, err := codec.Decode(payload, len(want))
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if len(got) != len(want) {
					t.Fatalf("decoded %d samples, want %d", len(got), len(want))
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
					}
				}
			})
		}
	}
}

func TestSignalCodec_WrongSampleCount(t *testing.T) {
	codecs := []SignalCodec{NewZstdCodec(), NewLZ4Codec()}
	samples := []int16{1, 2, 3, 4, 5, 6, 7, 8}

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			payload, err := codec.Encode(samples)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			// Asking for fewer samples leaves trailing bytes; asking for
			// more runs out. Both must fail rather than truncate or pad.
			if _, err := codec.Decode(payload, len(samples)-1); err == nil {
				t.Error("expected error for undersized sample count")
			}
			if _, err := codec.Decode(payload, len(samples)+1); err == nil {
				t.Error("expected error for oversized sample count")
			}
		})
	}
}

func TestSignalCodec_CorruptPayload(t *testing.T) {
	codecs := []SignalCodec{NewZstdCodec(), NewLZ4Codec()}

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			if _, err := codec.Decode([]byte{0xde, 0xad, 0xbe, 0xef}, 4); err == nil {
				t.Error("expected error for corrupt payload")
			}
		})
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"dzz", "dzl"} {
		codec, err := CodecByName(name)
		if err != nil {
			t.Fatalf("CodecByName(%q): %v", name, err)
		}
		if codec.Name() != name {
			t.Errorf("CodecByName(%q).Name() = %q", name, codec.Name())
		}
	}

	_, err := CodecByName("vbz")
	if !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got: %v", err)
	}
}
