package pod5

import (
	"encoding/binary"
	"fmt"
)

// decodeChunk turns one physical signal row into a typed sample buffer.
//
// The two-case dispatch mirrors the on-disk variants: raw rows are a direct
// little-endian reinterpretation, compressed rows go through the codec. Both
// paths guarantee exactly sampleCount samples or an error; partial results
// are never returned.
func decodeChunk(enc SignalEncoding, codec SignalCodec, payload []byte, sampleCount uint32) ([]int16, error) {
	switch enc {
	case SignalRaw:
		return decodeRawChunk(payload, sampleCount)
	case SignalCompressed:
		if codec == nil {
			return nil, fmt.Errorf("%w: no codec configured for compressed signal", ErrDecode)
		}
		samples, err := codec.Decode(payload, int(sampleCount))
		if err != nil {
			return nil, fmt.Errorf("%w: codec %s: %v", ErrDecode, codec.Name(), err)
		}
		if len(samples) != int(sampleCount) {
			return nil, fmt.Errorf("%w: codec %s returned %d samples, want %d",
				ErrDecode, codec.Name(), len(samples), sampleCount)
		}
		return samples, nil
	default:
		return nil, fmt.Errorf("%w: unknown signal encoding %d", ErrFormat, enc)
	}
}

// decodeRawChunk reinterprets a fixed-width buffer as little-endian int16
// samples. The payload length must match the declared count exactly.
func decodeRawChunk(payload []byte, sampleCount uint32) ([]int16, error) {
	if len(payload) != int(sampleCount)*2 {
		return nil, fmt.Errorf("%w: raw chunk payload is %d bytes, want %d for %d samples",
			ErrFormat, len(payload), int(sampleCount)*2, sampleCount)
	}
	samples := make([]int16, sampleCount)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return samples, nil
}
