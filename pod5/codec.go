package pod5

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Signal chunks compress well after a delta + zigzag + uvarint transform:
// nanopore traces move in small steps, so deltas are short varints. Both
// codecs share the transform and differ only in the byte-stream compressor.

// -----------------------------------------------------------------------------
// Delta transform
// -----------------------------------------------------------------------------

// deltaEncode converts samples to a zigzag-varint delta stream.
func deltaEncode(samples []int16) []byte {
	buf := make([]byte, 0, len(samples)*2)
	var prev int16
	for _, s := range samples {
		delta := int32(s) - int32(prev)
		prev = s
		zz := uint32((delta << 1) ^ (delta >> 31))
		buf = binary.AppendUvarint(buf, uint64(zz))
	}
	return buf
}

// deltaDecode reconstructs exactly sampleCount samples from a zigzag-varint
// delta stream. The stream must contain no trailing bytes.
func deltaDecode(buf []byte, sampleCount int) ([]int16, error) {
	samples := make([]int16, sampleCount)
	var prev int32
	for i := 0; i < sampleCount; i++ {
		zz, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, fmt.Errorf("delta stream truncated at sample %d of %d", i, sampleCount)
		}
		buf = buf[n:]
		delta := int32(zz>>1) ^ -int32(zz&1)
		v := prev + delta
		if v < -32768 || v > 32767 {
			return nil, fmt.Errorf("sample %d overflows int16", i)
		}
		prev = v
		samples[i] = int16(v)
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("delta stream has %d trailing bytes", len(buf))
	}
	return samples, nil
}

// -----------------------------------------------------------------------------
// Zstd Codec ("dzz")
// -----------------------------------------------------------------------------

// zstdCodec implements SignalCodec with a zstd-framed delta stream.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCodec creates the default signal codec: delta + zigzag + uvarint
// wrapped in a Zstandard frame. This is the codec written by acquisition
// tooling and the default for opened files.
func NewZstdCodec() SignalCodec {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	dec, _ := zstd.NewReader(nil)
	return &zstdCodec{enc: enc, dec: dec}
}

func (c *zstdCodec) Name() string {
	return "dzz"
}

func (c *zstdCodec) Encode(samples []int16) ([]byte, error) {
	return c.enc.EncodeAll(deltaEncode(samples), nil), nil
}

func (c *zstdCodec) Decode(payload []byte, sampleCount int) ([]int16, error) {
	raw, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return deltaDecode(raw, sampleCount)
}

// -----------------------------------------------------------------------------
// LZ4 Codec ("dzl")
// -----------------------------------------------------------------------------

// lz4Codec implements SignalCodec with LZ4 block compression.
//
// Payload format: [uncompressedLen uint32][compressedLen uint32][block].
// compressedLen == 0 marks an incompressible block stored verbatim.
type lz4Codec struct{}

// NewLZ4Codec creates an LZ4-based signal codec. It trades compression ratio
// for decode speed relative to NewZstdCodec.
func NewLZ4Codec() SignalCodec {
	return &lz4Codec{}
}

func (c *lz4Codec) Name() string {
	return "dzl"
}

func (c *lz4Codec) Encode(samples []int16) ([]byte, error) {
	raw := deltaEncode(samples)

	out := make([]byte, 8+lz4.CompressBlockBound(len(raw)))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(raw)))

	n, err := lz4.CompressBlock(raw, out[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n == 0 || n >= len(raw) {
		// Incompressible; store the block verbatim.
		binary.LittleEndian.PutUint32(out[4:8], 0)
		return append(out[:8], raw...), nil
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(n))
	return out[:8+n], nil
}

func (c *lz4Codec) Decode(payload []byte, sampleCount int) ([]int16, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("lz4: payload too short for block header")
	}
	rawLen := binary.LittleEndian.Uint32(payload[0:4])
	compLen := binary.LittleEndian.Uint32(payload[4:8])
	block := payload[8:]

	var raw []byte
	if compLen == 0 {
		if len(block) != int(rawLen) {
			return nil, fmt.Errorf("lz4: verbatim block is %d bytes, want %d", len(block), rawLen)
		}
		raw = block
	} else {
		if len(block) != int(compLen) {
			return nil, fmt.Errorf("lz4: compressed block is %d bytes, want %d", len(block), compLen)
		}
		raw = make([]byte, rawLen)
		n, err := lz4.UncompressBlock(block, raw)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if n != int(rawLen) {
			return nil, fmt.Errorf("lz4: decompressed %d bytes, want %d", n, rawLen)
		}
	}
	return deltaDecode(raw, sampleCount)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// CodecByName resolves a codec identifier recorded in file metadata.
func CodecByName(name string) (SignalCodec, error) {
	switch name {
	case "dzz":
		return NewZstdCodec(), nil
	case "dzl":
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
