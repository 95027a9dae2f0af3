package pod5

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// -----------------------------------------------------------------------------
// Sources
// -----------------------------------------------------------------------------

// Source provides random access to one physical file. Implementations exist
// for local files, in-memory buffers, and object storage.
type Source interface {
	io.ReaderAt

	// Size returns the total length of the file in bytes.
	Size() int64
}

// FileSource is a Source over a local file.
type FileSource struct {
	f    *os.File
	size int64
}

// NewFileSource opens a local file for random access.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// NewBytesSource wraps an in-memory buffer as a Source.
func NewBytesSource(data []byte) Source {
	return bytes.NewReader(data)
}

// -----------------------------------------------------------------------------
// Combined container format
// -----------------------------------------------------------------------------

// A combined file embeds both parquet tables in one physical file:
//
//	[reads table][signal table][footer JSON][footer length uint32][magic]
//
// The footer is read with two small tail reads, so combined files open with
// the same random-access cost as split ones.

var containerMagic = [8]byte{'P', 'O', 'D', '5', 'G', 'O', '0', '1'}

const containerTailLen = 12 // uint32 footer length + 8-byte magic

type containerSegment struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

type containerFooter struct {
	Version int              `json:"version"`
	Codec   string           `json:"codec,omitempty"`
	Reads   containerSegment `json:"reads"`
	Signal  containerSegment `json:"signal"`
}

func readContainerFooter(src Source) (*containerFooter, error) {
	size := src.Size()
	if size < containerTailLen {
		return nil, fmt.Errorf("%w: file too short for container tail", ErrFormat)
	}

	tail := make([]byte, containerTailLen)
	if _, err := src.ReadAt(tail, size-containerTailLen); err != nil {
		return nil, fmt.Errorf("pod5: reading container tail: %w", err)
	}
	if !bytes.Equal(tail[4:], containerMagic[:]) {
		return nil, fmt.Errorf("%w: bad container magic", ErrFormat)
	}

	footerLen := int64(binary.LittleEndian.Uint32(tail[:4]))
	if footerLen <= 0 || footerLen > size-containerTailLen {
		return nil, fmt.Errorf("%w: footer length %d out of bounds", ErrFormat, footerLen)
	}

	raw := make([]byte, footerLen)
	if _, err := src.ReadAt(raw, size-containerTailLen-footerLen); err != nil {
		return nil, fmt.Errorf("pod5: reading container footer: %w", err)
	}

	var footer containerFooter
	if err := jsonCodec.Unmarshal(raw, &footer); err != nil {
		return nil, fmt.Errorf("%w: decoding container footer: %v", ErrFormat, err)
	}

	for _, seg := range []containerSegment{footer.Reads, footer.Signal} {
		if seg.Offset < 0 || seg.Length < 0 || seg.Offset+seg.Length > size-containerTailLen-footerLen {
			return nil, fmt.Errorf("%w: container segment out of bounds", ErrFormat)
		}
	}
	return &footer, nil
}

// WriteContainer packages already-written read and signal tables into one
// combined file. codecName records the signal codec for compressed tables;
// pass "" for raw. This is packaging only: table bytes pass through
// untouched.
func WriteContainer(w io.Writer, readsTable, signalTable []byte, codecName string) error {
	footer := containerFooter{
		Version: 1,
		Codec:   codecName,
		Reads:   containerSegment{Offset: 0, Length: int64(len(readsTable))},
		Signal:  containerSegment{Offset: int64(len(readsTable)), Length: int64(len(signalTable))},
	}
	rawFooter, err := jsonCodec.Marshal(&footer)
	if err != nil {
		return fmt.Errorf("pod5: encoding container footer: %w", err)
	}

	for _, chunk := range [][]byte{readsTable, signalTable, rawFooter} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("pod5: writing container: %w", err)
		}
	}

	var tail [containerTailLen]byte
	binary.LittleEndian.PutUint32(tail[:4], uint32(len(rawFooter)))
	copy(tail[4:], containerMagic[:])
	if _, err := w.Write(tail[:]); err != nil {
		return fmt.Errorf("pod5: writing container tail: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Openers
// -----------------------------------------------------------------------------

// OpenCombined opens a combined file from a random-access source. The
// signal codec recorded in the container footer becomes the session codec
// unless overridden by an option. Any closers are closed with the Reader.
func OpenCombined(ctx context.Context, src Source, opts ...Option) (*Reader, error) {
	return openCombined(ctx, src, nil, opts)
}

// OpenCombinedFile opens a combined file from the local filesystem.
func OpenCombinedFile(ctx context.Context, path string, opts ...Option) (*Reader, error) {
	src, err := NewFileSource(path)
	if err != nil {
		return nil, err
	}
	r, err := openCombined(ctx, src, []io.Closer{src}, opts)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return r, nil
}

func openCombined(ctx context.Context, src Source, closers []io.Closer, opts []Option) (*Reader, error) {
	footer, err := readContainerFooter(src)
	if err != nil {
		return nil, err
	}

	readsSrc := io.NewSectionReader(src, footer.Reads.Offset, footer.Reads.Length)
	signalSrc := io.NewSectionReader(src, footer.Signal.Offset, footer.Signal.Length)

	reads, err := OpenParquetReadTable(readsSrc, closers...)
	if err != nil {
		return nil, err
	}
	// Closers are owned by the read table; the signal table shares the file.
	signal, err := OpenParquetSignalTable(signalSrc)
	if err != nil {
		return nil, err
	}

	opts = withCodecName(footer.Codec, signal, opts)
	return NewReader(ctx, reads, signal, opts...)
}

// OpenSplit opens a split physical layout: one source per table. The codec
// recorded in the signal table metadata becomes the session codec unless
// overridden by an option.
func OpenSplit(ctx context.Context, readsSrc, signalSrc Source, opts ...Option) (*Reader, error) {
	reads, err := OpenParquetReadTable(readsSrc)
	if err != nil {
		return nil, err
	}
	signal, err := OpenParquetSignalTable(signalSrc)
	if err != nil {
		return nil, err
	}
	opts = withCodecName("", signal, opts)
	return NewReader(ctx, reads, signal, opts...)
}

// OpenSplitFiles opens a split layout from the local filesystem.
func OpenSplitFiles(ctx context.Context, readsPath, signalPath string, opts ...Option) (*Reader, error) {
	readsSrc, err := NewFileSource(readsPath)
	if err != nil {
		return nil, err
	}
	signalSrc, err := NewFileSource(signalPath)
	if err != nil {
		_ = readsSrc.Close()
		return nil, err
	}

	reads, err := OpenParquetReadTable(readsSrc, readsSrc)
	if err != nil {
		_ = readsSrc.Close()
		_ = signalSrc.Close()
		return nil, err
	}
	signal, err := OpenParquetSignalTable(signalSrc, signalSrc)
	if err != nil {
		_ = readsSrc.Close()
		_ = signalSrc.Close()
		return nil, err
	}

	opts = withCodecName("", signal, opts)
	return NewReader(ctx, reads, signal, opts...)
}

// withCodecName prepends a codec option resolved from file metadata, so
// caller-supplied options still win. The explicit name (container footer)
// takes precedence over the signal table's own metadata.
func withCodecName(name string, signal *ParquetSignalTable, opts []Option) []Option {
	if name == "" {
		name = signal.CodecName()
	}
	if name == "" {
		return opts
	}
	codec, err := CodecByName(name)
	if err != nil {
		// Unknown codec in metadata: leave the default; decode will fail
		// loudly only if a compressed chunk is actually touched.
		return opts
	}
	return append([]Option{WithSignalCodec(codec)}, opts...)
}
