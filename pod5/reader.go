package pod5

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Reader Configuration
// -----------------------------------------------------------------------------

// readerConfig holds the resolved configuration for a Reader.
type readerConfig struct {
	codec            SignalCodec
	validateCapacity bool
	cacheSize        int
}

// Option configures a Reader.
type Option func(*readerConfig)

// WithSignalCodec overrides the codec used for compressed signal batches.
// The default is NewZstdCodec. Combined-file openers override this from the
// container footer.
func WithSignalCodec(c SignalCodec) Option {
	return func(cfg *readerConfig) {
		cfg.codec = c
	}
}

// WithValidatedCapacity verifies the uniform batch-capacity invariant at
// open time: no signal batch may be longer than the first and only the last
// may be shorter. Validation fetches every signal batch once, so it costs a
// full pass over the signal store.
//
// Without this option a non-uniform store is a silent configuration risk:
// resolution for indices in a misconfigured batch is simply wrong.
func WithValidatedCapacity() Option {
	return func(cfg *readerConfig) {
		cfg.validateCapacity = true
	}
}

// WithSignalBatchCache keeps up to n fetched signal batches in memory,
// evicting in insertion order. By default nothing is cached and repeated
// signal access repeats the underlying fetch. The cache is dropped on Close.
func WithSignalBatchCache(n int) Option {
	return func(cfg *readerConfig) {
		cfg.cacheSize = n
	}
}

// -----------------------------------------------------------------------------
// Reader
// -----------------------------------------------------------------------------

// Reader is a read-only session over one read table and one signal table.
//
// A Reader is single-threaded and pull-based: iterators do no work until
// advanced, and nothing is prefetched. It is intended for exclusive use by
// one goroutine.
type Reader struct {
	reads    ReadTable
	signal   SignalTable
	codec    SignalCodec
	resolver signalRowResolver
	cache    *signalBatchCache
}

// NewReader binds an already-open read table and signal table.
//
// If the signal table has at least one batch, the row count of the first
// batch is recorded as the store's batch capacity. Otherwise the capacity
// stays unresolved and any later signal access fails with ErrNoSignal.
func NewReader(ctx context.Context, reads ReadTable, signal SignalTable, opts ...Option) (*Reader, error) {
	if reads == nil {
		return nil, errors.New("pod5: read table is required")
	}
	if signal == nil {
		return nil, errors.New("pod5: signal table is required")
	}

	cfg := &readerConfig{
		codec: NewZstdCodec(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Reader{
		reads:  reads,
		signal: signal,
		codec:  cfg.codec,
	}
	if cfg.cacheSize > 0 {
		r.cache = newSignalBatchCache(cfg.cacheSize)
	}

	if signal.NumBatches() > 0 {
		first, err := signal.Batch(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("pod5: reading first signal batch: %w", err)
		}
		r.resolver = signalRowResolver{capacity: first.NumRows()}
	}

	if cfg.validateCapacity {
		if err := r.validateCapacity(ctx); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// validateCapacity fetches every signal batch and checks the uniformity
// invariant the resolver depends on.
func (r *Reader) validateCapacity(ctx context.Context) error {
	n := r.signal.NumBatches()
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		batch, err := r.signal.Batch(ctx, i)
		if err != nil {
			return fmt.Errorf("pod5: reading signal batch %d: %w", i, err)
		}
		rows[i] = batch.NumRows()
	}
	return r.resolver.validate(rows)
}

// BatchCount returns the number of read batches in the file.
func (r *Reader) BatchCount() int {
	return r.reads.NumBatches()
}

// GetBatch fetches read batch i.
func (r *Reader) GetBatch(ctx context.Context, i int) (*ReadBatch, error) {
	if i < 0 || i >= r.reads.NumBatches() {
		return nil, fmt.Errorf("%w: read batch %d of %d", ErrIndexOutOfRange, i, r.reads.NumBatches())
	}
	batch, err := r.reads.Batch(ctx, i)
	if err != nil {
		return nil, fmt.Errorf("pod5: reading batch %d: %w", i, err)
	}
	return &ReadBatch{reader: r, batch: batch, index: i}, nil
}

// ReadBatches returns a fresh iterator over all read batches in order.
func (r *Reader) ReadBatches(ctx context.Context) *BatchIter {
	return &BatchIter{ctx: ctx, reader: r}
}

// Reads returns a fresh iterator over every read in every batch, in
// batch-then-row order.
func (r *Reader) Reads(ctx context.Context) *ReadIter {
	return &ReadIter{ctx: ctx, batches: r.ReadBatches(ctx)}
}

// SelectReads returns a fresh iterator over exactly the reads whose
// identifier is in ids, preserving file encounter order. Ids not present in
// the file are silently omitted; an empty result is not an error.
func (r *Reader) SelectReads(ctx context.Context, ids ...uuid.UUID) *ReadIter {
	selection := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		selection[id] = struct{}{}
	}
	return &ReadIter{ctx: ctx, batches: r.ReadBatches(ctx), selection: selection}
}

// fetchSignalBatch fetches a signal batch, consulting the optional cache.
func (r *Reader) fetchSignalBatch(ctx context.Context, i int) (SignalRecordBatch, error) {
	if i < 0 || i >= r.signal.NumBatches() {
		return nil, fmt.Errorf("%w: signal batch %d of %d", ErrIndexOutOfRange, i, r.signal.NumBatches())
	}
	if r.cache != nil {
		if batch, ok := r.cache.get(i); ok {
			return batch, nil
		}
	}
	batch, err := r.signal.Batch(ctx, i)
	if err != nil {
		return nil, fmt.Errorf("pod5: reading signal batch %d: %w", i, err)
	}
	if r.cache != nil {
		r.cache.put(i, batch)
	}
	return batch, nil
}

// Close releases both tables and drops any cached batches. The Reader must
// not be used afterwards.
func (r *Reader) Close() error {
	if r.cache != nil {
		r.cache.drop()
	}
	readsErr := r.reads.Close()
	signalErr := r.signal.Close()
	if readsErr != nil {
		return readsErr
	}
	return signalErr
}
