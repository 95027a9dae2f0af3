package pod5

// signalBatchCache is a bounded cache of fetched signal batches keyed by
// batch index, evicting in insertion order. It exists so that reads whose
// chunks cluster in a few batches do not refetch the same batch per chunk.
//
// The cache is not locked: a Reader session is single-threaded.
type signalBatchCache struct {
	max     int
	entries map[int]SignalRecordBatch
	order   []int
}

func newSignalBatchCache(max int) *signalBatchCache {
	return &signalBatchCache{
		max:     max,
		entries: make(map[int]SignalRecordBatch, max),
	}
}

func (c *signalBatchCache) get(i int) (SignalRecordBatch, bool) {
	batch, ok := c.entries[i]
	return batch, ok
}

func (c *signalBatchCache) put(i int, batch SignalRecordBatch) {
	if _, ok := c.entries[i]; ok {
		return
	}
	if len(c.entries) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[i] = batch
	c.order = append(c.order, i)
}

func (c *signalBatchCache) drop() {
	c.entries = make(map[int]SignalRecordBatch)
	c.order = nil
}
