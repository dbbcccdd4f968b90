package exact

import (
	"errors"
	"io"
	"math"
	"sync"

	"Go2LineCount/internal/engine/impl/exact/statistic"
	"Go2LineCount/internal/model"
	"Go2LineCount/pkg/records"
)

const defaultShardCount = 64

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// Table is the frequency table: every distinct record mapped to its occurrence count.
// Accumulation is strictly sequential; once counting ends the table is only read,
// and concurrent readers are safe.
// Counters saturate at math.MaxUint64 instead of wrapping.
type Table struct {
	name       string
	shards     []*statistic.Shard
	shardCount uint32
	total      uint64
	distinct   int
}

// New creates an empty frequency table split into numShards hash shards.
func New(name string, numShards uint32) *Table {
	if numShards == 0 || numShards >= 32768 {
		numShards = defaultShardCount
	}
	t := &Table{
		name:       name,
		shards:     make([]*statistic.Shard, numShards),
		shardCount: numShards,
	}
	for i := range t.shards {
		t.shards[i] = &statistic.Shard{Counters: make(map[string]*statistic.Counter)}
	}
	return t
}

// Name returns the name of the table.
func (t *Table) Name() string {
	return t.name
}

// Insert accounts for one occurrence of record. The bytes are copied only when
// the record is seen for the first time.
func (t *Table) Insert(record []byte) {
	shard := t.getShard(record)
	if c, ok := shard.Counters[string(record)]; ok {
		if c.Count < math.MaxUint64 {
			c.Count++
		}
	} else {
		key := string(record)
		shard.Counters[key] = &statistic.Counter{Key: key, Count: 1}
		t.distinct++
	}
	if t.total < math.MaxUint64 {
		t.total++
	}
}

// CountFrom drains r into the table. Records are accounted for one at a time in
// stream order; a read failure aborts counting and is returned as is.
func (t *Table) CountFrom(r *records.Reader) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		t.Insert(rec)
	}
}

// Get returns the count of record, or 0 if it was never seen.
func (t *Table) Get(record string) uint64 {
	if c, ok := t.getShard([]byte(record)).Counters[record]; ok {
		return c.Count
	}
	return 0
}

// Len returns the number of distinct records.
func (t *Table) Len() int {
	return t.distinct
}

// Total returns the number of records accounted for.
func (t *Table) Total() uint64 {
	return t.total
}

// Entries materializes the table into a slice in native iteration order, which is
// unspecified. Shards are copied concurrently into disjoint ranges of the result.
func (t *Table) Entries() []model.Entry {
	entries := make([]model.Entry, t.distinct)

	offsets := make([]int, t.shardCount)
	next := 0
	for i, shard := range t.shards {
		offsets[i] = next
		next += len(shard.Counters)
	}

	var wg sync.WaitGroup
	for i, shard := range t.shards {
		if len(shard.Counters) == 0 {
			continue
		}
		wg.Add(1)
		go func(dst []model.Entry, shard *statistic.Shard) {
			defer wg.Done()
			j := 0
			for _, c := range shard.Counters {
				dst[j] = model.Entry{Key: c.Key, Count: c.Count}
				j++
			}
		}(entries[offsets[i]:offsets[i]+len(shard.Counters)], shard)
	}
	wg.Wait()

	return entries
}

// getShard returns the shard for a record using FNV-1a.
func (t *Table) getShard(record []byte) *statistic.Shard {
	h := uint32(fnvOffset32)
	for _, b := range record {
		h ^= uint32(b)
		h *= fnvPrime32
	}
	return t.shards[h%t.shardCount]
}
