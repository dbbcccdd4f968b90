package statistic

// Counter is the occurrence counter of one distinct record.
type Counter struct {
	Key   string
	Count uint64
}

// Shard is a part of a sharded map. Shards are owned by the accumulating
// goroutine and become read-only once counting finishes, so they carry no lock.
type Shard struct {
	Counters map[string]*Counter
}
