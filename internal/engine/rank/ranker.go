// Package rank orders the entries of a frozen frequency table.
//
// A Ranker is chosen once from the sort key and the limit: a parallel full sort
// when no limit is set, a bounded-heap top-K selection when one is, and a plain
// truncation for SortNone. For a given input, sort key and limit every strategy
// returns the same entries in the same order regardless of the worker count.
package rank

import (
	"cmp"
	"runtime"
	"strings"

	"Go2LineCount/internal/model"
)

// parallelCutoff is the input size below which ranking stays on one goroutine.
const parallelCutoff = 1 << 12

// Compare returns a negative number when a ranks before b, a positive number
// when b ranks before a, and zero only for identical entries.
type Compare func(a, b model.Entry) int

// Ranker orders entries and truncates them to its limit.
// Rank may reorder the input slice in place.
type Ranker interface {
	Rank(entries []model.Entry) []model.Entry
	Name() string
}

// byCount orders by count descending, then record bytes ascending.
func byCount(a, b model.Entry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Key, b.Key)
}

// byKey orders by record bytes ascending. Keys are unique in a table, so the
// count tie-break never decides anything.
func byKey(a, b model.Entry) int {
	if c := strings.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return cmp.Compare(b.Count, a.Count)
}

// Comparator returns the comparator of key, or nil for SortNone.
func Comparator(key model.SortKey) Compare {
	switch key {
	case model.SortByCount:
		return byCount
	case model.SortByKey:
		return byKey
	default:
		return nil
	}
}

// New picks the ranking strategy. A limit of 0 means no limit.
// workers <= 0 uses GOMAXPROCS.
func New(key model.SortKey, limit, workers int) Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if limit < 0 {
		limit = 0
	}
	compare := Comparator(key)
	switch {
	case compare == nil:
		return &Passthrough{limit: limit}
	case limit > 0:
		return &TopKSelector{compare: compare, limit: limit, workers: workers}
	default:
		return &FullSorter{compare: compare, workers: workers}
	}
}

// Passthrough keeps the native order and only truncates.
type Passthrough struct {
	limit int
}

func (p *Passthrough) Name() string { return "none" }

func (p *Passthrough) Rank(entries []model.Entry) []model.Entry {
	if p.limit > 0 && p.limit < len(entries) {
		return entries[:p.limit]
	}
	return entries
}

// chunks splits n items into at most parts contiguous [lo, hi) ranges.
func chunks(n, parts int) [][2]int {
	if parts > n {
		parts = n
	}
	if parts < 1 {
		parts = 1
	}
	size := (n + parts - 1) / parts
	out := make([][2]int, 0, parts)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}
