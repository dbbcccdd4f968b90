package rank

import (
	"container/heap"
	"slices"
	"sync"

	"Go2LineCount/internal/model"
)

// TopKSelector finds the first limit entries without sorting the rest.
// Every worker keeps a bounded heap over its chunk; the surviving candidates
// are then sorted and cut to the limit.
type TopKSelector struct {
	compare Compare
	limit   int
	workers int
}

func (s *TopKSelector) Name() string { return "top-k" }

// Rank returns the first limit entries in order. The result does not alias entries.
func (s *TopKSelector) Rank(entries []model.Entry) []model.Entry {
	n := len(entries)
	if n < parallelCutoff || s.workers <= 1 {
		return selectTop(entries, s.limit, s.compare)
	}

	parts := chunks(n, s.workers)
	results := make([][]model.Entry, len(parts))
	var wg sync.WaitGroup
	wg.Add(len(parts))
	for i, p := range parts {
		go func(i int, part []model.Entry) {
			defer wg.Done()
			results[i] = selectTop(part, s.limit, s.compare)
		}(i, entries[p[0]:p[1]])
	}
	wg.Wait()

	candidates := slices.Concat(results...)
	slices.SortFunc(candidates, s.compare)
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}
	return slices.Clip(candidates)
}

// selectTop returns the k best entries of part, ordered.
func selectTop(part []model.Entry, k int, compare Compare) []model.Entry {
	h := &boundedHeap{items: make([]model.Entry, 0, min(k, len(part))), compare: compare}
	for _, e := range part {
		if h.Len() < k {
			heap.Push(h, e)
		} else if compare(e, h.items[0]) < 0 {
			h.items[0] = e
			heap.Fix(h, 0)
		}
	}
	slices.SortFunc(h.items, compare)
	return h.items
}

// boundedHeap keeps the worst retained entry at the root.
type boundedHeap struct {
	items   []model.Entry
	compare Compare
}

func (h *boundedHeap) Len() int           { return len(h.items) }
func (h *boundedHeap) Less(i, j int) bool { return h.compare(h.items[i], h.items[j]) > 0 }
func (h *boundedHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *boundedHeap) Push(x any)         { h.items = append(h.items, x.(model.Entry)) }
func (h *boundedHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}
