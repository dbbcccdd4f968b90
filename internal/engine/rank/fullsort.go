package rank

import (
	"slices"
	"sync"

	"Go2LineCount/internal/model"
)

// FullSorter sorts every entry. Large inputs are split into one run per worker,
// each run is sorted concurrently, and runs are merged pairwise in parallel rounds.
type FullSorter struct {
	compare Compare
	workers int
}

func (s *FullSorter) Name() string { return "full-sort" }

// Rank sorts entries in place and returns them.
func (s *FullSorter) Rank(entries []model.Entry) []model.Entry {
	n := len(entries)
	if n < parallelCutoff || s.workers <= 1 {
		slices.SortFunc(entries, s.compare)
		return entries
	}

	runs := chunks(n, s.workers)
	var wg sync.WaitGroup
	wg.Add(len(runs))
	for _, r := range runs {
		go func(part []model.Entry) {
			defer wg.Done()
			slices.SortFunc(part, s.compare)
		}(entries[r[0]:r[1]])
	}
	wg.Wait()

	src, dst := entries, make([]model.Entry, n)
	for len(runs) > 1 {
		next := make([][2]int, 0, (len(runs)+1)/2)
		for i := 0; i < len(runs); i += 2 {
			if i+1 == len(runs) {
				r := runs[i]
				copy(dst[r[0]:r[1]], src[r[0]:r[1]])
				next = append(next, r)
				continue
			}
			left, right := runs[i], runs[i+1]
			wg.Add(1)
			go func() {
				defer wg.Done()
				merge(dst[left[0]:right[1]], src[left[0]:left[1]], src[right[0]:right[1]], s.compare)
			}()
			next = append(next, [2]int{left[0], right[1]})
		}
		wg.Wait()
		runs = next
		src, dst = dst, src
	}

	if &src[0] != &entries[0] {
		copy(entries, src)
	}
	return entries
}

// merge writes the ordered union of a and b into dst, which must hold len(a)+len(b).
func merge(dst, a, b []model.Entry, compare Compare) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if compare(a[i], b[j]) <= 0 {
			dst[k] = a[i]
			i++
		} else {
			dst[k] = b[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
