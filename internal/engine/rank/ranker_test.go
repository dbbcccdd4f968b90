package rank

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"Go2LineCount/internal/model"
)

func sample() []model.Entry {
	return []model.Entry{{Key: "c", Count: 2}, {Key: "a", Count: 1}, {Key: "b", Count: 3}}
}

// randomEntries builds n unique keys with heavily tied counts.
func randomEntries(n int, seed uint64) []model.Entry {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	entries := make([]model.Entry, n)
	for i, p := range r.Perm(n) {
		entries[i] = model.Entry{Key: fmt.Sprintf("key-%07d", p), Count: uint64(r.IntN(50) + 1)}
	}
	return entries
}

func TestRank_Small(t *testing.T) {
	tests := []struct {
		name  string
		key   model.SortKey
		limit int
		want  []model.Entry
	}{
		{"count full", model.SortByCount, 0, []model.Entry{{Key: "b", Count: 3}, {Key: "c", Count: 2}, {Key: "a", Count: 1}}},
		{"count partial", model.SortByCount, 2, []model.Entry{{Key: "b", Count: 3}, {Key: "c", Count: 2}}},
		{"key full", model.SortByKey, 0, []model.Entry{{Key: "a", Count: 1}, {Key: "b", Count: 3}, {Key: "c", Count: 2}}},
		{"key partial", model.SortByKey, 2, []model.Entry{{Key: "a", Count: 1}, {Key: "b", Count: 3}}},
		{"limit above size", model.SortByKey, 10, []model.Entry{{Key: "a", Count: 1}, {Key: "b", Count: 3}, {Key: "c", Count: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.key, tt.limit, 4).Rank(sample())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRank_CountTieBreaksOnBytes(t *testing.T) {
	entries := []model.Entry{{Key: "b", Count: 2}, {Key: "\xff", Count: 2}, {Key: "B", Count: 2}, {Key: "a", Count: 5}, {Key: "", Count: 2}}
	got := New(model.SortByCount, 0, 1).Rank(entries)
	want := []model.Entry{{Key: "a", Count: 5}, {Key: "", Count: 2}, {Key: "B", Count: 2}, {Key: "b", Count: 2}, {Key: "\xff", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestNew_Strategy(t *testing.T) {
	tests := []struct {
		key   model.SortKey
		limit int
		want  string
	}{
		{model.SortByCount, 0, "full-sort"},
		{model.SortByKey, 0, "full-sort"},
		{model.SortByCount, 5, "top-k"},
		{model.SortByKey, 5, "top-k"},
		{model.SortNone, 0, "none"},
		{model.SortNone, 5, "none"},
	}
	for _, tt := range tests {
		if got := New(tt.key, tt.limit, 0).Name(); got != tt.want {
			t.Errorf("New(%v, %d): expected %s, got %s", tt.key, tt.limit, tt.want, got)
		}
	}
}

func TestFullSort_IndependentOfWorkers(t *testing.T) {
	base := randomEntries(3*parallelCutoff+11, 7)
	for _, key := range []model.SortKey{model.SortByCount, model.SortByKey} {
		want := slices.Clone(base)
		slices.SortFunc(want, Comparator(key))

		for _, workers := range []int{1, 2, 3, 8, 13} {
			got := New(key, 0, workers).Rank(slices.Clone(base))
			if !slices.Equal(got, want) {
				t.Fatalf("%v with %d workers differs from reference sort", key, workers)
			}
		}
	}
}

func TestTopK_MatchesFullSortPrefix(t *testing.T) {
	base := randomEntries(2*parallelCutoff+5, 42)
	for _, key := range []model.SortKey{model.SortByCount, model.SortByKey} {
		full := New(key, 0, 1).Rank(slices.Clone(base))

		for _, limit := range []int{1, 7, 100, 5000, len(base), len(base) + 3} {
			for _, workers := range []int{1, 4, 9} {
				got := New(key, limit, workers).Rank(slices.Clone(base))
				want := full[:min(limit, len(full))]
				if !slices.Equal(got, want) {
					t.Fatalf("%v limit %d workers %d: top-k differs from full sort prefix", key, limit, workers)
				}
			}
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	base := randomEntries(parallelCutoff+99, 3)
	for _, limit := range []int{0, 25} {
		r := New(model.SortByCount, limit, 6)
		first := r.Rank(slices.Clone(base))
		second := r.Rank(slices.Clone(base))
		if !slices.Equal(first, second) {
			t.Errorf("Ranking with limit %d is not reproducible", limit)
		}
	}
}

func TestPassthrough(t *testing.T) {
	base := randomEntries(100, 5)

	all := New(model.SortNone, 0, 4).Rank(slices.Clone(base))
	if !slices.Equal(all, base) {
		t.Error("SortNone must keep the native order")
	}

	limited := New(model.SortNone, 10, 4).Rank(slices.Clone(base))
	if !slices.Equal(limited, base[:10]) {
		t.Errorf("Expected the first 10 native entries, got %v", limited)
	}
}

func TestRank_Empty(t *testing.T) {
	for _, limit := range []int{0, 3} {
		for _, key := range []model.SortKey{model.SortByCount, model.SortByKey, model.SortNone} {
			if got := New(key, limit, 4).Rank(nil); len(got) != 0 {
				t.Errorf("%v limit %d: expected no entries, got %v", key, limit, got)
			}
		}
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		n, parts int
		want     [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{2, 5, [][2]int{{0, 1}, {1, 2}}},
		{5, 0, [][2]int{{0, 5}}},
		{0, 4, [][2]int{}},
	}
	for _, tt := range tests {
		if got := chunks(tt.n, tt.parts); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("chunks(%d, %d): expected %v, got %v", tt.n, tt.parts, tt.want, got)
		}
	}
}
