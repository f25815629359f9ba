package utils

import "github.com/bpevocab/internal/symbol"

// PairCand is a snapshot of a pair's corpus-wide count at push time. It may
// be stale by the time it is popped.
type PairCand struct {
	Pair  symbol.Pair
	Count int // higher wins
}

// PairHeap is a max-heap on Count for use with container/heap. Equal counts
// pop in ascending pair order so training is deterministic.
type PairHeap []PairCand

func (h PairHeap) Len() int { return len(h) }
func (h PairHeap) Less(i, j int) bool {
	if h[i].Count != h[j].Count {
		return h[i].Count > h[j].Count
	}
	return h[i].Pair.Less(h[j].Pair) // lexicographic tie-break
}
func (h PairHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *PairHeap) Push(x any)   { *h = append(*h, x.(PairCand)) }
func (h *PairHeap) Pop() any     { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }
