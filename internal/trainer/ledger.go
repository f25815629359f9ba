package trainer

import (
	"container/heap"
	"slices"

	"github.com/bpevocab/internal/symbol"
	"github.com/bpevocab/internal/utils"
)

// ledger keeps the corpus-wide pair counts, the pair -> word membership index
// and the candidate queue in lockstep. Nothing outside this file touches the
// three structures directly.
//
// Invariants:
//   - counts[p] is the sum over words of local(p) * freq, and is absent when
//     that sum is zero.
//   - words[p] holds exactly the ids whose tokens contain p; empty sets are
//     removed.
//   - every positive count has at least one queue entry carrying it.
type ledger struct {
	counts map[symbol.Pair]int
	words  map[symbol.Pair]map[int]struct{}
	queue  utils.PairHeap
}

func newLedger() *ledger {
	return &ledger{
		counts: make(map[symbol.Pair]int),
		words:  make(map[symbol.Pair]map[int]struct{}),
	}
}

// record adds n local occurrences of p in word id, weighted by freq.
func (l *ledger) record(p symbol.Pair, id, n, freq int) int {
	if n <= 0 {
		return l.counts[p]
	}
	nv := l.counts[p] + n*freq
	l.counts[p] = nv

	set, ok := l.words[p]
	if !ok {
		set = make(map[int]struct{})
		l.words[p] = set
	}
	set[id] = struct{}{}
	return nv
}

// remove takes n local occurrences of p out of word id. remaining is the
// local count still present in the word afterwards.
func (l *ledger) remove(p symbol.Pair, id, n, freq, remaining int) int {
	nv := l.counts[p] - n*freq
	if nv <= 0 {
		delete(l.counts, p)
		nv = 0
	} else {
		l.counts[p] = nv
	}

	if remaining <= 0 {
		if set, ok := l.words[p]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(l.words, p)
			}
		}
	}
	return nv
}

// seed pushes one candidate per pair with a positive count.
func (l *ledger) seed() {
	l.queue = make(utils.PairHeap, 0, len(l.counts))
	for p, c := range l.counts {
		if c > 0 {
			l.queue = append(l.queue, utils.PairCand{Pair: p, Count: c})
		}
	}
	heap.Init(&l.queue)
}

// reconcile applies the difference between a word's local pair counts before
// and after a merge, and queues the refreshed counts.
func (l *ledger) reconcile(id, freq int, before, after map[symbol.Pair]int) {
	for p, b := range before {
		a := after[p]
		if a == b {
			continue
		}
		var nv int
		if a > b {
			nv = l.record(p, id, a-b, freq)
		} else {
			nv = l.remove(p, id, b-a, freq, a)
		}
		l.push(p, nv)
	}
	for p, a := range after {
		if _, seen := before[p]; seen {
			continue
		}
		l.push(p, l.record(p, id, a, freq))
	}
}

func (l *ledger) push(p symbol.Pair, count int) {
	if count > 0 {
		heap.Push(&l.queue, utils.PairCand{Pair: p, Count: count})
	}
}

// popMax returns the pair with the highest current count. Entries whose
// snapshot no longer matches the live count are re-queued with the live
// count, or dropped when the pair is gone.
func (l *ledger) popMax() (symbol.Pair, int, bool) {
	for l.queue.Len() > 0 {
		c := heap.Pop(&l.queue).(utils.PairCand)
		cur := l.counts[c.Pair]
		if cur != c.Count {
			l.push(c.Pair, cur)
			continue
		}
		return c.Pair, c.Count, true
	}
	return symbol.Pair{}, 0, false
}

// wordsWith returns the sorted ids of the words containing p.
func (l *ledger) wordsWith(p symbol.Pair) []int {
	set := l.words[p]
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// drop forgets p entirely.
func (l *ledger) drop(p symbol.Pair) {
	delete(l.counts, p)
	delete(l.words, p)
}

func (l *ledger) count(p symbol.Pair) int {
	return l.counts[p]
}
