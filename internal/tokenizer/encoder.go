package tokenizer

import (
	"github.com/bpevocab/internal/utils"
)

// LowestRankFirst segments word and repeatedly merges the adjacent pair with
// the lowest rank, the leftmost one on ties, until no adjacent pair has a
// rank. Results are memoized per (boundary, rule fingerprint, lowercased word).
func (t *Tokenizer) LowestRankFirst(word string) []string {
	key := t.resultKey(word)
	if toks, ok := t.caches.result(key); ok {
		return toks
	}

	toks := t.mergeByRank(t.segment(word), t.ranks())
	t.caches.storeResult(key, toks)
	return append([]string(nil), toks...)
}

// mergeByRank runs the priority merge over toks in place. Symbols live in
// slots linked as a list; a merge always keeps the left slot, so slot order
// is sequence order and the heap's (rank, slot) ordering picks the leftmost
// lowest-rank pair. Per-slot versions invalidate heap entries that an earlier
// merge made stale.
func (t *Tokenizer) mergeByRank(toks []string, rt *RankTable) []string {
	n := len(toks)
	if n < 2 || rt.Len() == 0 {
		return toks
	}

	scratch := t.acquireScratch(n)
	defer t.releaseScratch(scratch)

	// doubly linked-list over slots
	prev := scratch.prev
	next := scratch.next
	liveVersion := scratch.live
	for i := 0; i < n; i++ {
		prev[i] = i - 1
		next[i] = i + 1
		liveVersion[i] = 0
	}
	// edge element
	next[n-1] = -1

	h := scratch.heap
	h.Reset()

	pushIfMergeable := func(i int) {
		if i == -1 {
			return
		}
		j := next[i]
		if j == -1 {
			return
		}

		a, b := toks[i], toks[j]
		if rank, ok := rt.Lookup(a, b); ok {
			h.Push(utils.MergeCand{
				Rank:  rank,
				Pos:   i,
				Left:  a,
				Right: b,
				VerL:  liveVersion[i],
				VerR:  liveVersion[j],
			})
		}
	}

	// seed with every adjacent pair that has a rank
	for i := 0; i != -1 && next[i] != -1; i = next[i] {
		pushIfMergeable(i)
	}

	for {
		c, ok := h.Pop()
		if !ok {
			break
		}

		i := c.Pos
		j := next[i]
		if j == -1 {
			// left slot is now the tail
			continue
		}
		if liveVersion[i] != c.VerL || liveVersion[j] != c.VerR {
			// stale entry, at least one side was merged since the push
			continue
		}
		if toks[i] != c.Left || toks[j] != c.Right {
			continue
		}

		// merge into the left slot
		toks[i] = c.Left + c.Right

		nj := next[j]
		next[i] = nj
		if nj != -1 {
			prev[nj] = i
		}
		// unlink j
		prev[j], next[j] = -1, -1

		// bump versions so queued entries touching either slot go stale
		liveVersion[i]++
		liveVersion[j]++

		// only the pairs around the new symbol can be new candidates
		pushIfMergeable(prev[i])
		pushIfMergeable(i)
	}

	// slot 0 is never merged away
	out := toks[:0]
	for i := 0; i != -1; i = next[i] {
		out = append(out, toks[i])
	}
	return out
}

type encodeScratch struct {
	prev []int
	next []int
	live []int
	heap utils.MergeQueue
}

func (t *Tokenizer) acquireScratch(n int) *encodeScratch {
	v := t.scratchPool.Get()
	var sc *encodeScratch
	if v == nil {
		sc = &encodeScratch{heap: utils.NewMergeHeap(true)}
	} else {
		sc = v.(*encodeScratch)
	}
	sc.prepare(n)
	return sc
}

func (t *Tokenizer) releaseScratch(sc *encodeScratch) {
	t.scratchPool.Put(sc)
}

func (sc *encodeScratch) prepare(n int) {
	sc.prev = ensureIntCapacity(sc.prev, n)
	sc.next = ensureIntCapacity(sc.next, n)
	sc.live = ensureIntCapacity(sc.live, n)
}

func ensureIntCapacity(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}
