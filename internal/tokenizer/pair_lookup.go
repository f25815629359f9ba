package tokenizer

import "github.com/bpevocab/internal/symbol"

// RankTable maps a merge rule to its position in the rule list. When a rule
// appears more than once the earliest position is kept. Rules touching the
// unknown placeholder are left out, so that placeholder never merges.
type RankTable struct {
	ranks map[symbol.Pair]int
}

// NewRankTable indexes merges by position.
func NewRankTable(merges []symbol.Pair) *RankTable {
	ranks := make(map[symbol.Pair]int, len(merges))
	for i, m := range merges {
		if m.HasUnknown() {
			continue
		}
		if _, dup := ranks[m]; dup {
			continue
		}
		ranks[m] = i
	}
	return &RankTable{ranks: ranks}
}

// Lookup returns the rank of the rule (left, right).
func (rt *RankTable) Lookup(left, right string) (int, bool) {
	r, ok := rt.ranks[symbol.Pair{Left: left, Right: right}]
	return r, ok
}

func (rt *RankTable) Len() int {
	return len(rt.ranks)
}
