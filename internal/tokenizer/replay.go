package tokenizer

import "github.com/bpevocab/internal/symbol"

// ReplayRules segments word and applies every rule in training order, each
// one to all of its non-overlapping occurrences before the next rule is
// considered.
func (t *Tokenizer) ReplayRules(word string) []string {
	return replay(t.segment(word), t.merges)
}

func replay(toks []string, merges []symbol.Pair) []string {
	for _, m := range merges {
		if len(toks) < 2 {
			break
		}
		if m.HasUnknown() {
			continue
		}
		toks, _ = symbol.Replace(toks, m)
	}
	return toks
}
