// Package trainer learns byte-pair-encoding merge rules from word
// frequencies.
//
// Training keeps a ledger of every adjacent symbol pair's corpus-wide count
// together with the set of words containing it. Each merge only revisits the
// words that hold the winning pair, and only the pairs whose local counts
// changed are reconciled, so global statistics are never rebuilt from scratch.
//
// A Trainer is single-threaded. The returned Encoding is immutable and safe
// to share across goroutines.
package trainer

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/bpevocab/internal/symbol"
)

type wordEntry struct {
	id     int
	freq   int
	tokens []string
}

type trainer struct {
	opts Options

	// words is indexed by id; the ledger refers to words by id only.
	words   []wordEntry
	charset symbol.Set
	tokens  symbol.Set
	merges  []symbol.Pair
	ledger  *ledger

	collisions int
	skipped    int
}

// Train learns merge rules from a word -> frequency mapping.
func Train(freqs map[string]int, opts Options) (*Encoding, error) {
	if len(freqs) == 0 {
		return nil, ErrEmptyCorpus
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	t, err := newTrainer(freqs, opts)
	if err != nil {
		return nil, err
	}

	budget := opts.budget(t.charset.Len())
	reason := t.run(budget)
	enc := t.encoding()

	opts.Logger.Info("training took %s (merges=%d, symbols=%d, boundary=%t, minPair=%d, budget=%d/%s, stop=%s)",
		time.Since(start).Round(time.Millisecond), len(enc.Merges), enc.Tokens.Len(),
		opts.Boundary, opts.MinPairFrequency, budget, opts.Budget, reason)
	if t.skipped > 0 {
		opts.Logger.Warn("dropped %d pairs with a positive count but no indexed word", t.skipped)
	}
	return enc, nil
}

func newTrainer(freqs map[string]int, opts Options) (*trainer, error) {
	// sorted so ids, and with them the ledger's iteration inputs, are stable
	keys := make([]string, 0, len(freqs))
	for w, f := range freqs {
		if f < 1 {
			return nil, fmt.Errorf("%w: %q has frequency %d", ErrInvalidFrequency, w, f)
		}
		if strings.IndexFunc(w, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, w)
		}
		keys = append(keys, w)
	}
	sort.Strings(keys)

	t := &trainer{
		opts:    opts,
		words:   make([]wordEntry, len(keys)),
		charset: symbol.NewSet(),
		ledger:  newLedger(),
	}

	for id, w := range keys {
		toks := symbol.Chars(symbol.Mark(w, opts.Boundary))
		for _, c := range toks {
			t.charset.Add(c)
		}
		t.words[id] = wordEntry{id: id, freq: freqs[w], tokens: toks}

		for p, n := range localPairs(toks) {
			t.ledger.record(p, id, n, freqs[w])
		}
	}

	t.ledger.seed()
	t.tokens = t.charset.Clone()
	return t, nil
}

type stopReason string

const (
	stopBudget    stopReason = "budget"
	stopExhausted stopReason = "no pairs left"
	stopFloor     stopReason = "below min pair frequency"
	stopNoChange  stopReason = "pair vanished"
)

func (t *trainer) run(budget int) stopReason {
	for used := 0; used < budget; {
		if t.opts.Budget == FixedIterations {
			used++
		}

		p, count, ok := t.ledger.popMax()
		if !ok {
			return stopExhausted
		}
		if count < t.opts.MinPairFrequency {
			return stopFloor
		}

		ids := t.ledger.wordsWith(p)
		if len(ids) == 0 {
			// positive count with no indexed word: a bookkeeping gap, not a merge
			t.ledger.drop(p)
			t.skipped++
			continue
		}

		if t.apply(p, ids) == 0 {
			return stopNoChange
		}

		t.merges = append(t.merges, p)
		if !t.tokens.Add(p.Merged()) {
			t.collisions++
		}
		if t.opts.Budget == AcceptedMerges {
			used++
		}

		t.opts.Logger.Debug("merge %d: %q + %q (count=%d, words=%d)", len(t.merges), p.Left, p.Right, count, len(ids))
		if t.opts.Progress != nil {
			t.opts.Progress(len(t.merges), budget)
		}
	}
	return stopBudget
}

// apply merges p inside every listed word and reconciles the ledger. It
// returns the frequency-weighted number of replacements.
func (t *trainer) apply(p symbol.Pair, ids []int) int {
	total := 0
	for _, id := range ids {
		w := &t.words[id]

		before := localPairs(w.tokens)
		var n int
		w.tokens, n = symbol.Replace(w.tokens, p)
		if n == 0 {
			continue
		}
		total += n * w.freq

		t.ledger.reconcile(id, w.freq, before, localPairs(w.tokens))
	}
	return total
}

func (t *trainer) encoding() *Encoding {
	vocab := make(map[string]int)
	for _, w := range t.words {
		vocab[strings.Join(w.tokens, " ")] += w.freq
	}

	return &Encoding{
		Vocabulary: vocab,
		Merges:     t.merges,
		Charset:    t.charset,
		Tokens:     t.tokens,
		Boundary:   t.opts.Boundary,
		Collisions: t.collisions,
	}
}

// localPairs counts the adjacent pairs of one token sequence.
func localPairs(toks []string) map[symbol.Pair]int {
	if len(toks) < 2 {
		return nil
	}
	m := make(map[symbol.Pair]int, len(toks)-1)
	for i := 0; i+1 < len(toks); i++ {
		m[symbol.Pair{Left: toks[i], Right: toks[i+1]}]++
	}
	return m
}
