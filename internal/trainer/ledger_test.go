package trainer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpevocab/internal/symbol"
)

// recount rebuilds the pair statistics from the current word state.
func recount(t *trainer) (map[symbol.Pair]int, map[symbol.Pair]map[int]struct{}) {
	counts := make(map[symbol.Pair]int)
	words := make(map[symbol.Pair]map[int]struct{})
	for _, w := range t.words {
		for p, n := range localPairs(w.tokens) {
			counts[p] += n * w.freq
			if words[p] == nil {
				words[p] = make(map[int]struct{})
			}
			words[p][w.id] = struct{}{}
		}
	}
	return counts, words
}

// best picks the pair training should choose from scratch counts.
func best(counts map[symbol.Pair]int) (symbol.Pair, int) {
	var bp symbol.Pair
	bc := 0
	for p, c := range counts {
		if c > bc || (c == bc && p.Less(bp)) {
			bp, bc = p, c
		}
	}
	return bp, bc
}

func TestLedgerMatchesRecountAfterEveryMerge(t *testing.T) {
	corpora := map[string]map[string]int{
		"toy":    toyCounts(),
		"random": randomCorpus(rand.New(rand.NewPCG(7, 11)), 200),
		"repeat": {"aaaa": 3, "aaa": 2, "abab": 4, "baba": 1},
	}

	for name, corpus := range corpora {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions(1 << 20)
			tr, err := newTrainer(corpus, opts)
			require.NoError(t, err)

			for step := 0; ; step++ {
				counts, words := recount(tr)
				require.Equal(t, counts, tr.ledger.counts, "step %d counts", step)
				require.Equal(t, words, tr.ledger.words, "step %d membership", step)

				for _, w := range tr.words {
					sum := 0
					for _, n := range localPairs(w.tokens) {
						sum += n
					}
					require.Equal(t, max(0, len(w.tokens)-1), sum)
				}

				wantPair, wantCount := best(counts)
				before := len(tr.merges)
				tr.run(1)
				if len(tr.merges) == before {
					assert.Less(t, wantCount, opts.MinPairFrequency, "stopped with a mergeable pair left")
					return
				}
				assert.Equal(t, wantPair, tr.merges[before], "step %d", step)
				assert.GreaterOrEqual(t, wantCount, opts.MinPairFrequency)
			}
		})
	}
}

func TestLedgerStaleEntriesAreRefreshed(t *testing.T) {
	l := newLedger()
	p := symbol.Pair{Left: "a", Right: "b"}
	q := symbol.Pair{Left: "c", Right: "d"}

	l.record(p, 0, 2, 10) // 20
	l.record(q, 1, 1, 15) // 15
	l.seed()

	// p shrinks below q after seeding; its old snapshot must not win
	l.remove(p, 0, 1, 10, 1)

	got, count, ok := l.popMax()
	require.True(t, ok)
	assert.Equal(t, q, got)
	assert.Equal(t, 15, count)

	l.drop(q)
	got, count, ok = l.popMax()
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, 10, count)

	l.remove(p, 0, 1, 10, 0)
	_, _, ok = l.popMax()
	assert.False(t, ok)
	assert.NotContains(t, l.words, p)
	assert.Zero(t, l.count(p))
}

func TestBookkeepingGapBudgetModes(t *testing.T) {
	ghost := symbol.Pair{Left: "x", Right: "y"}

	run := func(mode BudgetMode) *trainer {
		opts := DefaultOptions(200)
		opts.Budget = mode
		tr, err := newTrainer(toyCounts(), opts)
		require.NoError(t, err)

		// a positive global count with no word recorded as holding the pair
		tr.ledger.counts[ghost] = 1000
		tr.ledger.push(ghost, 1000)

		tr.run(3)
		return tr
	}

	accepted := run(AcceptedMerges)
	assert.Len(t, accepted.merges, 3)
	assert.Equal(t, 1, accepted.skipped)
	assert.NotContains(t, accepted.merges, ghost)
	assert.Zero(t, accepted.ledger.count(ghost))

	fixed := run(FixedIterations)
	assert.Len(t, fixed.merges, 2)
	assert.Equal(t, 1, fixed.skipped)
	assert.NotContains(t, fixed.merges, ghost)
}

func TestCollisionsAreCounted(t *testing.T) {
	opts := DefaultOptions(2000)
	opts.MinPairFrequency = 1
	corpus := randomCorpus(rand.New(rand.NewPCG(3, 5)), 400)

	enc := mustTrain(t, corpus, opts)

	merged := make(map[string]int)
	for _, m := range enc.Merges {
		merged[m.Merged()]++
	}
	dupes := 0
	for _, n := range merged {
		dupes += n - 1
	}
	for m := range merged {
		if enc.Charset.Has(m) {
			dupes++
		}
	}

	assert.Equal(t, dupes, enc.Collisions)
	assert.Equal(t, enc.Charset.Len()+len(enc.Merges)-enc.Collisions, enc.Tokens.Len())
}
