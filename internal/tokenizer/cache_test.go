package tokenizer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpevocab/internal/symbol"
)

func TestFingerprintIsContentBased(t *testing.T) {
	a := pairs("a b", "ab c")
	b := pairs("a b", "ab c")
	assert.Equal(t, FingerprintOf(a), FingerprintOf(b))
	assert.NotEqual(t, FingerprintOf(a), FingerprintOf(pairs("ab c", "a b")))
	// field boundaries are part of the digest
	assert.NotEqual(t, FingerprintOf(pairs("ab c")), FingerprintOf(pairs("a bc")))
	assert.Len(t, FingerprintOf(a).String(), 64)
	assert.Len(t, FingerprintOf(a).Short(), 12)
}

func TestEqualRuleListsShareCacheEntries(t *testing.T) {
	caches, err := NewCaches(4, 64)
	require.NoError(t, err)

	charset := symbol.NewSet("_", "a", "b", "c")
	first := New(pairs("a b", "ab c"), charset, true, WithCaches(caches))
	second := New(pairs("a b", "ab c"), charset, true, WithCaches(caches))

	assert.Equal(t, []string{"_", "abc"}, first.LowestRankFirst("ABC"))
	assert.Equal(t, []string{"_", "abc"}, second.LowestRankFirst("abc"))

	stats := caches.Stats()
	assert.Equal(t, 1, stats.RankTables)
	assert.Equal(t, 1, stats.Results)

	// a different boundary flag is a different entry
	New(pairs("a b", "ab c"), charset, false, WithCaches(caches)).LowestRankFirst("abc")
	assert.Equal(t, 2, caches.Stats().Results)
	assert.Equal(t, 1, caches.Stats().RankTables)

	caches.Purge()
	assert.Equal(t, CacheStats{}, caches.Stats())
}

func TestCharsetIsPartOfResultKey(t *testing.T) {
	caches, err := NewCaches(4, 64)
	require.NoError(t, err)

	wide := New(pairs("a b"), symbol.NewSet("a", "b", "c"), false, WithCaches(caches))
	narrow := New(pairs("a b"), symbol.NewSet("a", "b"), false, WithCaches(caches))
	require.Equal(t, wide.Fingerprint(), narrow.Fingerprint())

	assert.Equal(t, []string{"ab", "c"}, wide.LowestRankFirst("abc"))
	assert.Equal(t, []string{"ab", symbol.Unknown}, narrow.LowestRankFirst("abc"))
	assert.Equal(t, []string{"ab", "c"}, wide.LowestRankFirst("abc"))

	stats := caches.Stats()
	assert.Equal(t, 1, stats.RankTables)
	assert.Equal(t, 2, stats.Results)
}

func TestCallerMutationDoesNotLeakIntoResults(t *testing.T) {
	caches, err := NewCaches(4, 64)
	require.NoError(t, err)

	rules := pairs("a b", "ab c")
	tok := New(rules, symbol.NewSet("a", "b", "c"), false, WithCaches(caches))
	require.Equal(t, []string{"abc"}, tok.LowestRankFirst("abc"))

	rules[0] = symbol.Pair{Left: "b", Right: "c"}
	assert.Equal(t, []string{"abc"}, tok.LowestRankFirst("abc"))
	assert.Equal(t, []string{"abc"}, tok.ReplayRules("abc"))

	// the mutated list is new content and gets its own entries
	other := New(rules, symbol.NewSet("a", "b", "c"), false, WithCaches(caches))
	assert.NotEqual(t, tok.Fingerprint(), other.Fingerprint())
	assert.Equal(t, []string{"a", "bc"}, other.LowestRankFirst("abc"))
	assert.Equal(t, 2, caches.Stats().RankTables)
}

func TestCachedResultsAreCopies(t *testing.T) {
	tok := New(pairs("a b"), symbol.NewSet("a", "b"), false, WithCaches(mustCaches(2, 8)))

	got := tok.LowestRankFirst("abab")
	require.Equal(t, []string{"ab", "ab"}, got)
	got[0] = "zz"

	assert.Equal(t, []string{"ab", "ab"}, tok.LowestRankFirst("abab"))
}

func TestResultCacheEvictsLeastRecentlyUsed(t *testing.T) {
	caches, err := NewCaches(1, 2)
	require.NoError(t, err)
	tok := New(pairs("a b"), symbol.NewSet("a", "b"), false, WithCaches(caches))

	tok.LowestRankFirst("ab")
	tok.LowestRankFirst("ba")
	tok.LowestRankFirst("ab")
	tok.LowestRankFirst("aab")

	assert.Equal(t, 2, caches.Stats().Results)
	_, ok := caches.result(tok.resultKey("ba"))
	assert.False(t, ok)
	_, ok = caches.result(tok.resultKey("ab"))
	assert.True(t, ok)
}

func TestNewCachesRejectsBadSizes(t *testing.T) {
	_, err := NewCaches(0, 10)
	assert.Error(t, err)
	_, err = NewCaches(10, -1)
	assert.Error(t, err)
}

func TestConcurrentTokenizationSharesCaches(t *testing.T) {
	caches, err := NewCaches(8, 1024)
	require.NoError(t, err)
	enc := toyEncoding(t)

	words := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		words = append(words, []string{"paris", "partir", "dela", "la", "de", "parisdela"}[i%6]+fmt.Sprint(i%7))
	}

	want := make([][]string, len(words))
	ref := FromEncoding(enc, WithCaches(mustCaches(1, 1)))
	for i, w := range words {
		want[i] = ref.mergeByRank(symbol.Segment(w, enc.Charset, enc.Boundary), NewRankTable(enc.Merges))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every goroutine builds its own tokenizer from equal content
			tok := FromEncoding(enc, WithCaches(caches))
			for i, w := range words {
				assert.Equal(t, want[i], tok.LowestRankFirst(w))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, caches.Stats().RankTables)
}

func TestTokenizeAll(t *testing.T) {
	tok := loadTestTokenizer(t)
	words := []string{"paris", "euros€", "dela", "", "partir", "PARIS"}

	for _, s := range strategies {
		got, err := tok.TokenizeAll(context.Background(), words, s)
		require.NoError(t, err)
		require.Len(t, got, len(words))
		for i, w := range words {
			one, err := tok.Tokenize(w, s)
			require.NoError(t, err)
			assert.Equal(t, one, got[i], "%s %q", s, w)
		}
	}

	_, err := tok.TokenizeAll(context.Background(), words, Strategy(-1))
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tok.TokenizeAll(ctx, words, LowestRank)
	assert.ErrorIs(t, err, context.Canceled)
}
