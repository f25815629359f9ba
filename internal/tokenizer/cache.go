package tokenizer

import (
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/bpevocab/internal/symbol"
)

const (
	DefaultRankCacheSize   = 64
	DefaultResultCacheSize = 100_000
)

// Fingerprint is a BLAKE2b-256 digest of an ordered rule list.
type Fingerprint [blake2b.Size256]byte

// FingerprintOf hashes the rules in order, one "left right\n" line each.
func FingerprintOf(merges []symbol.Pair) Fingerprint {
	h, _ := blake2b.New256(nil)
	for _, m := range merges {
		h.Write([]byte(m.Left))
		h.Write([]byte{' '})
		h.Write([]byte(m.Right))
		h.Write([]byte{'\n'})
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// charsetFingerprint hashes the sorted charset, one symbol per line.
func charsetFingerprint(cs symbol.Set) Fingerprint {
	h, _ := blake2b.New256(nil)
	for _, c := range cs.Sorted() {
		h.Write([]byte(c))
		h.Write([]byte{'\n'})
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short is the first 12 hex digits, for logs.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// resultKey identifies a tokenized word. The charset is part of the key
// since it decides which characters become symbol.Unknown.
type resultKey struct {
	boundary bool
	fp       Fingerprint
	charset  Fingerprint
	word     string
}

// Caches holds the rank tables and LowestRank results shared by tokenizers.
// Both are bounded LRUs and safe for concurrent use. Concurrent first use of a
// rule list builds its rank table once; a table evicted and rebuilt later is
// identical, so duplicate builds never change results.
type Caches struct {
	ranks   *lru.Cache
	results *lru.Cache
	group   singleflight.Group
}

// CacheStats reports current cache occupancy.
type CacheStats struct {
	RankTables int `json:"rank_tables"`
	Results    int `json:"results"`
}

var defaultCaches = mustCaches(DefaultRankCacheSize, DefaultResultCacheSize)

// NewCaches returns caches holding at most rankSize rank tables and
// resultSize tokenized words.
func NewCaches(rankSize, resultSize int) (*Caches, error) {
	ranks, err := lru.New(rankSize)
	if err != nil {
		return nil, fmt.Errorf("rank cache: %w", err)
	}
	results, err := lru.New(resultSize)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Caches{ranks: ranks, results: results}, nil
}

func mustCaches(rankSize, resultSize int) *Caches {
	c, err := NewCaches(rankSize, resultSize)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCaches returns the caches used by tokenizers built without
// WithCaches.
func DefaultCaches() *Caches {
	return defaultCaches
}

func (c *Caches) rankTable(fp Fingerprint, merges []symbol.Pair) *RankTable {
	if v, ok := c.ranks.Get(fp); ok {
		return v.(*RankTable)
	}
	v, _, _ := c.group.Do(string(fp[:]), func() (interface{}, error) {
		if v, ok := c.ranks.Get(fp); ok {
			return v, nil
		}
		rt := NewRankTable(merges)
		c.ranks.Add(fp, rt)
		return rt, nil
	})
	return v.(*RankTable)
}

func (t *Tokenizer) resultKey(word string) resultKey {
	return resultKey{boundary: t.boundary, fp: t.fp, charset: t.charsetFP, word: symbol.Lower(word)}
}

// result returns a copy of the cached symbols so callers may modify it.
func (c *Caches) result(k resultKey) ([]string, bool) {
	v, ok := c.results.Get(k)
	if !ok {
		return nil, false
	}
	toks := v.([]string)
	return append([]string(nil), toks...), true
}

func (c *Caches) storeResult(k resultKey, toks []string) {
	c.results.Add(k, toks)
}

// Purge empties both caches.
func (c *Caches) Purge() {
	c.ranks.Purge()
	c.results.Purge()
}

func (c *Caches) Stats() CacheStats {
	return CacheStats{RankTables: c.ranks.Len(), Results: c.results.Len()}
}
