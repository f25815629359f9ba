// Package tokenizer applies trained merge rules to new words.
//
// Two strategies are offered and they are not interchangeable:
//
//   - RuleOrder replays the rules in training order, exhausting each rule
//     across the whole word before moving to the next.
//   - LowestRank repeatedly merges the leftmost adjacent pair with the lowest
//     rank until no adjacent pair has a rank.
//
// A Tokenizer is immutable after New and safe for concurrent use. Rank tables
// and LowestRank results are memoized in bounded caches keyed by a content
// fingerprint of the rule list, so equal rule lists share entries no matter
// where they came from.
package tokenizer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bpevocab/internal/symbol"
	"github.com/bpevocab/internal/trainer"
)

// Strategy selects how merge rules are applied.
type Strategy int

const (
	// RuleOrder applies each rule to exhaustion, in training order.
	RuleOrder Strategy = iota
	// LowestRank always merges the lowest-rank pair present, leftmost first.
	LowestRank
)

var ErrUnknownStrategy = errors.New("tokenizer: unknown strategy")

func (s Strategy) String() string {
	switch s {
	case RuleOrder:
		return "rule-order"
	case LowestRank:
		return "lowest-rank"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "rule-order" and "lowest-rank" to strategies. An empty
// string selects LowestRank.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "rule-order", "a", "A":
		return RuleOrder, nil
	case "", "lowest-rank", "b", "B":
		return LowestRank, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Tokenizer holds one rule set together with the charset words are segmented
// against.
//
// Invariants:
//   - merges is a private copy; callers mutating their slice after New do
//     not affect results or cached entries.
//   - fp is the fingerprint of merges and keys every cache lookup.
//   - charsetFP is the fingerprint of charset and also keys cached results.
type Tokenizer struct {
	merges    []symbol.Pair
	charset   symbol.Set
	boundary  bool
	fp        Fingerprint
	charsetFP Fingerprint
	caches    *Caches
	workers   int

	scratchPool sync.Pool
}

// Option customizes a Tokenizer.
type Option func(*Tokenizer)

// WithCaches makes the tokenizer use c instead of the shared default caches.
func WithCaches(c *Caches) Option {
	return func(t *Tokenizer) {
		if c != nil {
			t.caches = c
		}
	}
}

// WithWorkers bounds the goroutines TokenizeAll runs at once. n < 1 keeps
// the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(t *Tokenizer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// New builds a tokenizer for a rule list in training order.
func New(merges []symbol.Pair, charset symbol.Set, boundary bool, opts ...Option) *Tokenizer {
	own := append([]symbol.Pair(nil), merges...)
	cs := charset.Clone()
	t := &Tokenizer{
		merges:    own,
		charset:   cs,
		boundary:  boundary,
		fp:        FingerprintOf(own),
		charsetFP: charsetFingerprint(cs),
		caches:    defaultCaches,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromEncoding builds a tokenizer from a training result.
func FromEncoding(enc *trainer.Encoding, opts ...Option) *Tokenizer {
	return New(enc.Merges, enc.Charset, enc.Boundary, opts...)
}

// Tokenize splits word into symbols with the chosen strategy.
func (t *Tokenizer) Tokenize(word string, s Strategy) ([]string, error) {
	switch s {
	case RuleOrder:
		return t.ReplayRules(word), nil
	case LowestRank:
		return t.LowestRankFirst(word), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, s)
}

// TokenizeWord is the stateless form: it builds a tokenizer for the given rules
// and applies one strategy. Rank tables and results are still shared through
// the default caches.
func TokenizeWord(word string, merges []symbol.Pair, charset symbol.Set, boundary bool, s Strategy) ([]string, error) {
	return New(merges, charset, boundary).Tokenize(word, s)
}

func (t *Tokenizer) Merges() []symbol.Pair {
	return append([]symbol.Pair(nil), t.merges...)
}

func (t *Tokenizer) Charset() symbol.Set {
	return t.charset.Clone()
}

func (t *Tokenizer) Boundary() bool {
	return t.boundary
}

// Fingerprint identifies the rule list by content.
func (t *Tokenizer) Fingerprint() Fingerprint {
	return t.fp
}

func (t *Tokenizer) segment(word string) []string {
	return symbol.Segment(word, t.charset, t.boundary)
}

func (t *Tokenizer) ranks() *RankTable {
	return t.caches.rankTable(t.fp, t.merges)
}
