// Package bpevocab is the public entry point: learn byte-pair-encoding merge
// rules from word frequencies, then split new words with them.
//
//	enc, err := bpevocab.Train(freqs, bpevocab.DefaultOptions(1000))
//	tok := bpevocab.NewTokenizer(enc)
//	symbols, err := tok.Tokenize("paris", bpevocab.LowestRank)
package bpevocab

import (
	"io"

	"github.com/bpevocab/internal/corpus"
	"github.com/bpevocab/internal/symbol"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

type (
	Encoding   = trainer.Encoding
	Options    = trainer.Options
	BudgetMode = trainer.BudgetMode
	Pair       = symbol.Pair
	Set        = symbol.Set

	Tokenizer     = tokenizer.Tokenizer
	Strategy      = tokenizer.Strategy
	StreamEncoder = tokenizer.StreamEncoder

	SplitConfig = corpus.SplitConfig
)

const (
	AcceptedMerges  = trainer.AcceptedMerges
	FixedIterations = trainer.FixedIterations

	RuleOrder  = tokenizer.RuleOrder
	LowestRank = tokenizer.LowestRank

	BoundaryMarker = symbol.BoundaryMarker
	Unknown        = symbol.Unknown
)

var (
	ErrEmptyCorpus      = trainer.ErrEmptyCorpus
	ErrInvalidFrequency = trainer.ErrInvalidFrequency
	ErrInvalidOptions   = trainer.ErrInvalidOptions
	ErrInvalidWord      = trainer.ErrInvalidWord
	ErrUnknownStrategy  = tokenizer.ErrUnknownStrategy
)

// DefaultOptions returns floor 2, a 50 000 merge cap, boundary marking and
// accepted-merge budgeting for the given target vocabulary size.
func DefaultOptions(vocabSize int) Options {
	return trainer.DefaultOptions(vocabSize)
}

// Train learns merge rules from a word -> frequency mapping.
func Train(freqs map[string]int, opts Options) (*Encoding, error) {
	return trainer.Train(freqs, opts)
}

// NewTokenizer builds a tokenizer sharing the package-wide caches.
func NewTokenizer(enc *Encoding) *Tokenizer {
	return tokenizer.FromEncoding(enc)
}

// TokenizeWord applies merges to one word with the chosen strategy.
func TokenizeWord(word string, merges []Pair, charset Set, boundary bool, s Strategy) ([]string, error) {
	return tokenizer.TokenizeWord(word, merges, charset, boundary, s)
}

// Detokenize joins symbols back into a word.
func Detokenize(symbols []string, boundary bool) string {
	return tokenizer.Detokenize(symbols, boundary)
}

// ParseRules reads "left right" lines, skipping blanks, comments and
// malformed lines.
func ParseRules(r io.Reader) ([]Pair, error) {
	merges, _, err := tokenizer.ParseRules(r)
	return merges, err
}

// WriteRules writes one rule per line in training order.
func WriteRules(w io.Writer, merges []Pair) error {
	return tokenizer.WriteRules(w, merges)
}

// CountWords splits every line of r with cfg and returns word frequencies.
func CountWords(r io.Reader, cfg SplitConfig) (map[string]int, error) {
	c := corpus.NewCounter(cfg, nil)
	if _, err := c.CountLines(r, 0); err != nil {
		return nil, err
	}
	return c.Frequencies(), nil
}
