// Package symbol holds the string units BPE training and tokenization work on:
// atomic symbols, ordered adjacent pairs, and symbol sets.
package symbol

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// BoundaryMarker is prepended to a word before segmentation when
	// word-start marking is enabled.
	BoundaryMarker = "_"

	// Unknown replaces any character absent from the trained charset.
	// It never takes part in a merge.
	Unknown = "<UNK>"
)

// Pair is an ordered pair of adjacent symbols. Pair{"a","b"} and
// Pair{"b","a"} are different keys.
type Pair struct {
	Left  string
	Right string
}

// String returns the rule form "left right".
func (p Pair) String() string {
	return p.Left + " " + p.Right
}

// Merged is the symbol produced by merging the pair.
func (p Pair) Merged() string {
	return p.Left + p.Right
}

// Less orders pairs by Left, then Right.
func (p Pair) Less(o Pair) bool {
	if p.Left != o.Left {
		return p.Left < o.Left
	}
	return p.Right < o.Right
}

// HasUnknown reports whether either side is the unknown placeholder.
func (p Pair) HasUnknown() bool {
	return p.Left == Unknown || p.Right == Unknown
}

// ParsePair reads a "left right" rule. ok is false unless the rule has
// exactly two whitespace-separated fields.
func ParsePair(rule string) (Pair, bool) {
	fields := strings.Fields(rule)
	if len(fields) != 2 {
		return Pair{}, false
	}
	return Pair{Left: fields[0], Right: fields[1]}, true
}

// Lower applies Unicode lower-case mapping. A Caser keeps state between
// calls, so each call gets its own.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Mark prepends the boundary marker when boundary is set.
func Mark(word string, boundary bool) string {
	if boundary {
		return BoundaryMarker + word
	}
	return word
}

// Chars splits s into one symbol per code point. Invalid UTF-8 bytes become
// single-byte symbols so the concatenation of the result is always s.
func Chars(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for len(s) > 0 {
		_, size := utf8.DecodeRuneInString(s)
		out = append(out, s[:size])
		s = s[size:]
	}
	return out
}

// Segment lowercases word, marks it, and splits it into symbols. Characters
// missing from charset become Unknown.
func Segment(word string, charset Set, boundary bool) []string {
	toks := Chars(Mark(Lower(word), boundary))
	for i, c := range toks {
		if !charset.Has(c) {
			toks[i] = Unknown
		}
	}
	return toks
}

// Replace merges every non-overlapping occurrence of p in toks, scanning
// left to right. A merged symbol is not re-examined against p in the same
// pass. toks is rewritten in place; the shortened slice and the number of
// replacements are returned.
func Replace(toks []string, p Pair) ([]string, int) {
	if len(toks) < 2 {
		return toks, 0
	}

	merged := p.Merged()
	out := toks[:0]
	n := 0
	for i := 0; i < len(toks); {
		if i+1 < len(toks) && toks[i] == p.Left && toks[i+1] == p.Right {
			out = append(out, merged)
			i += 2
			n++
			continue
		}
		out = append(out, toks[i])
		i++
	}
	return out, n
}

// Set is an unordered set of symbols.
type Set map[string]struct{}

// NewSet returns a set holding syms.
func NewSet(syms ...string) Set {
	s := make(Set, len(syms))
	for _, sym := range syms {
		s[sym] = struct{}{}
	}
	return s
}

// Add inserts sym and reports whether it was new.
func (s Set) Add(sym string) bool {
	if _, ok := s[sym]; ok {
		return false
	}
	s[sym] = struct{}{}
	return true
}

// Has reports whether sym is in the set. A nil set holds nothing.
func (s Set) Has(sym string) bool {
	_, ok := s[sym]
	return ok
}

// Len returns the number of symbols.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the symbols in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of symbols.
func (s *Set) UnmarshalJSON(data []byte) error {
	var syms []string
	if err := json.Unmarshal(data, &syms); err != nil {
		return err
	}
	*s = NewSet(syms...)
	return nil
}
