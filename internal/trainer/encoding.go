package trainer

import (
	"encoding/json"
	"fmt"

	"github.com/bpevocab/internal/symbol"
)

// Encoding is the result of a training run. It is shared read-only with
// tokenizers and must not be modified after Train returns.
type Encoding struct {
	// Vocabulary maps each word's final segmentation, space-joined, to the
	// summed frequency of the words ending up with it.
	Vocabulary map[string]int
	// Merges are the applied rules in training order; the index is the rank.
	Merges []symbol.Pair
	// Charset holds the symbols present before any merge.
	Charset symbol.Set
	// Tokens holds every symbol ever produced: Charset plus merge results.
	Tokens symbol.Set
	// Boundary records whether words were marked at training time.
	Boundary bool
	// Collisions counts merges whose result string was already a known
	// symbol, so len(Tokens) == len(Charset) + len(Merges) - Collisions.
	Collisions int
}

// Rules returns the merges in "left right" form.
func (e *Encoding) Rules() []string {
	out := make([]string, len(e.Merges))
	for i, m := range e.Merges {
		out[i] = m.String()
	}
	return out
}

// Segmentations returns the number of distinct final segmentations.
func (e *Encoding) Segmentations() int {
	return len(e.Vocabulary)
}

type encodingJSON struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Merges     []string       `json:"merges"`
	Charset    symbol.Set     `json:"charset"`
	Tokens     symbol.Set     `json:"tokens"`
	Boundary   bool           `json:"boundary"`
	Collisions int            `json:"collisions"`
}

// MarshalJSON writes merges as "left right" rule strings.
func (e *Encoding) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodingJSON{
		Vocabulary: e.Vocabulary,
		Merges:     e.Rules(),
		Charset:    e.Charset,
		Tokens:     e.Tokens,
		Boundary:   e.Boundary,
		Collisions: e.Collisions,
	})
}

func (e *Encoding) UnmarshalJSON(data []byte) error {
	var raw encodingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	merges := make([]symbol.Pair, 0, len(raw.Merges))
	for i, rule := range raw.Merges {
		p, ok := symbol.ParsePair(rule)
		if !ok {
			return fmt.Errorf("encoding: malformed merge %d: %q", i, rule)
		}
		merges = append(merges, p)
	}

	*e = Encoding{
		Vocabulary: raw.Vocabulary,
		Merges:     merges,
		Charset:    raw.Charset,
		Tokens:     raw.Tokens,
		Boundary:   raw.Boundary,
		Collisions: raw.Collisions,
	}
	return nil
}
