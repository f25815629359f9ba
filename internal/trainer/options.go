package trainer

import (
	"errors"
	"fmt"

	"github.com/bpevocab/internal/logging"
)

const (
	DefaultMinPairFrequency = 2
	DefaultMaxMerges        = 50_000
)

var (
	// ErrEmptyCorpus is returned when the word-frequency input is nil or empty.
	ErrEmptyCorpus = errors.New("trainer: empty word-frequency input")
	// ErrInvalidFrequency is returned when a word has a frequency below 1.
	ErrInvalidFrequency = errors.New("trainer: word frequency must be >= 1")
	// ErrInvalidWord is returned for words containing whitespace, which
	// could not be written back as "left right" rules.
	ErrInvalidWord = errors.New("trainer: word contains whitespace")
	// ErrInvalidOptions is returned for negative sizes, caps or floors.
	ErrInvalidOptions = errors.New("trainer: invalid options")
)

// BudgetMode selects how loop iterations are charged against the merge
// budget. The two modes can yield different merge counts for the same budget.
type BudgetMode int

const (
	// AcceptedMerges charges a budget slot only when a merge is recorded.
	AcceptedMerges BudgetMode = iota
	// FixedIterations charges a slot for every loop iteration, including
	// ones that skip an unindexed pair.
	FixedIterations
)

func (m BudgetMode) String() string {
	switch m {
	case AcceptedMerges:
		return "accepted"
	case FixedIterations:
		return "fixed"
	default:
		return fmt.Sprintf("BudgetMode(%d)", int(m))
	}
}

// ParseBudgetMode maps "accepted" (or "accepted-merges") and "fixed" (or
// "fixed-iterations") to their modes.
func ParseBudgetMode(s string) (BudgetMode, error) {
	switch s {
	case "", "accepted", "accepted-merges":
		return AcceptedMerges, nil
	case "fixed", "fixed-iterations":
		return FixedIterations, nil
	}
	return 0, fmt.Errorf("%w: unknown budget mode %q", ErrInvalidOptions, s)
}

// Options configures a training run.
type Options struct {
	// VocabSize is the target symbol count; it is clamped up to the size of
	// the initial charset.
	VocabSize int
	// MinPairFrequency stops training once the best pair's count falls below it.
	MinPairFrequency int
	// MaxMerges caps the number of merges regardless of VocabSize.
	MaxMerges int
	// Boundary prepends symbol.BoundaryMarker to every word before segmentation.
	Boundary bool
	Budget   BudgetMode

	Logger *logging.Logger
	// Progress, if set, is called after every recorded merge.
	Progress func(done, budget int)
}

// DefaultOptions returns the usual settings for a target vocabulary size.
func DefaultOptions(vocabSize int) Options {
	return Options{
		VocabSize:        vocabSize,
		MinPairFrequency: DefaultMinPairFrequency,
		MaxMerges:        DefaultMaxMerges,
		Boundary:         true,
		Budget:           AcceptedMerges,
	}
}

func (o Options) validate() error {
	switch {
	case o.VocabSize < 0:
		return fmt.Errorf("%w: negative vocab size %d", ErrInvalidOptions, o.VocabSize)
	case o.MaxMerges < 0:
		return fmt.Errorf("%w: negative merge cap %d", ErrInvalidOptions, o.MaxMerges)
	case o.MinPairFrequency < 0:
		return fmt.Errorf("%w: negative pair frequency floor %d", ErrInvalidOptions, o.MinPairFrequency)
	case o.Budget != AcceptedMerges && o.Budget != FixedIterations:
		return fmt.Errorf("%w: %s", ErrInvalidOptions, o.Budget)
	}
	return nil
}

// budget is the number of merges allowed for a charset of initial symbols.
func (o Options) budget(initial int) int {
	want := max(o.VocabSize, initial)
	return min(o.MaxMerges, max(0, want-initial))
}
