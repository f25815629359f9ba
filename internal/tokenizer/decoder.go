package tokenizer

import (
	"strings"

	"github.com/bpevocab/internal/symbol"
)

// Detokenize concatenates symbols and strips one leading boundary marker when
// boundary is set. Unknown placeholders are kept as they are.
func Detokenize(symbols []string, boundary bool) string {
	if len(symbols) == 0 {
		return ""
	}

	total := 0
	for _, s := range symbols {
		total += len(s)
	}

	var sb strings.Builder
	sb.Grow(total)
	for _, s := range symbols {
		sb.WriteString(s)
	}

	out := sb.String()
	if boundary {
		out = strings.TrimPrefix(out, symbol.BoundaryMarker)
	}
	return out
}
