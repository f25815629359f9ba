package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StreamEncoder tokenizes whitespace-separated text fed in arbitrary chunks.
// Bytes after the last whitespace are held back, since the word they start
// may continue in the next chunk; chunk edges may fall inside a UTF-8
// sequence. Not safe for concurrent use.
type StreamEncoder struct {
	tok      *Tokenizer
	strategy Strategy

	buf []byte
}

// NewStreamEncoder returns a stream encoder applying strategy s.
func (t *Tokenizer) NewStreamEncoder(s Strategy) (*StreamEncoder, error) {
	if s != RuleOrder && s != LowestRank {
		return nil, ErrUnknownStrategy
	}
	return &StreamEncoder{tok: t, strategy: s}, nil
}

// Push consumes the next chunk and returns the symbols of every word it
// completed, one slice per word.
func (st *StreamEncoder) Push(chunk []byte) [][]string {
	st.buf = append(st.buf, chunk...)

	cut := lastSpaceEnd(st.buf)
	if cut == 0 {
		return nil
	}

	out := st.encode(string(st.buf[:cut]))
	st.buf = append(st.buf[:0], st.buf[cut:]...)
	return out
}

// Flush tokenizes whatever is buffered and resets the encoder for reuse.
func (st *StreamEncoder) Flush() [][]string {
	if len(st.buf) == 0 {
		return nil
	}
	out := st.encode(string(st.buf))
	st.buf = st.buf[:0]
	return out
}

// Pending returns the number of buffered bytes.
func (st *StreamEncoder) Pending() int {
	return len(st.buf)
}

func (st *StreamEncoder) encode(text string) [][]string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) == 0 {
		return nil
	}
	out := make([][]string, 0, len(words))
	for _, w := range words {
		// strategy was checked by NewStreamEncoder
		toks, _ := st.tok.Tokenize(w, st.strategy)
		out = append(out, toks)
	}
	return out
}

// lastSpaceEnd returns the offset just past the last whitespace rune in b,
// or 0 when b holds none.
func lastSpaceEnd(b []byte) int {
	cut := 0
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		i += size
		if unicode.IsSpace(r) {
			cut = i
		}
	}
	return cut
}
