package tokenizer

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/bpevocab/internal/symbol"
)

// ParseRules reads one "left right" rule per line. Blank lines, lines
// starting with '#', and lines without exactly two whitespace-separated
// fields are skipped. skipped counts the malformed lines only.
func ParseRules(r io.Reader) (merges []symbol.Pair, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, ok := symbol.ParsePair(line)
		if !ok {
			skipped++
			continue
		}
		merges = append(merges, p)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, errors.Wrap(err, "reading rules")
	}
	return merges, skipped, nil
}

// WriteRules writes merges in training order, one rule per line.
func WriteRules(w io.Writer, merges []symbol.Pair) error {
	bw := bufio.NewWriter(w)
	for _, m := range merges {
		if _, err := bw.WriteString(m.String()); err != nil {
			return errors.Wrap(err, "writing rules")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "writing rules")
		}
	}
	return errors.Wrap(bw.Flush(), "flushing rules")
}

// LoadRules parses the rules file at path.
func LoadRules(path string) ([]symbol.Pair, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "opening rules file %s", path)
	}
	defer f.Close()

	merges, skipped, err := ParseRules(f)
	if err != nil {
		return nil, skipped, errors.Wrapf(err, "parsing %s", path)
	}
	return merges, skipped, nil
}

// SaveRules writes merges to path, replacing any existing file.
func SaveRules(path string, merges []symbol.Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating rules file %s", path)
	}
	if err := WriteRules(f, merges); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

// CharsetOf rebuilds a charset from the characters that rule symbols are
// made of. A bare rules file carries no charset, so characters that never
// took part in a merge are missing and will map to symbol.Unknown.
func CharsetOf(merges []symbol.Pair) symbol.Set {
	cs := symbol.NewSet()
	for _, m := range merges {
		if m.HasUnknown() {
			continue
		}
		for _, c := range symbol.Chars(m.Left + m.Right) {
			cs.Add(c)
		}
	}
	return cs
}
