package corpus

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/bpevocab/internal/logging"
)

// Counter accumulates word frequencies. It is safe for concurrent use.
//
// CountLines reads incrementally: calling it again on the same reader with a
// higher limit only consumes the lines not yet seen.
type Counter struct {
	cfg    SplitConfig
	logger *logging.Logger

	mu     sync.Mutex
	counts map[string]int
	total  int

	src    io.Reader
	reader *bufio.Reader
	lines  int
}

func NewCounter(cfg SplitConfig, logger *logging.Logger) *Counter {
	if cfg.SplitClitics && !cfg.KeepApostrophe {
		logger.Warn("clitics are not split when apostrophes are discarded")
	}
	return &Counter{
		cfg:    cfg,
		logger: logger,
		counts: make(map[string]int),
	}
}

// Add counts one occurrence of word. Empty words are ignored.
func (c *Counter) Add(word string) {
	if word == "" {
		return
	}
	c.mu.Lock()
	c.add(word)
	c.mu.Unlock()
}

// AddCount counts n occurrences of word. Empty words and n < 1 are ignored.
func (c *Counter) AddCount(word string, n int) {
	if word == "" || n < 1 {
		return
	}
	c.mu.Lock()
	c.counts[word] += n
	c.total += n
	c.mu.Unlock()
}

func (c *Counter) add(word string) {
	c.counts[word]++
	c.total++
}

// AddLine splits line and counts its words.
func (c *Counter) AddLine(line string) {
	words := SplitLine(line, c.cfg)
	c.mu.Lock()
	for _, w := range words {
		c.add(w)
	}
	c.mu.Unlock()
}

// CountLines counts words from r until limit lines have been processed in
// total, or r is exhausted. limit <= 0 reads everything. Passing a reader
// other than the previous one restarts the line tally; counts keep
// accumulating. It returns the number of distinct words.
func (c *Counter) CountLines(r io.Reader, limit int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src != r {
		c.src = r
		c.reader = bufio.NewReader(r)
		c.lines = 0
	}
	if limit > 0 && c.lines >= limit {
		c.logger.Debug("already counted %d lines, nothing to read", c.lines)
		return len(c.counts), nil
	}

	start := c.lines
	for limit <= 0 || c.lines < limit {
		line, err := c.reader.ReadString('\n')
		if line != "" {
			for _, w := range SplitLine(strings.TrimRight(line, "\r\n"), c.cfg) {
				c.add(w)
			}
			c.lines++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return len(c.counts), errors.Wrapf(err, "reading line %d", c.lines+1)
		}
	}

	c.logger.Debug("counted %d new lines (%d total, %d types, %d tokens)", c.lines-start, c.lines, len(c.counts), c.total)
	return len(c.counts), nil
}

// Types is the number of distinct words seen.
func (c *Counter) Types() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// Total is the number of words seen.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Lines is the number of lines consumed from the current reader.
func (c *Counter) Lines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines
}

// Frequencies returns a snapshot of the counts.
func (c *Counter) Frequencies() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for w, n := range c.counts {
		out[w] = n
	}
	return out
}

// Reset forgets all counts and detaches the reader.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
	c.total = 0
	c.src, c.reader, c.lines = nil, nil, 0
}

// WriteTSV writes "word\tcount" lines sorted by word.
func (c *Counter) WriteTSV(w io.Writer) error {
	freqs := c.Frequencies()
	words := make([]string, 0, len(freqs))
	for word := range freqs {
		words = append(words, word)
	}
	sort.Strings(words)

	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", word, freqs[word]); err != nil {
			return errors.Wrap(err, "writing counts")
		}
	}
	return errors.Wrap(bw.Flush(), "flushing counts")
}

// ReadTSV loads "word\tcount" lines, as written by WriteTSV, into a
// frequency map. Malformed lines are skipped and counted.
func ReadTSV(r io.Reader) (map[string]int, int, error) {
	out := make(map[string]int)
	skipped := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		word, count, ok := strings.Cut(line, "\t")
		if !ok || word == "" {
			skipped++
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 1 {
			skipped++
			continue
		}
		out[word] += n
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, errors.Wrap(err, "reading counts")
	}
	return out, skipped, nil
}
