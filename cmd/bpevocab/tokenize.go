package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/bpevocab/internal/config"
	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
)

func runTokenize(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("tokenize", flag.ExitOnError)
	rulesPath := fs.String("rules", "", "rules file; the charset is rebuilt from the rules")
	name := fs.String("name", cfg.Store.Name, "stored encoding to use when -rules is not set")
	strategy := fs.String("strategy", cfg.Tokenize.Strategy, "rule-order or lowest-rank")
	boundary := fs.Bool("boundary", cfg.Train.Boundary, "mark word starts (with -rules only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := tokenizer.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	caches, err := cfg.Caches()
	if err != nil {
		return err
	}
	opts := []tokenizer.Option{tokenizer.WithCaches(caches), tokenizer.WithWorkers(cfg.Tokenize.Workers)}

	var tok *tokenizer.Tokenizer
	if *rulesPath != "" {
		merges, skipped, err := tokenizer.LoadRules(*rulesPath)
		if err != nil {
			return err
		}
		if skipped > 0 {
			logger.Warn("skipped %d malformed rules in %s", skipped, *rulesPath)
		}
		tok = tokenizer.New(merges, tokenizer.CharsetOf(merges), *boundary, opts...)
	} else {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		rec, err := st.Load(*name)
		st.Close()
		if err != nil {
			return err
		}
		tok = tokenizer.FromEncoding(rec.Encoding, opts...)
	}
	logger.Debug("tokenizing with %d rules (%s), strategy %s", len(tok.Merges()), tok.Fingerprint().Short(), s)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if fs.NArg() > 0 {
		res, err := tok.TokenizeAll(context.Background(), fs.Args(), s)
		if err != nil {
			return err
		}
		return printTokens(out, fs.Args(), res)
	}
	return streamTokens(out, os.Stdin, tok, s)
}

func streamTokens(w io.Writer, r io.Reader, tok *tokenizer.Tokenizer, s tokenizer.Strategy) error {
	enc, err := tok.NewStreamEncoder(s)
	if err != nil {
		return err
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if err := printTokens(w, nil, enc.Push(buf[:n])); err != nil {
				return err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
	}
	return printTokens(w, nil, enc.Flush())
}

// printTokens writes one word per line as space-separated symbols, prefixed
// by the input word when words is given.
func printTokens(w io.Writer, words []string, res [][]string) error {
	for i, toks := range res {
		line := strings.Join(toks, " ")
		if words != nil {
			line = words[i] + "\t" + line
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Wrap(err, "writing tokens")
		}
	}
	return nil
}
