package tokenizer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TokenizeAll tokenizes words in parallel. out[i] holds the symbols of
// words[i]. It stops early and returns the context's error when ctx is done.
func (t *Tokenizer) TokenizeAll(ctx context.Context, words []string, s Strategy) ([][]string, error) {
	if s != RuleOrder && s != LowestRank {
		return nil, ErrUnknownStrategy
	}

	out := make([][]string, len(words))
	g, gctx := errgroup.WithContext(ctx)
	workers := t.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, w := range words {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			toks, err := t.Tokenize(w, s)
			if err != nil {
				return err
			}
			out[i] = toks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
