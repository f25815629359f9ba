package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/bpevocab/internal/config"
	"github.com/bpevocab/internal/corpus"
	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

func runTrain(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	corpusPath := fs.String("corpus", "", "plain-text corpus, one sentence per line")
	countsPath := fs.String("counts", "", "word<TAB>count file used instead of -corpus")
	countsOut := fs.String("counts-out", "", "write the counted word frequencies here")
	out := fs.String("out", "", "write the learned rules here")
	save := fs.String("save", "", "save the encoding in the store under this name")
	vocab := fs.Int("vocab", cfg.Train.VocabSize, "target vocabulary size")
	lines := fs.Int("lines", cfg.Train.Lines, "corpus lines to read, 0 for all")
	budget := fs.String("budget", cfg.Train.Budget, "budget mode: accepted or fixed")
	quiet := fs.Bool("quiet", false, "no progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Train.VocabSize = *vocab
	cfg.Train.Budget = *budget

	freqs, err := loadFrequencies(cfg, logger, *corpusPath, *countsPath, *lines)
	if err != nil {
		return err
	}
	if *countsOut != "" {
		if err := writeCounts(*countsOut, freqs); err != nil {
			return err
		}
	}

	opts, err := cfg.TrainOptions()
	if err != nil {
		return err
	}
	opts.Logger = logger

	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	if !*quiet {
		p = mpb.New(mpb.WithWidth(80))
		opts.Progress = func(done, total int) {
			if bar == nil {
				bar = p.AddBar(int64(total),
					mpb.PrependDecorators(decor.Name("Merging pairs: "), decor.CountersNoUnit("%d / %d", decor.WCSyncSpace)),
					mpb.AppendDecorators(decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!")),
				)
			}
			bar.SetCurrent(int64(done))
		}
	}

	start := time.Now()
	enc, err := trainer.Train(freqs, opts)
	if p != nil {
		if bar != nil {
			if err != nil {
				bar.Abort(false)
			} else {
				// training may stop short of the budget
				bar.SetTotal(-1, true)
			}
		}
		p.Wait()
	}
	if err != nil {
		return err
	}
	took := time.Since(start)

	if *out != "" {
		if err := tokenizer.SaveRules(*out, enc.Merges); err != nil {
			return err
		}
	}
	if *save != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(*save, enc); err != nil {
			return err
		}
	}

	fmt.Println(summary("training complete",
		field{"words", len(freqs)},
		field{"charset", enc.Charset.Len()},
		field{"merges", len(enc.Merges)},
		field{"symbols", enc.Tokens.Len()},
		field{"collisions", enc.Collisions},
		field{"budget", opts.Budget},
		field{"fingerprint", tokenizer.FingerprintOf(enc.Merges).Short()},
		field{"took", took.Round(time.Millisecond)},
	))
	return nil
}

func loadFrequencies(cfg *config.Config, logger *logging.Logger, corpusPath, countsPath string, lines int) (map[string]int, error) {
	switch {
	case countsPath != "":
		f, err := os.Open(countsPath)
		if err != nil {
			return nil, errors.Wrap(err, "opening counts")
		}
		defer f.Close()
		freqs, skipped, err := corpus.ReadTSV(f)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			logger.Warn("skipped %d malformed lines in %s", skipped, countsPath)
		}
		return freqs, nil

	case corpusPath != "":
		f, err := os.Open(corpusPath)
		if err != nil {
			return nil, errors.Wrap(err, "opening corpus")
		}
		defer f.Close()
		c := corpus.NewCounter(cfg.Corpus, logger)
		if _, err := c.CountLines(f, lines); err != nil {
			return nil, err
		}
		logger.Info("counted %d lines, %d words, %d types", c.Lines(), c.Total(), c.Types())
		return c.Frequencies(), nil
	}
	return nil, errors.New("one of -corpus or -counts is required")
}

func writeCounts(path string, freqs map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating counts file")
	}
	defer f.Close()

	c := corpus.NewCounter(corpus.SplitConfig{}, nil)
	for w, n := range freqs {
		c.AddCount(w, n)
	}
	if err := c.WriteTSV(f); err != nil {
		return err
	}
	return errors.Wrap(f.Close(), "closing counts file")
}
