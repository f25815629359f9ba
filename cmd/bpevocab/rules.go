package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bpevocab/internal/config"
	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
)

func runRules(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	name := fs.String("name", "", "print the rules of this encoding; list all when empty")
	del := fs.Bool("delete", false, "delete the encoding named by -name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	switch {
	case *name == "":
		list, err := st.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			logger.Info("no encodings in %s", cfg.Store.Path)
			return nil
		}
		for _, s := range list {
			fmt.Println(summary(s.Name,
				field{"saved", s.SavedAt.Local().Format(time.DateTime)},
				field{"merges", s.Merges},
				field{"symbols", s.Symbols},
			))
		}
		return nil

	case *del:
		if err := st.Delete(*name); err != nil {
			return err
		}
		logger.Info("deleted encoding %q", *name)
		return nil
	}

	rec, err := st.Load(*name)
	if err != nil {
		return err
	}
	return tokenizer.WriteRules(os.Stdout, rec.Encoding.Merges)
}
