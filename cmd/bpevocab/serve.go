package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/bpevocab/internal/config"
	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/server"
	"github.com/bpevocab/internal/store"
)

func runServe(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	noStore := fs.Bool("no-store", false, "run without the encoding store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)

	trainOpts, err := cfg.TrainOptions()
	if err != nil {
		return err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	caches, err := cfg.Caches()
	if err != nil {
		return err
	}

	opts := server.Options{
		Train:    trainOpts,
		Strategy: strategy,
		Caches:   caches,
		Workers:  cfg.Tokenize.Workers,
		Logger:   logger,
	}
	if !*noStore {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Store = st
	}

	srv := server.New(opts)
	if opts.Store != nil && cfg.Store.Name != "" {
		rec, err := opts.Store.Load(cfg.Store.Name)
		switch {
		case err == nil:
			srv.SetEncoding(rec.Name, rec.Encoding)
		case errors.Is(err, store.ErrNotFound):
			logger.Warn("no stored encoding %q, train one with POST /api/v1/train", cfg.Store.Name)
		default:
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, *addr)
}
