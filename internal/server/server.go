// Package server exposes training and tokenization over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

const previewRules = 20

// Options configures a Server.
type Options struct {
	// Train holds the defaults for POST /train; the request's vocab_size
	// overrides VocabSize.
	Train    trainer.Options
	Strategy tokenizer.Strategy
	Caches   *tokenizer.Caches
	Workers  int
	// Store is optional; without it the encodings routes answer 501.
	Store  *store.Store
	Logger *logging.Logger
}

// Server serves one active encoding at a time. The encoding is swapped as a
// whole, so a request never sees a tokenizer from one encoding paired with
// metadata from another.
type Server struct {
	opts    Options
	started time.Time

	mu     sync.RWMutex
	active *active
}

type active struct {
	name string
	enc  *trainer.Encoding
	tok  *tokenizer.Tokenizer
}

func New(opts Options) *Server {
	if opts.Caches == nil {
		opts.Caches = tokenizer.DefaultCaches()
	}
	return &Server{opts: opts, started: time.Now()}
}

// SetEncoding makes enc the active encoding.
func (s *Server) SetEncoding(name string, enc *trainer.Encoding) {
	a := &active{
		name: name,
		enc:  enc,
		tok:  tokenizer.FromEncoding(enc, tokenizer.WithCaches(s.opts.Caches), tokenizer.WithWorkers(s.opts.Workers)),
	}
	s.mu.Lock()
	s.active = a
	s.mu.Unlock()
	s.opts.Logger.Info("active encoding %q (%d merges, rules %s)", name, len(enc.Merges), a.tok.Fingerprint().Short())
}

func (s *Server) current() *active {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/stats", s.handleStats)

		api.GET("/encoding", s.handleEncoding)
		api.POST("/tokenize", s.handleTokenize)
		api.POST("/detokenize", s.handleDetokenize)
		api.POST("/train", s.handleTrain)

		api.GET("/encodings", s.handleListEncodings)
		api.POST("/encodings/:name/activate", s.handleActivate)
		api.DELETE("/encodings/:name", s.handleDeleteEncoding)
	}
	return router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("API server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
