package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Encoding string `json:"encoding,omitempty"`
	Uptime   string `json:"uptime"`
}

type EncodingResponse struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Merges      int      `json:"merges"`
	Charset     int      `json:"charset"`
	Symbols     int      `json:"symbols"`
	Collisions  int      `json:"collisions"`
	Boundary    bool     `json:"boundary"`
	Rules       []string `json:"rules"`
}

type TokenizeRequest struct {
	Words    []string `json:"words" binding:"required"`
	Strategy string   `json:"strategy"`
}

type TokenizeResponse struct {
	Strategy string     `json:"strategy"`
	Tokens   [][]string `json:"tokens"`
}

type DetokenizeRequest struct {
	Tokens [][]string `json:"tokens" binding:"required"`
}

type DetokenizeResponse struct {
	Words []string `json:"words"`
}

type TrainRequest struct {
	Frequencies map[string]int `json:"frequencies" binding:"required"`
	VocabSize   int            `json:"vocab_size"`
	// Name labels the encoding; with Save it is also the store key.
	Name string `json:"name"`
	Save bool   `json:"save"`
}

type TrainResponse struct {
	Name       string `json:"name"`
	Merges     int    `json:"merges"`
	Symbols    int    `json:"symbols"`
	Collisions int    `json:"collisions"`
	Saved      bool   `json:"saved"`
	Took       string `json:"took"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Uptime: time.Since(s.started).Round(time.Second).String()}
	if a := s.current(); a != nil {
		resp.Encoding = a.name
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Caches.Stats())
}

func (s *Server) handleEncoding(c *gin.Context) {
	a := s.current()
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no encoding loaded"})
		return
	}

	rules := a.enc.Rules()
	if len(rules) > previewRules {
		rules = rules[:previewRules]
	}
	c.JSON(http.StatusOK, EncodingResponse{
		Name:        a.name,
		Fingerprint: a.tok.Fingerprint().String(),
		Merges:      len(a.enc.Merges),
		Charset:     a.enc.Charset.Len(),
		Symbols:     a.enc.Tokens.Len(),
		Collisions:  a.enc.Collisions,
		Boundary:    a.enc.Boundary,
		Rules:       rules,
	})
}

func (s *Server) handleTokenize(c *gin.Context) {
	var req TokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	strategy := s.opts.Strategy
	if req.Strategy != "" {
		var err error
		if strategy, err = tokenizer.ParseStrategy(req.Strategy); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	a := s.current()
	if a == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no encoding loaded"})
		return
	}

	tokens, err := a.tok.TokenizeAll(c.Request.Context(), req.Words, strategy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, TokenizeResponse{Strategy: strategy.String(), Tokens: tokens})
}

func (s *Server) handleDetokenize(c *gin.Context) {
	var req DetokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	boundary := s.opts.Train.Boundary
	if a := s.current(); a != nil {
		boundary = a.enc.Boundary
	}

	words := make([]string, len(req.Tokens))
	for i, toks := range req.Tokens {
		words[i] = tokenizer.Detokenize(toks, boundary)
	}
	c.JSON(http.StatusOK, DetokenizeResponse{Words: words})
}

func (s *Server) handleTrain(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	opts := s.opts.Train
	opts.Logger = s.opts.Logger
	if req.VocabSize != 0 {
		opts.VocabSize = req.VocabSize
	}
	name := req.Name
	if name == "" {
		name = "trained-" + time.Now().UTC().Format("20060102T150405")
	}

	start := time.Now()
	enc, err := trainer.Train(req.Frequencies, opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, trainer.ErrEmptyCorpus),
			errors.Is(err, trainer.ErrInvalidFrequency),
			errors.Is(err, trainer.ErrInvalidWord),
			errors.Is(err, trainer.ErrInvalidOptions):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	took := time.Since(start)

	saved := false
	if req.Save {
		if s.opts.Store == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "no encoding store configured"})
			return
		}
		if err := s.opts.Store.Save(name, enc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		saved = true
	}

	s.SetEncoding(name, enc)
	c.JSON(http.StatusOK, TrainResponse{
		Name:       name,
		Merges:     len(enc.Merges),
		Symbols:    enc.Tokens.Len(),
		Collisions: enc.Collisions,
		Saved:      saved,
		Took:       took.String(),
	})
}

func (s *Server) handleListEncodings(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no encoding store configured"})
		return
	}
	list, err := s.opts.Store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"encodings": list})
}

func (s *Server) handleActivate(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no encoding store configured"})
		return
	}
	name := c.Param("name")
	rec, err := s.opts.Store.Load(name)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.SetEncoding(name, rec.Encoding)
	c.JSON(http.StatusOK, gin.H{"active": name})
}

func (s *Server) handleDeleteEncoding(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no encoding store configured"})
		return
	}
	if err := s.opts.Store.Delete(c.Param("name")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
