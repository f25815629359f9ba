// Package config loads CLI and service settings from a YAML file, an optional
// .env file, and BPEVOCAB_* environment variables, in that order of
// increasing precedence.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/bpevocab/internal/corpus"
	"github.com/bpevocab/internal/logging"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

const envPrefix = "BPEVOCAB_"

type Config struct {
	Train    TrainConfig        `yaml:"train"`
	Tokenize TokenizeConfig     `yaml:"tokenize"`
	Corpus   corpus.SplitConfig `yaml:"corpus"`
	Server   ServerConfig       `yaml:"server"`
	Store    StoreConfig        `yaml:"store"`
	Logging  logging.Config     `yaml:"logging"`
}

type TrainConfig struct {
	VocabSize        int    `yaml:"vocab_size"`
	MinPairFrequency int    `yaml:"min_pair_frequency"`
	MaxMerges        int    `yaml:"max_merges"`
	Boundary         bool   `yaml:"boundary"`
	Budget           string `yaml:"budget"`
	// Lines limits how many corpus lines are counted; 0 reads everything.
	Lines int `yaml:"lines"`
}

type TokenizeConfig struct {
	Strategy        string `yaml:"strategy"`
	RankCacheSize   int    `yaml:"rank_cache_size"`
	ResultCacheSize int    `yaml:"result_cache_size"`
	Workers         int    `yaml:"workers"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
	// Name is the encoding the service loads at startup, if present.
	Name string `yaml:"name"`
}

// Default mirrors the trainer and tokenizer defaults.
func Default() *Config {
	return &Config{
		Train: TrainConfig{
			VocabSize:        1000,
			MinPairFrequency: trainer.DefaultMinPairFrequency,
			MaxMerges:        trainer.DefaultMaxMerges,
			Boundary:         true,
			Budget:           trainer.AcceptedMerges.String(),
		},
		Tokenize: TokenizeConfig{
			Strategy:        tokenizer.LowestRank.String(),
			RankCacheSize:   tokenizer.DefaultRankCacheSize,
			ResultCacheSize: tokenizer.DefaultResultCacheSize,
		},
		Corpus: corpus.DefaultSplitConfig(),
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Store: StoreConfig{
			Path: "bpevocab.db",
			Name: "default",
		},
		Logging: logging.Config{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files (missing ones are ignored) and the
// environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "loading env file %s", f)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BUDGET":     &c.Train.Budget,
		"STRATEGY":   &c.Tokenize.Strategy,
		"ADDR":       &c.Server.Addr,
		"GIN_MODE":   &c.Server.Mode,
		"STORE_PATH": &c.Store.Path,
		"STORE_NAME": &c.Store.Name,
		"LOG_LEVEL":  &c.Logging.Level,
		"LOG_OUTPUT": &c.Logging.Output,
	}
	ints := map[string]*int{
		"VOCAB_SIZE":         &c.Train.VocabSize,
		"MIN_PAIR_FREQUENCY": &c.Train.MinPairFrequency,
		"MAX_MERGES":         &c.Train.MaxMerges,
		"LINES":              &c.Train.Lines,
		"RANK_CACHE_SIZE":    &c.Tokenize.RankCacheSize,
		"RESULT_CACHE_SIZE":  &c.Tokenize.ResultCacheSize,
		"WORKERS":            &c.Tokenize.Workers,
	}
	bools := map[string]*bool{
		"BOUNDARY":  &c.Train.Boundary,
		"LOWERCASE": &c.Corpus.Lowercase,
	}

	for k, dst := range strs {
		if v, ok := lookup(envPrefix + k); ok {
			*dst = v
		}
	}
	for k, dst := range ints {
		if v, ok := lookup(envPrefix + k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, k)
			}
			*dst = n
		}
	}
	for k, dst := range bools {
		if v, ok := lookup(envPrefix + k); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, k)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the values that can be checked without running anything.
func (c *Config) Validate() error {
	if _, err := c.TrainOptions(); err != nil {
		return err
	}
	if _, err := c.Strategy(); err != nil {
		return err
	}
	if c.Tokenize.RankCacheSize < 1 || c.Tokenize.ResultCacheSize < 1 {
		return errors.Errorf("cache sizes must be positive (rank=%d, result=%d)",
			c.Tokenize.RankCacheSize, c.Tokenize.ResultCacheSize)
	}
	return nil
}

// TrainOptions converts the train section into trainer options.
func (c *Config) TrainOptions() (trainer.Options, error) {
	mode, err := trainer.ParseBudgetMode(c.Train.Budget)
	if err != nil {
		return trainer.Options{}, err
	}
	opts := trainer.DefaultOptions(c.Train.VocabSize)
	opts.MinPairFrequency = c.Train.MinPairFrequency
	opts.MaxMerges = c.Train.MaxMerges
	opts.Boundary = c.Train.Boundary
	opts.Budget = mode
	if c.Train.VocabSize < 0 || c.Train.MaxMerges < 0 || c.Train.MinPairFrequency < 0 {
		return trainer.Options{}, errors.Wrapf(trainer.ErrInvalidOptions, "train section %+v", c.Train)
	}
	return opts, nil
}

func (c *Config) Strategy() (tokenizer.Strategy, error) {
	return tokenizer.ParseStrategy(c.Tokenize.Strategy)
}

// Caches builds tokenizer caches sized from the tokenize section.
func (c *Config) Caches() (*tokenizer.Caches, error) {
	return tokenizer.NewCaches(c.Tokenize.RankCacheSize, c.Tokenize.ResultCacheSize)
}
