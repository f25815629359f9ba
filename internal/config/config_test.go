package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.TrainOptions()
	require.NoError(t, err)
	assert.Equal(t, trainer.DefaultMinPairFrequency, opts.MinPairFrequency)
	assert.Equal(t, trainer.AcceptedMerges, opts.Budget)
	assert.True(t, opts.Boundary)

	s, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, tokenizer.LowestRank, s)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "bpevocab.yaml", `
train:
  vocab_size: 300
  budget: fixed
  boundary: false
tokenize:
  strategy: rule-order
server:
  addr: ":9000"
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Train.VocabSize)
	assert.False(t, cfg.Train.Boundary)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, trainer.DefaultMaxMerges, cfg.Train.MaxMerges)

	opts, err := cfg.TrainOptions()
	require.NoError(t, err)
	assert.Equal(t, trainer.FixedIterations, opts.Budget)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "bpevocab.yaml", "train:\n  vocab_size: 300\n")
	t.Setenv("BPEVOCAB_VOCAB_SIZE", "42")
	t.Setenv("BPEVOCAB_BOUNDARY", "false")
	t.Setenv("BPEVOCAB_STRATEGY", "rule-order")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Train.VocabSize)
	assert.False(t, cfg.Train.Boundary)
	assert.Equal(t, "rule-order", cfg.Tokenize.Strategy)
}

func TestDotEnvFile(t *testing.T) {
	// t.Setenv restores the variable that godotenv sets
	t.Setenv("BPEVOCAB_ADDR", "")
	os.Unsetenv("BPEVOCAB_ADDR")

	env := writeFile(t, ".env", "BPEVOCAB_ADDR=127.0.0.1:7000\n")
	cfg, err := Load("", env, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "train: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "budget.yaml", "train:\n  budget: sometimes\n"))
	assert.ErrorIs(t, err, trainer.ErrInvalidOptions)

	_, err = Load(writeFile(t, "strategy.yaml", "tokenize:\n  strategy: sideways\n"))
	assert.ErrorIs(t, err, tokenizer.ErrUnknownStrategy)

	t.Setenv("BPEVOCAB_MAX_MERGES", "lots")
	_, err = Load("")
	assert.ErrorContains(t, err, "BPEVOCAB_MAX_MERGES")
}

func TestNegativeTrainValues(t *testing.T) {
	cfg := Default()
	cfg.Train.MaxMerges = -1
	assert.ErrorIs(t, cfg.Validate(), trainer.ErrInvalidOptions)

	cfg = Default()
	cfg.Tokenize.ResultCacheSize = 0
	assert.Error(t, cfg.Validate())
}
