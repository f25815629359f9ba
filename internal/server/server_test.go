package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpevocab/internal/store"
	"github.com/bpevocab/internal/tokenizer"
	"github.com/bpevocab/internal/trainer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func toyFrequencies() map[string]int {
	return map[string]int{"de": 120, "la": 80, "paris": 15, "partir": 12, "dela": 5}
}

func newTestServer(t *testing.T, withStore bool) (*Server, http.Handler) {
	t.Helper()
	caches, err := tokenizer.NewCaches(4, 256)
	require.NoError(t, err)

	opts := Options{
		Train:    trainer.DefaultOptions(200),
		Strategy: tokenizer.LowestRank,
		Caches:   caches,
	}
	if withStore {
		st, err := store.Open(filepath.Join(t.TempDir(), "enc.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		opts.Store = st
	}

	s := New(opts)
	return s, s.Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, false)
	rec := do(t, h, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestTokenizeWithoutEncoding(t *testing.T) {
	_, h := newTestServer(t, false)
	rec := do(t, h, http.MethodPost, "/api/v1/tokenize", TokenizeRequest{Words: []string{"paris"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/encoding", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrainThenTokenize(t *testing.T) {
	_, h := newTestServer(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/train", TrainRequest{Frequencies: toyFrequencies(), Name: "toy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tr := decode[TrainResponse](t, rec)
	assert.Equal(t, "toy", tr.Name)
	assert.Equal(t, 13, tr.Merges)
	assert.False(t, tr.Saved)

	rec = do(t, h, http.MethodGet, "/api/v1/encoding", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	enc := decode[EncodingResponse](t, rec)
	assert.Equal(t, "toy", enc.Name)
	assert.Equal(t, "_ d", enc.Rules[0])
	assert.Len(t, enc.Fingerprint, 64)

	for _, strategy := range []string{"", "rule-order", "lowest-rank"} {
		rec = do(t, h, http.MethodPost, "/api/v1/tokenize", TokenizeRequest{Words: []string{"paris", "euros€"}, Strategy: strategy})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[TokenizeResponse](t, rec)
		require.Len(t, resp.Tokens, 2)
		assert.Equal(t, []string{"_paris"}, resp.Tokens[0])
		assert.Contains(t, resp.Tokens[1], "<UNK>")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/detokenize", DetokenizeRequest{Tokens: [][]string{{"_pa", "ris"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"paris"}, decode[DetokenizeResponse](t, rec).Words)

	rec = do(t, h, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[tokenizer.CacheStats](t, rec).RankTables)
}

func TestBadRequests(t *testing.T) {
	s, h := newTestServer(t, false)
	s.SetEncoding("toy", mustTrain(t))

	tests := []struct {
		name string
		path string
		body any
	}{
		{"tokenize malformed", "/api/v1/tokenize", "{"},
		{"tokenize missing words", "/api/v1/tokenize", `{"strategy":"rule-order"}`},
		{"tokenize bad strategy", "/api/v1/tokenize", TokenizeRequest{Words: []string{"x"}, Strategy: "sideways"}},
		{"train malformed", "/api/v1/train", "not json"},
		{"train empty corpus", "/api/v1/train", `{"frequencies":{}}`},
		{"train zero frequency", "/api/v1/train", `{"frequencies":{"de":0}}`},
		{"train word with space", "/api/v1/train", `{"frequencies":{"a b":50,"a bc":40}}`},
		{"train negative vocab", "/api/v1/train", `{"frequencies":{"de":1},"vocab_size":-3}`},
		{"detokenize malformed", "/api/v1/detokenize", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.True(t, strings.Contains(rec.Body.String(), `"error"`))
		})
	}

	// a failed training leaves the active encoding alone
	rec := do(t, h, http.MethodGet, "/api/v1/encoding", nil)
	assert.Equal(t, "toy", decode[EncodingResponse](t, rec).Name)
}

func TestStoreRoutes(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/api/v1/encodings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"encodings":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/train", TrainRequest{Frequencies: toyFrequencies(), Name: "small", VocabSize: 15, Save: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[TrainResponse](t, rec).Saved)

	rec = do(t, h, http.MethodPost, "/api/v1/train", TrainRequest{Frequencies: toyFrequencies(), Name: "big", Save: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/encodings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Encodings []store.Summary `json:"encodings"`
	}](t, rec)
	require.Len(t, list.Encodings, 2)

	rec = do(t, h, http.MethodPost, "/api/v1/encodings/small/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/encoding", nil)
	assert.Equal(t, 5, decode[EncodingResponse](t, rec).Merges)

	rec = do(t, h, http.MethodPost, "/api/v1/encodings/nope/activate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/encodings/big", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/v1/encodings/big", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreRoutesWithoutStore(t *testing.T) {
	_, h := newTestServer(t, false)
	assert.Equal(t, http.StatusNotImplemented, do(t, h, http.MethodGet, "/api/v1/encodings", nil).Code)

	rec := do(t, h, http.MethodPost, "/api/v1/train", TrainRequest{Frequencies: toyFrequencies(), Save: true})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func mustTrain(t *testing.T) *trainer.Encoding {
	t.Helper()
	enc, err := trainer.Train(toyFrequencies(), trainer.DefaultOptions(200))
	require.NoError(t, err)
	return enc
}
