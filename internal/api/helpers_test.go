package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/logging"
	"github.com/ventolog/ventolog/internal/schema"
	"github.com/ventolog/ventolog/internal/store"
	"github.com/ventolog/ventolog/internal/testutil"
)

var testStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithConfig(t, Config{AllowedOrigins: []string{"*"}})
}

func newTestServerWithConfig(t *testing.T, cfg Config) *Server {
	t.Helper()

	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	clock := testutil.NewClock(testStart)
	l := ledger.New(st,
		ledger.WithClock(clock.Now),
		ledger.WithRandom(testutil.SeqReader(252, 1<<16)),
	)
	v, err := schema.New()
	require.NoError(t, err, "compiling the payload schema must succeed")

	return New(l, v, logging.Discard(), cfg)
}

func doJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "marshaling the request body must succeed")
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "response must be JSON: %s", rec.Body.String())
	return body
}

func issueCode(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/generate-code", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, "issuing a code must succeed")
	return decodeBody(t, rec)["code"].(string)
}

func issueToken(t *testing.T, s *Server, code string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/generate-token", map[string]string{"code": code}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "issuing a token must succeed")
	return decodeBody(t, rec)["token"].(string)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func validEvent(overrides map[string]any) map[string]any {
	ev := map[string]any{
		"id":         "abc-123",
		"date":       "2026-02-21",
		"timestamp":  "2026-02-21T14:30:00.000Z",
		"type":       "ventoline",
		"count":      2,
		"preventive": false,
	}
	for k, v := range overrides {
		ev[k] = v
	}
	return ev
}
