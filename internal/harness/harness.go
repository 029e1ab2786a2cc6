package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ventolog/ventolog/internal/api"
	"github.com/ventolog/ventolog/internal/ledger"
	"github.com/ventolog/ventolog/internal/logging"
	"github.com/ventolog/ventolog/internal/schema"
	"github.com/ventolog/ventolog/internal/store"
	"github.com/ventolog/ventolog/internal/testutil"
)

// Runs start from this instant; the frozen clock makes received_at
// fields predictable across runs.
var startTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// Run executes a scenario against a fresh server with a deterministic
// clock and scripted randomness. The returned error covers
// infrastructure failures; expectation mismatches land in
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "ventolog-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st := store.Open(filepath.Join(dir, "data.json"))
	clock := testutil.NewClock(startTime)
	l := ledger.New(st,
		ledger.WithClock(clock.Now),
		ledger.WithRandom(testutil.SeqReader(252, 1<<16)),
	)
	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("failed to compile payload schema: %w", err)
	}
	srv := api.New(l, v, logging.Discard(), api.Config{AllowedOrigins: []string{"*"}})
	handler := srv.Handler()

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := runStep(handler, i, step, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func runStep(handler http.Handler, idx int, step FlowStep, result *Result) error {
	path := substitute(step.Request.Path, result.Vars)

	var body io.Reader
	if step.Request.Body != nil {
		payload := substituteValue(step.Request.Body, result.Vars)
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("flow[%d]: failed to marshal body: %w", idx, err)
		}
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(step.Request.Method, path, body)
	if step.Request.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if step.Request.Auth != "" {
		req.Header.Set("Authorization", "Bearer "+substitute(step.Request.Auth, result.Vars))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	sr := StepResult{Status: rec.Code, Raw: rec.Body.String()}
	_ = json.Unmarshal(rec.Body.Bytes(), &sr.Body) // non-JSON bodies keep Body nil
	result.Steps = append(result.Steps, sr)

	for name, field := range step.Capture {
		value, ok := sr.Body[field]
		if !ok {
			result.AddError("flow[%d]: capture field %q missing from response %s", idx, field, sr.Raw)
			continue
		}
		s, ok := value.(string)
		if !ok {
			result.AddError("flow[%d]: capture field %q is not a string", idx, field)
			continue
		}
		result.Vars[name] = s
	}

	if step.Expect == nil {
		return nil
	}
	if rec.Code != step.Expect.Status {
		result.AddError("flow[%d]: status %d, want %d (body %s)", idx, rec.Code, step.Expect.Status, sr.Raw)
	}
	for field, want := range step.Expect.Body {
		got, ok := sr.Body[field]
		if !ok {
			result.AddError("flow[%d]: response field %q missing", idx, field)
			continue
		}
		if want = substituteValue(want, result.Vars); !valueEqual(want, got) {
			result.AddError("flow[%d]: field %q is %v, want %v", idx, field, got, want)
		}
	}
	for field, want := range step.Expect.Length {
		got, ok := sr.Body[field].([]any)
		if !ok {
			result.AddError("flow[%d]: response field %q is not an array", idx, field)
			continue
		}
		if len(got) != want {
			result.AddError("flow[%d]: field %q has %d elements, want %d", idx, field, len(got), want)
		}
	}
	return nil
}

// substitute replaces {{name}} placeholders with captured variables.
func substitute(s string, vars map[string]string) string {
	for name, value := range vars {
		s = strings.ReplaceAll(s, "{{"+name+"}}", value)
	}
	return s
}

// substituteValue walks maps, slices and strings, substituting
// variables in every string leaf.
func substituteValue(v any, vars map[string]string) any {
	switch val := v.(type) {
	case string:
		return substitute(val, vars)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = substituteValue(item, vars)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substituteValue(item, vars)
		}
		return out
	default:
		return v
	}
}

// valueEqual compares an expectation value from YAML against a decoded
// JSON value. Maps match as subsets, arrays match elementwise with the
// same length, and numbers compare as floats since YAML decodes
// integers where JSON decodes float64.
func valueEqual(want, got any) bool {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return false
		}
		for k, wv := range w {
			gv, ok := g[k]
			if !ok || !valueEqual(wv, gv) {
				return false
			}
		}
		return true
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valueEqual(w[i], g[i]) {
				return false
			}
		}
		return true
	case int:
		g, ok := got.(float64)
		return ok && float64(w) == g
	case float64:
		g, ok := got.(float64)
		return ok && w == g
	default:
		return want == got
	}
}
