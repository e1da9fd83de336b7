package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"calcnerd/internal/calc"
	"calcnerd/internal/config"
	"calcnerd/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService answers POST /api/calculate with a canned response per
// operation and counts requests.
func fakeService(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/calculate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req types.CalculationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Expression {
		case "boom":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(types.CalculationResponse{Error: "Could not parse expression"})
		case "x^2 - 1":
			_ = json.NewEncoder(w).Encode(types.CalculationResponse{Success: true, Result: types.Solutions("-1", "1")})
		default:
			_ = json.NewEncoder(w).Encode(types.CalculationResponse{
				Success: true,
				Result:  types.Scalar("2 x"),
				Steps:   []types.Step{{Title: "Power rule", Expression: "x^{2}", Explanation: "bring the exponent down"}},
				Graph: &types.GraphPayload{
					Original:   &types.Series{Label: req.Expression, X: []float64{-1, 0, 1}, Y: []float64{1, 0, 1}},
					Derivative: &types.Series{Label: "2x", X: []float64{-1, 0, 1}, Y: []float64{-2, 0, 2}},
				},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// writeConfig saves a config pointing at url with history in a temp dir.
func writeConfig(t *testing.T, url string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Service.BaseURL = url
	cfg.History.DatabasePath = filepath.Join(dir, "history.db")
	cfg.Logging.File = filepath.Join(dir, "calc.log")
	cfg.Batch.RequestsPerSecond = 0
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDerivativeCommand(t *testing.T) {
	srv, calls := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := runCLI(t, "--config", cfgPath, "derivative", "x^2", "--order", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, out, "2 x")
	assert.Contains(t, out, "Power rule")
	assert.Contains(t, out, "x²")
	assert.Contains(t, out, "Original x^2")
}

func TestSolutionsAndNoGraph(t *testing.T) {
	srv, _ := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := runCLI(t, "--config", cfgPath, "limit", "x^2 - 1", "--no-graph")
	require.NoError(t, err)
	assert.Contains(t, out, "Solutions: -1, 1")
	assert.NotContains(t, out, "Original")
}

func TestJSONOutput(t *testing.T) {
	srv, _ := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := runCLI(t, "--config", cfgPath, "series", "sin(x)", "--terms", "4", "--format", "json")
	require.NoError(t, err)

	var resp types.CalculationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2 x", resp.Result.String())
}

func TestServiceErrorReturnsBannerText(t *testing.T) {
	srv, _ := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	_, err := runCLI(t, "--config", cfgPath, "integral", "boom")
	require.Error(t, err)
	assert.Equal(t, "Could not parse expression", err.Error())

	var svcErr *calc.ServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestEmptyExpressionNeverCallsService(t *testing.T) {
	srv, calls := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	_, err := runCLI(t, "--config", cfgPath, "derivative", "   ")
	require.ErrorIs(t, err, calc.ErrEmptyExpression)
	assert.Equal(t, calc.MsgEmptyExpression, err.Error())
	assert.Zero(t, calls.Load())
}

func TestUnreachableServiceShowsGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	cfgPath := writeConfig(t, url)

	_, err := runCLI(t, "--config", cfgPath, "derivative", "x")
	require.Error(t, err)
	assert.Equal(t, calc.MsgGenericFailure, err.Error())
}

func TestServiceURLFlagOverridesConfig(t *testing.T) {
	srv, calls := fakeService(t)
	cfgPath := writeConfig(t, "http://127.0.0.1:1")

	_, err := runCLI(t, "--config", cfgPath, "--service-url", srv.URL, "derivative", "x^2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBatchAndHistory(t *testing.T) {
	srv, calls := fakeService(t)
	cfgPath := writeConfig(t, srv.URL)

	batchFile := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(batchFile, []byte(`
- operation: derivative
  expression: x^2
- operation: integral
  expression: boom
- operation: limit
  expression: x^2 - 1
  point: "1"
`), 0644))

	out, err := runCLI(t, "--config", cfgPath, "batch", batchFile, "--no-graph")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, out, "#1 derivative x^2")
	assert.Contains(t, out, "Could not parse expression")
	assert.Contains(t, out, "Solutions: -1, 1")
	assert.Contains(t, out, "3 requests, 1 failed")
	assert.Less(t, bytes.Index([]byte(out), []byte("#1")), bytes.Index([]byte(out), []byte("#3")))

	out, err = runCLI(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "error: Could not parse expression")
	assert.Contains(t, out, "derivative x^2")
	assert.Contains(t, out, "3 of 3 entries")

	out, err = runCLI(t, "--config", cfgPath, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 entries")

	out, err = runCLI(t, "--config", cfgPath, "history", "--operation", "limit", "--format", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 1)

	out, err = runCLI(t, "--config", cfgPath, "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 3 entries.")
}

func TestHistoryRejectsUnknownOperation(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:5000")
	_, err := runCLI(t, "--config", cfgPath, "history", "--operation", "matrix")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := runCLI(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.FileExists(t, path)

	_, err = runCLI(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	out, err = runCLI(t, "--config", path, "--service-url", "https://calc.example.org", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://calc.example.org")
}

func TestInvalidServiceURL(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:5000")
	_, err := runCLI(t, "--config", cfgPath, "--service-url", "not a url", "derivative", "x")
	assert.ErrorContains(t, err, "invalid configuration")
}
