package calc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"calcnerd/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func derivativeRequest() *types.CalculationRequest {
	return &types.CalculationRequest{
		Operation:  types.OperationDerivative,
		Expression: "x^2",
		Variable:   "x",
		Order:      1,
	}
}

// newService starts a test server that replies with status and body and
// records what it received.
func newService(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, chan *http.Request, chan []byte) {
	t.Helper()
	var calls atomic.Int32
	reqs := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		data, _ := io.ReadAll(r.Body)
		select {
		case reqs <- r:
			bodies <- data
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, reqs, bodies
}

func TestClient_Success(t *testing.T) {
	srv, calls, reqs, bodies := newService(t, http.StatusOK, `{"success": true, "result": "2 x", "steps": []}`)
	c := NewClient(srv.URL + "/api/calculate")

	resp, err := c.Calculate(context.Background(), derivativeRequest())
	require.NoError(t, err)
	assert.Equal(t, "2 x", resp.Result.String())
	assert.Equal(t, int32(1), calls.Load())

	r := <-reqs
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/api/calculate", r.URL.Path)
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(<-bodies, &sent))
	assert.Equal(t, "derivative", sent["operation"])
	assert.Equal(t, "x^2", sent["expression"])
	assert.Equal(t, float64(1), sent["order"])
}

func TestClient_RequestIDFromContext(t *testing.T) {
	srv, _, reqs, _ := newService(t, http.StatusOK, `{"success": true, "result": "1"}`)
	c := NewClient(srv.URL)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	_, err := c.Calculate(ctx, derivativeRequest())
	require.NoError(t, err)
	assert.Equal(t, "req-42", (<-reqs).Header.Get("X-Request-ID"))
}

func TestClient_EmptyExpressionNeverCallsService(t *testing.T) {
	srv, calls, _, _ := newService(t, http.StatusOK, `{"success": true}`)
	c := NewClient(srv.URL)

	req := derivativeRequest()
	req.Expression = "   "
	_, err := c.Calculate(context.Background(), req)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MsgEmptyExpression, UserMessage(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_ServiceReportedFailure(t *testing.T) {
	srv, _, _, _ := newService(t, http.StatusBadRequest, `{"success": false, "error": "invalid expression"}`)
	c := NewClient(srv.URL)

	resp, err := c.Calculate(context.Background(), derivativeRequest())
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "invalid expression", UserMessage(err))
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
}

func TestClient_SuccessFalseWithOKStatus(t *testing.T) {
	srv, _, _, _ := newService(t, http.StatusOK, `{"success": false}`)
	c := NewClient(srv.URL)

	_, err := c.Calculate(context.Background(), derivativeRequest())
	assert.Equal(t, "service", Kind(err))
	assert.Equal(t, MsgGenericFailure, UserMessage(err))
}

func TestClient_ErrorStatusWithoutSuccessField(t *testing.T) {
	// The service answers missing expressions with only an error field.
	srv, _, _, _ := newService(t, http.StatusBadRequest, `{"error": "No expression provided"}`)
	c := NewClient(srv.URL)

	_, err := c.Calculate(context.Background(), derivativeRequest())
	assert.Equal(t, "No expression provided", UserMessage(err))
}

func TestClient_NonJSONErrorStatus(t *testing.T) {
	srv, _, _, _ := newService(t, http.StatusInternalServerError, `<html>boom</html>`)
	c := NewClient(srv.URL)

	_, err := c.Calculate(context.Background(), derivativeRequest())
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, MsgGenericFailure, UserMessage(err))
}

func TestClient_MalformedSuccessBodyIsTransportError(t *testing.T) {
	srv, _, _, _ := newService(t, http.StatusOK, `not json`)
	c := NewClient(srv.URL)

	_, err := c.Calculate(context.Background(), derivativeRequest())
	assert.Equal(t, "transport", Kind(err))
	assert.Equal(t, MsgGenericFailure, UserMessage(err))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithTimeout(2*time.Second))
	_, err := c.Calculate(context.Background(), derivativeRequest())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Error(t, te.Unwrap())
	assert.Equal(t, MsgGenericFailure, UserMessage(err))
}

func TestClient_SetURL(t *testing.T) {
	srv, calls, _, _ := newService(t, http.StatusOK, `{"success": true, "result": "0"}`)
	c := NewClient("http://127.0.0.1:1/unused")
	c.SetURL(srv.URL)
	assert.Equal(t, srv.URL, c.URL())

	_, err := c.Calculate(context.Background(), derivativeRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	// Registering twice reuses the same collectors
	again, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, m.requests, again.requests)

	okSrv, _, _, _ := newService(t, http.StatusOK, `{"success": true, "result": "1"}`)
	badSrv, _, _, _ := newService(t, http.StatusBadRequest, `{"success": false, "error": "nope"}`)

	_, err = NewClient(okSrv.URL, WithMetrics(m)).Calculate(context.Background(), derivativeRequest())
	require.NoError(t, err)
	_, err = NewClient(badSrv.URL, WithMetrics(m)).Calculate(context.Background(), derivativeRequest())
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("derivative", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("derivative", "service")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestUserMessage_PlainErrors(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, "unknown", Kind(errors.New("boom")))
	assert.Equal(t, "validation", Kind(ErrEmptyExpression))
}
