package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	s, err := NewServer(context.Background(), opts...)
	require.NoError(t, err)
	return s
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRequestHandlersAreRouted(t *testing.T) {
	h := NewRequestHandler("ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}), "/ping", []string{http.MethodGet})
	s := newTestServer(t, WithRequestHandlers([]RequestHandler{h}))

	rec := serve(s, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPost, "/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/nope").Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	var seen string
	h := NewRequestHandler("id", http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = logs.RequestIDFromContext(r.Context())
	}), "/id", []string{http.MethodGet})
	s := newTestServer(t, WithRequestHandlers([]RequestHandler{h}))

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
}

func TestActuatorHealthAndInfo(t *testing.T) {
	s := newTestServer(t, WithName("hello-service"), WithBuildInfo("1.2.3", "ci", "now", "go1.22"))

	rec := serve(s, http.MethodGet, "/actuator/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/actuator/info")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"app":{"name":"hello-service"},"build":{"version":"1.2.3","builder":"ci","time":"now","goVersion":"go1.22"}}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodPost, "/actuator/refresh").Code, "no refresher configured")
}

func TestActuatorRefresh(t *testing.T) {
	calls := 0
	s := newTestServer(t, WithRefresher(RefresherFunc(func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"tanzu.env"}, nil
		}
		return nil, errors.New("bad yaml")
	})))

	rec := serve(s, http.MethodPost, "/actuator/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["tanzu.env"]`, rec.Body.String())

	rec = serve(s, http.MethodPost, "/actuator/refresh")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad yaml")
}

func TestMetricsEndpointAndRouteStatistics(t *testing.T) {
	h := NewRequestHandler("ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "/ping", []string{http.MethodGet})
	s := newTestServer(t, WithMetricsFactory(metrics.NewFactory("hello")), WithRequestHandlers([]RequestHandler{h}))

	serve(s, http.MethodGet, "/ping")
	rec := serve(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hello_http_server_response_count{code="4xx",route="ping"} 1`)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logs.NewLogger(&buf, logs.Config{})
	require.NoError(t, err)
	s := newTestServer(t, WithLogger(logger), WithRequestLogging(true))

	serve(s, http.MethodGet, "/actuator/health")
	assert.Contains(t, buf.String(), "path=/actuator/health")
	assert.Contains(t, buf.String(), "status=200")
}

func TestEncodeCodedErrorsResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	EncodeCodedErrorsResponse(context.Background(), BadRequest("invalid number", errors.New(`"abc"`)), rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body codedErrorsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "400", body.Errors[0].Code)
	assert.Equal(t, "Bad Request", body.Errors[0].Title)
	assert.Equal(t, `invalid number: "abc"`, body.Errors[0].Detail)

	rec = httptest.NewRecorder()
	EncodeCodedErrorsResponse(context.Background(), errors.Wrap(NewCodedError(http.StatusBadGateway, "peer", nil), "invoke"), rec)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	EncodeCodedErrorsResponse(context.Background(), errors.New("plain"), rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewServerRejectsBadPort(t *testing.T) {
	_, err := NewServer(context.Background(), WithPort(70000))
	assert.Error(t, err)
}

func TestStartStopsWhenContextDone(t *testing.T) {
	s := newTestServer(t, WithHost("127.0.0.1"), WithPort(0), WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
