package hello

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/peer"
	"github.com/StephenGriese/helloservice/server"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, s Service) http.Handler {
	t.Helper()
	srv, err := server.NewServer(context.Background(),
		server.WithRequestHandlers(NewRequestHandlers(logs.NewNopLogger(), s, nil)))
	require.NoError(t, err)
	return srv.Handler()
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPrimeHandler(t *testing.T) {
	h := newTestHandler(t, NewService())

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/prime/4", http.StatusOK, "4 is not a prime number"},
		{"/prime/7", http.StatusOK, "7 is a prime number"},
		{"/prime/2", http.StatusOK, "2 is a prime number"},
		{"/prime/1", http.StatusOK, "1 is a prime number"},
		{"/prime/-5", http.StatusOK, "-5 is a prime number"},
		{"/prime/+9", http.StatusOK, "9 is not a prime number"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(h, tt.path)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPrimeHandlerRejectsNonNumbers(t *testing.T) {
	h := newTestHandler(t, NewService())

	for _, path := range []string{"/prime/abc", "/prime/1.5", "/prime/9223372036854775808"} {
		rec := get(h, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)

		var body struct {
			Errors []struct {
				Code   string `json:"code"`
				Detail string `json:"detail"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), path)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "400", body.Errors[0].Code)
	}
}

func TestGreetingHandler(t *testing.T) {
	h := newTestHandler(t, NewService(WithEnvSource(StaticEnv("azure"))))

	rec := get(h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Greetings from azure!", rec.Body.String())
}

func TestServiceInstancesHandler(t *testing.T) {
	lookup := discovery.NewStaticLookup(map[string][]discovery.StaticInstance{
		"hello-service": {{InstanceID: "i-1", Host: "10.0.0.5", Port: 8080, Metadata: map[string]string{"zone": "a"}}},
	})
	h := newTestHandler(t, NewService(WithLookup(lookup)))

	rec := get(h, "/service-instances/hello-service")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `[{"instanceId":"i-1","serviceId":"hello-service","host":"10.0.0.5","port":8080,
		"secure":false,"uri":"http://10.0.0.5:8080","scheme":"http","metadata":{"zone":"a"}}]`, rec.Body.String())

	rec = get(h, "/service-instances/nobody")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestInvokeHelloHandler(t *testing.T) {
	h := newTestHandler(t, NewService(WithFetcher(&fakeFetcher{body: "Greetings from peer!"})))
	rec := get(h, "/invoke-hello")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Invoking hello-service : Greetings from peer!!", rec.Body.String())

	h = newTestHandler(t, NewService())
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/invoke-hello").Code)

	h = newTestHandler(t, NewService(WithFetcher(&fakeFetcher{err: &peer.StatusError{Code: http.StatusInternalServerError}})))
	assert.Equal(t, http.StatusBadGateway, get(h, "/invoke-hello").Code)
}

func TestHandlersOnlyAnswerGet(t *testing.T) {
	h := newTestHandler(t, NewService())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prime/7", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlersStartServerSpans(t *testing.T) {
	tracer := mocktracer.New()
	srv, err := server.NewServer(context.Background(),
		server.WithRequestHandlers(NewRequestHandlers(logs.NewNopLogger(), NewService(), tracer)))
	require.NoError(t, err)

	get(srv.Handler(), "/prime/7")
	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "prime", spans[0].OperationName)
}

func TestHTTPClientRoundTrip(t *testing.T) {
	lookup := discovery.NewStaticLookup(map[string][]discovery.StaticInstance{
		"hello-service": {{Host: "10.0.0.5", Port: 8443, Secure: true}},
	})
	s := NewService(WithEnvSource(StaticEnv("local")), WithLookup(lookup))
	ts := httptest.NewServer(newTestHandler(t, s))
	defer ts.Close()

	c, err := NewHTTPClient(logs.NewNopLogger(), ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	greeting, err := c.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Greetings from local!", greeting)

	msg, err := c.Prime(ctx, 17)
	require.NoError(t, err)
	assert.Equal(t, "17 is a prime number", msg)

	instances, err := c.ServiceInstances(ctx, "hello-service")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "https://10.0.0.5:8443", instances[0].URI)

	_, err = c.InvokeHello(ctx)
	var se *peer.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Message, "downstream is disabled")
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient(logs.NewNopLogger(), "hello-service")
	assert.Error(t, err)
	_, err = NewHTTPClient(logs.NewNopLogger(), "://bad")
	assert.Error(t, err)
}
