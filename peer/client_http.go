package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	"github.com/go-kit/kit/endpoint"
	kitot "github.com/go-kit/kit/tracing/opentracing"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// maxBodyBytes bounds how much of a peer response is read.
const maxBodyBytes = 1 << 20

type httpFetcher struct {
	fetch endpoint.Endpoint
}

// NewHTTPFetcher returns a Fetcher that issues GET requests through client. When tracer is not
// nil the active span is propagated in the request headers.
func NewHTTPFetcher(logger logs.Logger, client *http.Client, tracer opentracing.Tracer) Fetcher {
	logger = logger.WithComponent(clientComponentName)

	opts := []httptransport.ClientOption{httptransport.SetClient(client)}
	if tracer != nil {
		opts = append(opts, httptransport.ClientBefore(kitot.ContextToHTTP(tracer, logger.Kit())))
	}

	fetch := httptransport.NewExplicitClient(encodeGetRequest, decodeTextResponse, opts...).Endpoint()
	if tracer != nil {
		fetch = kitot.TraceClient(tracer, "peer GET")(fetch)
	}

	return httpFetcher{fetch: fetch}
}

// NewHTTPClient returns an *http.Client whose round trips are recorded in stats.
func NewHTTPClient(timeout time.Duration, stats metrics.ServiceStatistics) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: InstrumentingRoundTripper{
			Statistic: stats,
			Proxied:   http.DefaultTransport,
		},
	}
}

func (f httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

func encodeGetRequest(ctx context.Context, request interface{}) (*http.Request, error) {
	url, ok := request.(string)
	if !ok {
		return nil, errors.Errorf("unexpected request type %T", request)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating request for %s", url)
	}
	req.Header.Set("Accept", "text/plain, application/json, */*")
	return req, nil
}

func decodeTextResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	if err := CheckResponse(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "error reading peer response")
	}
	return string(body), nil
}

// CheckResponse returns a *StatusError for a non-2xx response, consuming its body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
}

// StatusError is returned when the peer answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("peer responded %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("peer responded %d: %s", e.Code, e.Message)
}

// errorMessage prefers the titles of a coded-errors body and falls back to the raw text.
func errorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
		return er.Error()
	}
	return strings.TrimSpace(string(body))
}

type errorResponse struct {
	Errors []struct {
		Code, Title, Detail string
		Retryable           bool
	} `json:"errors"`
}

func (e errorResponse) Error() string {
	var sb strings.Builder
	for _, err := range e.Errors {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Title)
		if err.Detail != "" {
			sb.WriteString(" - ")
			sb.WriteString(err.Detail)
		}
	}
	return sb.String()
}
