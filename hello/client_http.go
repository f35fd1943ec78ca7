package hello

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/peer"
	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type httpClient struct {
	greeting         endpoint.Endpoint
	serviceInstances endpoint.Endpoint
	invokeHello      endpoint.Endpoint
	prime            endpoint.Endpoint
}

// NewHTTPClient returns a Client for the hello-service at baseURL.
func NewHTTPClient(logger logs.Logger, baseURL string, opts ...httptransport.ClientOption) (Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hello-service url %q", baseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("hello-service url %q needs a scheme and host", baseURL)
	}

	get := func(path func(request interface{}) string) httptransport.CreateRequestFunc {
		return func(ctx context.Context, request interface{}) (*http.Request, error) {
			u := *base
			u.Path = strings.TrimSuffix(base.Path, "/") + path(request)
			return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		}
	}
	fixed := func(p string) func(interface{}) string {
		return func(interface{}) string { return p }
	}

	logger = logger.WithComponent(clientComponentName)

	return httpClient{
		greeting: logCalls(logger, "Greeting")(httptransport.NewExplicitClient(
			get(fixed(pathGreeting)), decodeText, opts...,
		).Endpoint()),
		serviceInstances: logCalls(logger, "ServiceInstances")(httptransport.NewExplicitClient(
			get(func(request interface{}) string {
				return "/service-instances/" + url.PathEscape(request.(ServiceInstancesRequest).ApplicationName)
			}), decodeInstances, opts...,
		).Endpoint()),
		invokeHello: logCalls(logger, "InvokeHello")(httptransport.NewExplicitClient(
			get(fixed(pathInvokeHello)), decodeText, opts...,
		).Endpoint()),
		prime: logCalls(logger, "Prime")(httptransport.NewExplicitClient(
			get(func(request interface{}) string {
				return "/prime/" + strconv.FormatInt(request.(PrimeRequest).Number, 10)
			}), decodeText, opts...,
		).Endpoint()),
	}, nil
}

func logCalls(logger logs.Logger, method string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				logger.LogCall(ctx, method, begin, err)
			}(time.Now())

			return next(ctx, request)
		}
	}
}

func (c httpClient) Greeting(ctx context.Context) (string, error) {
	return text(c.greeting(ctx, struct{}{}))
}

func (c httpClient) ServiceInstances(ctx context.Context, applicationName string) ([]discovery.Instance, error) {
	resp, err := c.serviceInstances(ctx, ServiceInstancesRequest{ApplicationName: applicationName})
	if err != nil {
		return nil, err
	}
	return resp.([]discovery.Instance), nil
}

func (c httpClient) InvokeHello(ctx context.Context) (string, error) {
	return text(c.invokeHello(ctx, struct{}{}))
}

func (c httpClient) Prime(ctx context.Context, number int64) (string, error) {
	return text(c.prime(ctx, PrimeRequest{Number: number}))
}

func text(resp interface{}, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

func decodeText(_ context.Context, resp *http.Response) (interface{}, error) {
	if err := peer.CheckResponse(resp); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response")
	}
	return string(b), nil
}

func decodeInstances(_ context.Context, resp *http.Response) (interface{}, error) {
	if err := peer.CheckResponse(resp); err != nil {
		return nil, err
	}
	var instances []discovery.Instance
	if err := json.NewDecoder(resp.Body).Decode(&instances); err != nil {
		return nil, errors.Wrap(err, "error decoding service instances")
	}
	return instances, nil
}
