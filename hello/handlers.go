package hello

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/server"
	"github.com/go-kit/kit/endpoint"
	kitot "github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

const (
	pathGreeting         = "/"
	pathServiceInstances = "/service-instances/{applicationName}"
	pathInvokeHello      = "/invoke-hello"
	pathPrime            = "/prime/{number}"

	varApplicationName = "applicationName"
	varNumber          = "number"
)

// NewRequestHandlers exposes service over HTTP. tracer may be nil.
func NewRequestHandlers(logger logs.Logger, service Service, tracer opentracing.Tracer) []server.RequestHandler {
	e := NewEndpoints(logger, service)
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	h := handlerFactory{logger: logger, tracer: tracer}

	return []server.RequestHandler{
		h.newHandler("greeting", e.NewGreetingEndpoint(), decodeEmptyRequest, encodeTextResponse, pathGreeting),
		h.newHandler("service-instances", e.NewServiceInstancesEndpoint(), decodeServiceInstancesRequest, httptransport.EncodeJSONResponse, pathServiceInstances),
		h.newHandler("invoke-hello", e.NewInvokeHelloEndpoint(), decodeEmptyRequest, encodeTextResponse, pathInvokeHello),
		h.newHandler("prime", e.NewPrimeEndpoint(), decodePrimeRequest, encodeTextResponse, pathPrime),
	}
}

type handlerFactory struct {
	logger logs.Logger
	tracer opentracing.Tracer
}

func (h handlerFactory) newHandler(name string, e endpoint.Endpoint, dec httptransport.DecodeRequestFunc,
	enc httptransport.EncodeResponseFunc, path string) server.RequestHandler {
	handler := httptransport.NewServer(
		kitot.TraceServer(h.tracer, name)(e),
		dec,
		enc,
		httptransport.ServerBefore(kitot.HTTPToContext(h.tracer, name, h.logger.Kit())),
		httptransport.ServerErrorEncoder(server.EncodeCodedErrorsResponse),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(h.logger.WithComponent(componentName).Kit())),
	)
	return server.NewRequestHandler(name, handler, path, []string{http.MethodGet})
}

func decodeEmptyRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return struct{}{}, nil
}

func decodeServiceInstancesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return ServiceInstancesRequest{ApplicationName: mux.Vars(r)[varApplicationName]}, nil
}

func decodePrimeRequest(_ context.Context, r *http.Request) (interface{}, error) {
	raw := mux.Vars(r)[varNumber]
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, server.BadRequest(fmt.Sprintf("failed to convert %q to a number", raw), err)
	}
	return PrimeRequest{Number: n}, nil
}

func encodeTextResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	s, ok := response.(string)
	if !ok {
		return errors.Errorf("unexpected response type %T", response)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := w.Write([]byte(s))
	return err
}
