package hello

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/go-kit/kit/endpoint"
)

const (
	componentName = "hello_endpoints"
)

type ServiceInstancesRequest struct {
	ApplicationName string
}

type PrimeRequest struct {
	Number int64
}

type Endpoints interface {
	NewGreetingEndpoint() endpoint.Endpoint
	NewServiceInstancesEndpoint() endpoint.Endpoint
	NewInvokeHelloEndpoint() endpoint.Endpoint
	NewPrimeEndpoint() endpoint.Endpoint
}

type endpoints struct {
	logger  logs.Logger
	service Service
}

func NewEndpoints(logger logs.Logger, service Service) Endpoints {
	return endpoints{
		logger:  logger.WithComponent(componentName),
		service: service,
	}
}

func (e endpoints) NewGreetingEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		defer func(begin time.Time) {
			e.logger.LogCall(ctx, "Greeting", begin, err, "response", response)
		}(time.Now())

		return e.service.Greeting(ctx)
	}
}

func (e endpoints) NewServiceInstancesEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(ServiceInstancesRequest)
		defer func(begin time.Time) {
			e.logger.LogCall(ctx, "ServiceInstances", begin, err, "applicationName", req.ApplicationName)
		}(time.Now())

		return e.service.ServiceInstances(ctx, req.ApplicationName)
	}
}

func (e endpoints) NewInvokeHelloEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		defer func(begin time.Time) {
			e.logger.LogCall(ctx, "InvokeHello", begin, err, "response", response)
		}(time.Now())

		return e.service.InvokeHello(ctx)
	}
}

func (e endpoints) NewPrimeEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(PrimeRequest)
		defer func(begin time.Time) {
			e.logger.LogCall(ctx, "Prime", begin, err, "number", req.Number, "response", response)
		}(time.Now())

		return e.service.Prime(ctx, req.Number)
	}
}
