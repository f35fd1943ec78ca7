package hello

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/metrics"
)

type instrumentingService struct {
	metrics.ServiceStatistics
	service Service
}

func WithInstrumentingService(factory metrics.Factory, service Service) Service {
	return instrumentingService{factory.NewServiceStatistics(serviceComponentName), service}
}

func (is instrumentingService) Greeting(ctx context.Context) (_ string, err error) {
	defer func(begin time.Time) { is.Update("Greeting", begin, err) }(time.Now())

	return is.service.Greeting(ctx)
}

func (is instrumentingService) ServiceInstances(ctx context.Context, applicationName string) (_ []discovery.Instance, err error) {
	defer func(begin time.Time) { is.Update("ServiceInstances", begin, err) }(time.Now())

	return is.service.ServiceInstances(ctx, applicationName)
}

func (is instrumentingService) InvokeHello(ctx context.Context) (_ string, err error) {
	defer func(begin time.Time) { is.Update("InvokeHello", begin, err) }(time.Now())

	return is.service.InvokeHello(ctx)
}

func (is instrumentingService) Prime(ctx context.Context, number int64) (_ string, err error) {
	defer func(begin time.Time) { is.Update("Prime", begin, err) }(time.Now())

	return is.service.Prime(ctx, number)
}
