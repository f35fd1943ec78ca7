package hello

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/logs"
)

type loggingService struct {
	logger  logs.Logger
	service Service
}

func WithLoggingService(logger logs.Logger, service Service) Service {
	return loggingService{logger.WithComponent(serviceComponentName), service}
}

func (ls loggingService) Greeting(ctx context.Context) (str string, err error) {
	defer func(begin time.Time) {
		ls.logger.LogCall(ctx, "Greeting", begin, err)
	}(time.Now())

	return ls.service.Greeting(ctx)
}

func (ls loggingService) ServiceInstances(ctx context.Context, applicationName string) (instances []discovery.Instance, err error) {
	defer func(begin time.Time) {
		ls.logger.LogCall(ctx, "ServiceInstances", begin, err,
			"applicationName", applicationName,
			"found", len(instances),
		)
	}(time.Now())

	return ls.service.ServiceInstances(ctx, applicationName)
}

func (ls loggingService) InvokeHello(ctx context.Context) (str string, err error) {
	defer func(begin time.Time) {
		ls.logger.LogCall(ctx, "InvokeHello", begin, err)
	}(time.Now())

	return ls.service.InvokeHello(ctx)
}

func (ls loggingService) Prime(ctx context.Context, number int64) (str string, err error) {
	defer func(begin time.Time) {
		ls.logger.LogCall(ctx, "Prime", begin, err,
			"number", number,
		)
	}(time.Now())

	return ls.service.Prime(ctx, number)
}
