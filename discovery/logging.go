package discovery

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/logs"
)

type loggingLookup struct {
	logger logs.Logger
	lookup Lookup
}

func WithLoggingLookup(logger logs.Logger, lookup Lookup) Lookup {
	return loggingLookup{logger.WithComponent(componentName), lookup}
}

func (ll loggingLookup) Instances(ctx context.Context, applicationName string) (instances []Instance, err error) {
	defer func(begin time.Time) {
		ll.logger.LogCall(ctx, methodLookup, begin, err,
			"applicationName", applicationName,
			"found", len(instances),
		)
	}(time.Now())

	return ll.lookup.Instances(ctx, applicationName)
}
