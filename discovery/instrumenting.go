package discovery

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/metrics"
)

type instrumentingLookup struct {
	metrics.ServiceStatistics
	lookup Lookup
}

func WithInstrumentingLookup(factory metrics.Factory, lookup Lookup) Lookup {
	return instrumentingLookup{factory.NewServiceStatistics(componentName), lookup}
}

func (il instrumentingLookup) Instances(ctx context.Context, applicationName string) (_ []Instance, err error) {
	defer func(begin time.Time) { il.Update(methodLookup, begin, err) }(time.Now())

	return il.lookup.Instances(ctx, applicationName)
}
