package peer

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/metrics"
)

type instrumentingFetcher struct {
	metrics.ServiceStatistics
	fetcher Fetcher
}

func WithInstrumentingFetcher(factory metrics.Factory, fetcher Fetcher) Fetcher {
	return instrumentingFetcher{factory.NewServiceStatistics(clientComponentName), fetcher}
}

func (inf instrumentingFetcher) Fetch(ctx context.Context, url string) (_ string, err error) {
	defer func(begin time.Time) { inf.Update(methodFetch, begin, err) }(time.Now())

	return inf.fetcher.Fetch(ctx, url)
}
