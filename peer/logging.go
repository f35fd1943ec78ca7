package peer

import (
	"context"
	"time"

	"github.com/StephenGriese/helloservice/logs"
)

type loggingFetcher struct {
	logger  logs.Logger
	fetcher Fetcher
}

func WithLoggingFetcher(logger logs.Logger, fetcher Fetcher) Fetcher {
	return loggingFetcher{logger.WithComponent(clientComponentName), fetcher}
}

func (lf loggingFetcher) Fetch(ctx context.Context, url string) (body string, err error) {
	defer func(begin time.Time) {
		lf.logger.LogCall(ctx, methodFetch, begin, err,
			"url", url,
			"bytes", len(body),
		)
	}(time.Now())

	return lf.fetcher.Fetch(ctx, url)
}
