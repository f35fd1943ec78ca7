package peer

import (
	"net/http"
	"time"

	"github.com/StephenGriese/helloservice/metrics"
	"github.com/pkg/errors"
)

// InstrumentingRoundTripper records every outbound round trip, by HTTP method, in Statistic.
// 5xx responses count as errors.
type InstrumentingRoundTripper struct {
	Statistic metrics.ServiceStatistics
	Proxied   http.RoundTripper
}

func (rt InstrumentingRoundTripper) RoundTrip(req *http.Request) (res *http.Response, err error) {
	defer func(begin time.Time) {
		outcome := err
		if outcome == nil && res != nil && res.StatusCode >= http.StatusInternalServerError {
			outcome = errors.New(res.Status)
		}
		rt.Statistic.Update(req.Method, begin, outcome)
	}(time.Now())

	proxied := rt.Proxied
	if proxied == nil {
		proxied = http.DefaultTransport
	}
	return proxied.RoundTrip(req)
}
