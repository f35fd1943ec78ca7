package peer

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/pkg/errors"
)

type resolvingFetcher struct {
	lookup  discovery.Lookup
	next    Fetcher
	counter *atomic.Uint64
}

// NewResolvingFetcher treats the host of a port-less URL as an application name. It rewrites
// the URL to one of that application's discovered instances, round-robin, before calling next.
// When discovery knows no instances the URL is passed through unchanged.
func NewResolvingFetcher(lookup discovery.Lookup, next Fetcher) Fetcher {
	return resolvingFetcher{lookup: lookup, next: next, counter: new(atomic.Uint64)}
}

func (f resolvingFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "error parsing peer url %q", rawURL)
	}
	if u.Port() != "" || net.ParseIP(u.Hostname()) != nil {
		return f.next.Fetch(ctx, rawURL)
	}

	instances, err := f.lookup.Instances(ctx, u.Hostname())
	if err != nil {
		return "", errors.Wrapf(err, "error resolving %s", u.Hostname())
	}
	if len(instances) == 0 {
		return f.next.Fetch(ctx, rawURL)
	}

	in := instances[(f.counter.Add(1)-1)%uint64(len(instances))]
	u.Scheme = in.Scheme
	u.Host = net.JoinHostPort(in.Host, strconv.Itoa(in.Port))
	return f.next.Fetch(ctx, u.String())
}
