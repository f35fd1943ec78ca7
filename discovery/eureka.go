package discovery

import (
	"context"
	"time"

	"github.com/hudl/fargo"
	"github.com/pkg/errors"
)

// EurekaConfig lists the Eureka servers to query.
type EurekaConfig struct {
	ServiceURLs []string      `yaml:"serviceUrls"`
	Timeout     time.Duration `yaml:"timeout"`
}

// eurekaApps is the part of fargo.EurekaConnection the lookup uses.
type eurekaApps interface {
	GetApp(name string) (*fargo.Application, error)
}

type eurekaLookup struct {
	conn eurekaApps
}

// NewEurekaLookup queries the registered application from the configured Eureka servers and
// keeps only instances that are UP.
func NewEurekaLookup(cfg EurekaConfig) (Lookup, error) {
	if len(cfg.ServiceURLs) == 0 {
		return nil, errors.New("eureka discovery needs at least one service url")
	}
	conn := fargo.NewConn(cfg.ServiceURLs...)
	if cfg.Timeout > 0 {
		conn.Timeout = cfg.Timeout
	}
	return eurekaLookup{conn: &conn}, nil
}

// fargo has no context support; ctx is only checked before the call.
func (l eurekaLookup) Instances(ctx context.Context, applicationName string) ([]Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	app, err := l.conn.GetApp(applicationName)
	var notFound fargo.AppNotFoundError
	if errors.As(err, &notFound) {
		return []Instance{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error querying eureka for %s", applicationName)
	}
	if app == nil {
		return []Instance{}, nil
	}

	out := make([]Instance, 0, len(app.Instances))
	for _, in := range app.Instances {
		if in == nil || in.Status != fargo.UP {
			continue
		}
		host := in.HostName
		if host == "" {
			host = in.IPAddr
		}
		port, secure := in.Port, false
		if in.SecurePortEnabled {
			port, secure = in.SecurePort, true
		}
		out = append(out, NewInstance(applicationName, in.InstanceId, host, port, secure, nil))
	}
	return out, nil
}
