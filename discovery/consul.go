package discovery

import (
	"context"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// ConsulConfig selects the agent and filters applied to health queries.
type ConsulConfig struct {
	Address     string `yaml:"address"`
	Datacenter  string `yaml:"datacenter"`
	Token       string `yaml:"token"`
	Tag         string `yaml:"tag"`
	PassingOnly bool   `yaml:"passingOnly"`
}

// consulHealth is the part of *consulapi.Health the lookup uses.
type consulHealth interface {
	Service(service, tag string, passingOnly bool, q *consulapi.QueryOptions) ([]*consulapi.ServiceEntry, *consulapi.QueryMeta, error)
}

type consulLookup struct {
	health      consulHealth
	tag         string
	passingOnly bool
}

// NewConsulLookup queries the Consul health API of the configured agent.
func NewConsulLookup(cfg ConsulConfig) (Lookup, error) {
	cc := consulapi.DefaultConfig()
	if cfg.Address != "" {
		cc.Address = cfg.Address
	}
	cc.Datacenter = cfg.Datacenter
	cc.Token = cfg.Token

	client, err := consulapi.NewClient(cc)
	if err != nil {
		return nil, errors.Wrap(err, "error creating consul client")
	}
	return newConsulLookup(client.Health(), cfg), nil
}

func newConsulLookup(health consulHealth, cfg ConsulConfig) Lookup {
	return consulLookup{health: health, tag: cfg.Tag, passingOnly: cfg.PassingOnly}
}

func (l consulLookup) Instances(ctx context.Context, applicationName string) ([]Instance, error) {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := l.health.Service(applicationName, l.tag, l.passingOnly, q)
	if err != nil {
		return nil, errors.Wrapf(err, "error querying consul for %s", applicationName)
	}

	out := make([]Instance, 0, len(entries))
	for _, e := range entries {
		if e.Service == nil {
			continue
		}
		host := e.Service.Address
		if host == "" && e.Node != nil {
			host = e.Node.Address
		}
		secure := e.Service.Meta["secure"] == "true"
		out = append(out, NewInstance(applicationName, e.Service.ID, host, e.Service.Port, secure, e.Service.Meta))
	}
	return out, nil
}
