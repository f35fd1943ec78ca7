package discovery

import (
	"context"
	"strings"
)

// StaticInstance is an instance declared in configuration.
type StaticInstance struct {
	InstanceID string            `yaml:"instanceId"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	Secure     bool              `yaml:"secure"`
	Metadata   map[string]string `yaml:"metadata"`
}

type staticLookup struct {
	apps map[string][]Instance
}

var _ Lookup = staticLookup{}

// NewStaticLookup serves instances from a fixed map of application name to instances.
// Application names match case-insensitively.
func NewStaticLookup(apps map[string][]StaticInstance) Lookup {
	l := staticLookup{apps: make(map[string][]Instance, len(apps))}
	for name, declared := range apps {
		key := strings.ToLower(name)
		for _, si := range declared {
			l.apps[key] = append(l.apps[key], NewInstance(name, si.InstanceID, si.Host, si.Port, si.Secure, si.Metadata))
		}
	}
	return l
}

func (l staticLookup) Instances(_ context.Context, applicationName string) ([]Instance, error) {
	found := l.apps[strings.ToLower(applicationName)]
	out := make([]Instance, len(found))
	copy(out, found)
	return out, nil
}
