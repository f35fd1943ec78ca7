package discovery

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	BackendStatic = "static"
	BackendConsul = "consul"
	BackendEureka = "eureka"
)

// Config is the discovery section of the application YAML.
type Config struct {
	Backend string                      `yaml:"backend"`
	Static  map[string][]StaticInstance `yaml:"static"`
	Consul  ConsulConfig                `yaml:"consul"`
	Eureka  EurekaConfig                `yaml:"eureka"`
}

// New builds the Lookup selected by cfg.Backend.
func New(cfg Config) (Lookup, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendStatic:
		return NewStaticLookup(cfg.Static), nil
	case BackendConsul:
		return NewConsulLookup(cfg.Consul)
	case BackendEureka:
		return NewEurekaLookup(cfg.Eureka)
	}
	return nil, errors.Errorf("unknown discovery backend %q", cfg.Backend)
}
