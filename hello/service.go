package hello

import (
	"context"
	"fmt"
	"net/http"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/peer"
	"github.com/StephenGriese/helloservice/prime"
	"github.com/StephenGriese/helloservice/server"
	"github.com/pkg/errors"
)

const (
	serviceComponentName = "hello_service"

	// DefaultPeerURL names the peer by application name; the platform resolves it.
	DefaultPeerURL = "http://hello-service"
)

// ErrDownstreamDisabled is returned by InvokeHello when no peer fetcher is configured.
var ErrDownstreamDisabled = server.NewCodedError(http.StatusServiceUnavailable, "hello-service downstream is disabled", nil)

type Service interface {
	// Greeting returns "Greetings from <env>!".
	Greeting(ctx context.Context) (string, error)
	// ServiceInstances returns the instances discovery knows for applicationName.
	ServiceInstances(ctx context.Context, applicationName string) ([]discovery.Instance, error)
	// InvokeHello calls the peer hello-service and wraps its answer.
	InvokeHello(ctx context.Context) (string, error)
	// Prime reports whether number is prime. It never fails.
	Prime(ctx context.Context, number int64) (string, error)
}

// EnvSource supplies the environment name. It is consulted on every greeting so refreshed
// configuration is picked up.
type EnvSource interface {
	Env() string
}

// StaticEnv is an EnvSource that never changes.
type StaticEnv string

func (e StaticEnv) Env() string { return string(e) }

type service struct {
	logger  logs.Logger
	env     EnvSource
	lookup  discovery.Lookup
	fetcher peer.Fetcher
	peerURL string
	checker prime.Checker
}

var _ Service = &service{}

type ServiceOption func(service) service

func NewService(opts ...ServiceOption) Service {
	s := service{
		logger:  logs.NewNopLogger(),
		env:     StaticEnv(""),
		peerURL: DefaultPeerURL,
	}
	for _, o := range opts {
		s = o(s)
	}
	s.logger = s.logger.WithComponent(serviceComponentName)
	return s
}

// WithLogger returns a ServiceOption that sets the logger on the service.
func WithLogger(logger logs.Logger) ServiceOption {
	return func(s service) service {
		s.logger = logger
		return s
	}
}

// WithEnvSource returns a ServiceOption that sets where the greeting's environment name comes from.
func WithEnvSource(env EnvSource) ServiceOption {
	return func(s service) service {
		s.env = env
		return s
	}
}

// WithLookup returns a ServiceOption that sets the discovery lookup on the service.
func WithLookup(lookup discovery.Lookup) ServiceOption {
	return func(s service) service {
		s.lookup = lookup
		return s
	}
}

// WithFetcher returns a ServiceOption that sets the fetcher used to call the peer.
func WithFetcher(fetcher peer.Fetcher) ServiceOption {
	return func(s service) service {
		s.fetcher = fetcher
		return s
	}
}

func WithPeerURL(url string) ServiceOption {
	return func(s service) service {
		if url != "" {
			s.peerURL = url
		}
		return s
	}
}

func WithPrimeChecker(checker prime.Checker) ServiceOption {
	return func(s service) service {
		s.checker = checker
		return s
	}
}

func (s service) Greeting(_ context.Context) (string, error) {
	return fmt.Sprintf("Greetings from %s!", s.env.Env()), nil
}

func (s service) ServiceInstances(ctx context.Context, applicationName string) ([]discovery.Instance, error) {
	if s.lookup == nil {
		return []discovery.Instance{}, nil
	}
	instances, err := s.lookup.Instances(ctx, applicationName)
	if err != nil {
		return nil, server.NewCodedError(http.StatusBadGateway, "service discovery failed", err)
	}
	if instances == nil {
		instances = []discovery.Instance{}
	}
	return instances, nil
}

func (s service) InvokeHello(ctx context.Context) (string, error) {
	if s.fetcher == nil {
		return "", ErrDownstreamDisabled
	}
	response, err := s.fetcher.Fetch(ctx, s.peerURL)
	if err != nil {
		return "", server.NewCodedError(http.StatusBadGateway, "error invoking hello-service", errors.Wrap(err, s.peerURL))
	}
	if response == "" {
		// an empty body reads as a null object
		response = "null"
	}
	return fmt.Sprintf("Invoking hello-service : %s!", response), nil
}

func (s service) Prime(ctx context.Context, number int64) (string, error) {
	msg := s.checker.Describe(number)
	s.logger.Debug(ctx, msg)
	return msg, nil
}
