package discovery

import (
	"bytes"
	"context"
	"testing"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	consulapi "github.com/hashicorp/consul/api"
	"github.com/hudl/fargo"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstance(t *testing.T) {
	in := NewInstance("hello-service", "", "10.0.0.7", 8080, false, nil)
	assert.Equal(t, "hello-service:10.0.0.7:8080", in.InstanceID)
	assert.Equal(t, "http", in.Scheme)
	assert.Equal(t, "http://10.0.0.7:8080", in.URI)
	assert.NotNil(t, in.Metadata)

	secure := NewInstance("hello-service", "a1", "hello.local", 8443, true, map[string]string{"zone": "a"})
	assert.Equal(t, "https://hello.local:8443", secure.URI)
	assert.Equal(t, "a1", secure.InstanceID)
	assert.Equal(t, "a", secure.Metadata["zone"])
}

func TestStaticLookup(t *testing.T) {
	l := NewStaticLookup(map[string][]StaticInstance{
		"hello-service": {
			{Host: "10.0.0.1", Port: 8080},
			{Host: "10.0.0.2", Port: 8443, Secure: true},
		},
	})

	got, err := l.Instances(context.Background(), "HELLO-SERVICE")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hello-service", got[0].ServiceID)
	assert.Equal(t, "https://10.0.0.2:8443", got[1].URI)

	none, err := l.Instances(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNewSelectsBackend(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, staticLookup{}, l)

	_, err = New(Config{Backend: BackendEureka})
	assert.Error(t, err, "eureka without urls")

	_, err = New(Config{Backend: "zookeeper"})
	assert.Error(t, err)
}

type fakeHealth struct {
	entries     []*consulapi.ServiceEntry
	err         error
	gotService  string
	gotTag      string
	gotPassing  bool
	gotHasQuery bool
}

func (f *fakeHealth) Service(service, tag string, passingOnly bool, q *consulapi.QueryOptions) ([]*consulapi.ServiceEntry, *consulapi.QueryMeta, error) {
	f.gotService, f.gotTag, f.gotPassing, f.gotHasQuery = service, tag, passingOnly, q != nil
	return f.entries, &consulapi.QueryMeta{}, f.err
}

func TestConsulLookup(t *testing.T) {
	health := &fakeHealth{entries: []*consulapi.ServiceEntry{
		{
			Node:    &consulapi.Node{Address: "192.168.1.10"},
			Service: &consulapi.AgentService{ID: "hello-1", Port: 8080},
		},
		{
			Node:    &consulapi.Node{Address: "192.168.1.11"},
			Service: &consulapi.AgentService{ID: "hello-2", Address: "10.1.1.2", Port: 8443, Meta: map[string]string{"secure": "true"}},
		},
		{Node: &consulapi.Node{Address: "192.168.1.12"}},
	}}
	l := newConsulLookup(health, ConsulConfig{Tag: "v1", PassingOnly: true})

	got, err := l.Instances(context.Background(), "hello-service")
	require.NoError(t, err)
	assert.Equal(t, "hello-service", health.gotService)
	assert.Equal(t, "v1", health.gotTag)
	assert.True(t, health.gotPassing)
	assert.True(t, health.gotHasQuery)

	require.Len(t, got, 2)
	assert.Equal(t, "hello-1", got[0].InstanceID)
	assert.Equal(t, "192.168.1.10", got[0].Host, "falls back to node address")
	assert.Equal(t, "https://10.1.1.2:8443", got[1].URI)
}

func TestConsulLookupError(t *testing.T) {
	l := newConsulLookup(&fakeHealth{err: errors.New("connection refused")}, ConsulConfig{})
	_, err := l.Instances(context.Background(), "hello-service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type fakeEureka struct {
	app *fargo.Application
	err error
}

func (f fakeEureka) GetApp(string) (*fargo.Application, error) {
	return f.app, f.err
}

func TestEurekaLookup(t *testing.T) {
	l := eurekaLookup{conn: fakeEureka{app: &fargo.Application{
		Name: "HELLO-SERVICE",
		Instances: []*fargo.Instance{
			{InstanceId: "h1", HostName: "hello-1.local", Port: 8080, Status: fargo.UP},
			{InstanceId: "h2", IPAddr: "10.2.0.2", Port: 8080, SecurePort: 8443, SecurePortEnabled: true, Status: fargo.UP},
			{InstanceId: "h3", HostName: "hello-3.local", Port: 8080, Status: fargo.DOWN},
		},
	}}}

	got, err := l.Instances(context.Background(), "hello-service")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "http://hello-1.local:8080", got[0].URI)
	assert.Equal(t, "https://10.2.0.2:8443", got[1].URI)
	assert.True(t, got[1].Secure)
}

func TestEurekaLookupUnknownApp(t *testing.T) {
	l := eurekaLookup{conn: fakeEureka{err: fargo.AppNotFoundError{}}}

	got, err := l.Instances(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	l = eurekaLookup{conn: fakeEureka{err: errors.New("connection refused")}}
	_, err = l.Instances(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestEurekaLookupHonorsCanceledContext(t *testing.T) {
	l := eurekaLookup{conn: fakeEureka{app: &fargo.Application{}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Instances(ctx, "hello-service")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecorators(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logs.NewLogger(&buf, logs.Config{})
	require.NoError(t, err)
	factory := metrics.NewFactory("test")

	l := NewStaticLookup(map[string][]StaticInstance{"a": {{Host: "h", Port: 1}}})
	l = WithLoggingLookup(logger, l)
	l = WithInstrumentingLookup(factory, l)

	got, err := l.Instances(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, buf.String(), "component=discovery")
	assert.Contains(t, buf.String(), "found=1")

	n, err := testutil.GatherAndCount(factory.Registry, "test_discovery_request_count")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
