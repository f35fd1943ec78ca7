package hello

import (
	"context"

	"github.com/StephenGriese/helloservice/discovery"
)

const (
	clientComponentName = "hello_client"
)

// Client calls a remote hello-service over HTTP.
type Client interface {
	Greeting(ctx context.Context) (string, error)
	ServiceInstances(ctx context.Context, applicationName string) ([]discovery.Instance, error)
	InvokeHello(ctx context.Context) (string, error)
	Prime(ctx context.Context, number int64) (string, error)
}
