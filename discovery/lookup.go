// Package discovery answers "which instances serve this application?" against a registry:
// a static list from configuration, Consul, or Eureka.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

const (
	componentName = "discovery"
	methodLookup  = "Instances"
)

// Lookup resolves a logical application name to its live instances. An application the
// registry does not know yields an empty list.
type Lookup interface {
	Instances(ctx context.Context, applicationName string) ([]Instance, error)
}

// Instance is one network endpoint of an application, serialized with the field names
// registry clients commonly use for service instances.
type Instance struct {
	InstanceID string            `json:"instanceId"`
	ServiceID  string            `json:"serviceId"`
	Host       string            `json:"host"`
	Port       int               `json:"port"`
	Secure     bool              `json:"secure"`
	URI        string            `json:"uri"`
	Scheme     string            `json:"scheme"`
	Metadata   map[string]string `json:"metadata"`
}

// NewInstance fills in the derived Scheme and URI fields.
func NewInstance(serviceID, instanceID, host string, port int, secure bool, metadata map[string]string) Instance {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	if instanceID == "" {
		instanceID = fmt.Sprintf("%s:%s:%d", serviceID, host, port)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Instance{
		InstanceID: instanceID,
		ServiceID:  serviceID,
		Host:       host,
		Port:       port,
		Secure:     secure,
		URI:        scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port)),
		Scheme:     scheme,
		Metadata:   metadata,
	}
}
