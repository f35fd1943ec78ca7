// Package peer performs outbound HTTP calls to other services by URL or by logical
// application name.
package peer

import "context"

const (
	clientComponentName = "peer_client"
	methodFetch         = "Fetch"
)

// Fetcher issues a GET to url and returns the response body as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
