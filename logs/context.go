package logs

import "context"

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestIDContexter adds "requestId" to log lines written while handling a request.
func RequestIDContexter(ctx context.Context) []any {
	if id, ok := RequestIDFromContext(ctx); ok {
		return []any{"requestId", id}
	}
	return nil
}
