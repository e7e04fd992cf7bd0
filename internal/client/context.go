package client

import "context"

type correlationKey struct{}

// WithCorrelationID returns a context carrying id; requests made with it send the id as
// the X-Correlation-ID header.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
