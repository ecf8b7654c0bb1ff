package types

// contextKey is a private type for context values set by the server layer.
type contextKey string

// Context keys propagated from HTTP middleware into logs and telemetry.
const (
	ContextKeyRequestID     contextKey = "request_id"
	ContextKeyRequestSource contextKey = "request_source"
)
