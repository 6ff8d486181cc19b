package utils

// ContextKey is the type used for request-scoped context values shared
// between the handler and business flow layers
type ContextKey string

const (
	// RequestIDKey carries the inbound X-Request-ID header value
	RequestIDKey ContextKey = "request_id"

	// IPAddressKey carries the client IP address
	IPAddressKey ContextKey = "ip_address"

	// UserAgentKey carries the client User-Agent header value
	UserAgentKey ContextKey = "user_agent"

	// EndpointKey carries the matched route path
	EndpointKey ContextKey = "endpoint"

	// TimeoutKey carries the timeout the handler applied to the request context
	TimeoutKey ContextKey = "timeout"
)
