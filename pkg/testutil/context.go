package testutil

import (
	"net/http"

	"ledgertrace/pkg/requestcontext"
)

// WithRequestID stamps a request ID onto the request context, simulating
// what the request ID middleware does in production.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithClientIP stamps a client IP onto the request context so rate limit
// middleware under test sees a stable caller identity.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test-agent"))
}
