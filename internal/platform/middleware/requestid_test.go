package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgertrace/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "x-forwarded-for takes the first hop",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			expected:   "203.0.113.7",
		},
		{
			name:       "single x-forwarded-for entry",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.7 "},
			expected:   "203.0.113.7",
		},
		{
			name:       "x-real-ip when no forwarded header",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Real-IP": "203.0.113.8"},
			expected:   "203.0.113.8",
		},
		{
			name:       "remote addr with port stripped",
			remoteAddr: "203.0.113.7:50001",
			expected:   "203.0.113.7",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[::1]:50001",
			expected:   "[::1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestRequestIDKeysClientByIPNotConnection(t *testing.T) {
	var seen []string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, requestcontext.ClientIP(r.Context()))
	}))

	// Two connections from the same address must resolve to one client.
	for _, addr := range []string{"203.0.113.7:50001", "203.0.113.7:50002"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, seen, 2)
	assert.Equal(t, "203.0.113.7", seen[0])
	assert.Equal(t, seen[0], seen[1])
}
