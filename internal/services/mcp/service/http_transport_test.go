package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransportHealth(t *testing.T) {
	s, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	handler := NewHTTPTransport("", s.mcpServer).Handler()

	tests := []struct {
		name   string
		method string
		host   string
		origin string
		want   int
	}{
		{name: "loopback", method: http.MethodGet, host: "localhost:8081", want: http.StatusOK},
		{name: "ipv6 loopback", method: http.MethodGet, host: "[::1]:8081", want: http.StatusOK},
		{name: "remote host", method: http.MethodGet, host: "evil.example", want: http.StatusBadRequest},
		{name: "remote origin", method: http.MethodGet, host: "localhost", origin: "http://evil.example", want: http.StatusBadRequest},
		{name: "post", method: http.MethodPost, host: "localhost", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/mcp/health", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHTTPTransportRejectsForeignHostOnMCP(t *testing.T) {
	s, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	handler := NewHTTPTransport("", s.mcpServer).Handler()

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Host = "evil.example"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHTTPTransportAllowedHostsFromEnv(t *testing.T) {
	t.Setenv("DEMOSCOPE_MCP_ALLOWED_HOSTS", " Inspector.Internal ,,")
	transport := NewHTTPTransport("", nil)
	if !transport.isAllowedHostHeader("inspector.internal:8081") {
		t.Fatal("expected configured host to be allowed")
	}
	if transport.isAllowedHostHeader("other.internal") {
		t.Fatal("expected unknown host to be rejected")
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "localhost:8081", want: "localhost", ok: true},
		{in: "[::1]:80", want: "::1", ok: true},
		{in: "[::1]", want: "::1", ok: true},
		{in: "::1", want: "::1", ok: true},
		{in: "example.com", want: "example.com", ok: true},
		{in: "", ok: false},
		{in: "[::1", ok: false},
	}
	for _, tt := range tests {
		got, ok := normalizeHost(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeHost(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
