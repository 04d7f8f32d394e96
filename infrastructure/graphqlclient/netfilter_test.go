package graphqlclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AddressFilter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	localhost := "http://localhost:" + u.Port()

	tests := []struct {
		name     string
		cfg      Config
		endpoint string
		reason   string
	}{
		{name: "loopback blocked by default", endpoint: srv.URL, reason: "loopback address"},
		{name: "loopback name blocked after resolution", endpoint: localhost, reason: "loopback address"},
		{name: "metadata address", cfg: Config{AllowPrivate: true}, endpoint: "http://169.254.169.254/latest", reason: "link-local address"},
		{name: "unspecified address", cfg: Config{AllowPrivate: true}, endpoint: "http://0.0.0.0:" + u.Port(), reason: "unspecified address"},
		{name: "private address", endpoint: "http://10.0.0.1:1", reason: "private address"},
		{name: "host outside allowlist", cfg: Config{AllowedHosts: []string{"api.example.com"}}, endpoint: srv.URL, reason: "host not in allowlist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New(tt.cfg).Do(context.Background(), tt.endpoint, "{ x }")
			assert.Nil(t, resp)
			var be *BlockedError
			require.True(t, errors.As(err, &be), "got %v", err)
			assert.Contains(t, be.Reason, tt.reason)
		})
	}
	assert.Zero(t, hits.Load(), "blocked requests never reach the server")
}

func TestClient_AddressFilterOptIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "allow private", cfg: Config{AllowPrivate: true}},
		{name: "allowlisted IP", cfg: Config{AllowedHosts: []string{"127.0.0.1"}}},
		{name: "allowlisted CIDR", cfg: Config{AllowedHosts: []string{"127.0.0.0/8"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New(tt.cfg).Do(context.Background(), srv.URL, "{ x }")
			require.NoError(t, err)
			assert.JSONEq(t, `{"data":{}}`, string(resp))
		})
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"api.example.com", "api.example.com", true},
		{"API.example.com", "api.example.com", true},
		{"a.b.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"10.1.2.3", "10.0.0.0/8", true},
		{"11.1.2.3", "10.0.0.0/8", false},
		{"api.example.com", "10.0.0.0/8", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.host, tt.pattern), "%s vs %s", tt.host, tt.pattern)
	}
}

func TestAddressFilter_CheckIP(t *testing.T) {
	strict := addressFilter{}
	lenient := addressFilter{allowPrivate: true}

	for _, ip := range []string{"127.0.0.1", "::1", "10.0.0.1", "192.168.1.1", "172.16.0.1", "169.254.169.254", "fe80::1", "224.0.0.1", "0.0.0.0"} {
		assert.Error(t, strict.checkIP("h", net.ParseIP(ip)), ip)
	}
	for _, ip := range []string{"127.0.0.1", "10.0.0.1", "fd00::1"} {
		assert.NoError(t, lenient.checkIP("h", net.ParseIP(ip)), ip)
	}
	for _, ip := range []string{"169.254.169.254", "fe80::1"} {
		assert.Error(t, lenient.checkIP("h", net.ParseIP(ip)), ip)
	}
	assert.NoError(t, strict.checkIP("h", net.ParseIP("93.184.216.34")))
}
