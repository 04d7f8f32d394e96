// Package graphqlclient is the host's GraphQL transport: it POSTs the guest's
// query to the endpoint and hands the raw response body back unparsed.
package graphqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.GraphQLClient = (*Client)(nil)

const (
	// DefaultTimeout bounds a single request when Config.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize bounds a response body when Config.MaxResponseSize is zero.
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// Config configures a Client.
type Config struct {
	Timeout         time.Duration
	Headers         map[string]string
	MaxResponseSize int64
	// AllowedHosts restricts endpoints to matching hosts (hostname, *.suffix,
	// IP or CIDR). Listed hosts skip the address checks.
	AllowedHosts []string
	// AllowPrivate permits loopback and private endpoints. Link-local and
	// metadata addresses stay blocked.
	AllowPrivate bool
	// HTTPClient overrides the transport, address filtering included;
	// Timeout still applies per request.
	HTTPClient *http.Client
}

// Client sends GraphQL queries over HTTP.
type Client struct {
	http    *http.Client
	headers map[string]string
	timeout time.Duration
	maxSize int64
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql endpoint %s returned status %d", e.Endpoint, e.StatusCode)
}

// New creates a Client.
func New(cfg Config) *Client {
	c := &Client{
		http:    cfg.HTTPClient,
		headers: cfg.Headers,
		timeout: cfg.Timeout,
		maxSize: cfg.MaxResponseSize,
	}
	if c.http == nil {
		c.http = &http.Client{Transport: newTransport(addressFilter{
			allowlist:    cfg.AllowedHosts,
			allowPrivate: cfg.AllowPrivate,
		})}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxSize <= 0 {
		c.maxSize = DefaultMaxResponseSize
	}
	return c
}

// newTransport returns a transport that dials only addresses f accepts.
// Environment proxies are ignored so the filter sees the real endpoint.
func newTransport(f addressFilter) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = f.dialContext
	return t
}

type requestBody struct {
	Query string `json:"query"`
}

// Do implements ports.GraphQLClient.
func (c *Client) Do(ctx context.Context, endpoint, query string) ([]byte, error) {
	body, err := json.Marshal(requestBody{Query: query})
	if err != nil {
		return nil, fmt.Errorf("graphqlclient: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graphqlclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphqlclient: request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("graphqlclient: read response: %w", err)
	}
	if int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("graphqlclient: response from %s exceeds %d bytes", endpoint, c.maxSize)
	}
	return data, nil
}
