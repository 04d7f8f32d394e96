// Package graphql sends queries to GraphQL endpoints through the host.
//
// The host performs the HTTP exchange; the raw response body is returned
// unchanged. Use Decode to split it into data and errors.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/runnable-dev/runnable-sdk/domain/ports"
	"github.com/runnable-dev/runnable-sdk/ffi"
	"github.com/runnable-dev/runnable-sdk/infrastructure/wasm"
)

type callConfig struct {
	host   ports.HostBoundary
	errMap ffi.ErrorMap
}

func defaultCallConfig() callConfig {
	return callConfig{
		host:   wasm.NewHostAdapter(),
		errMap: ffi.DefaultErrorMap(),
	}
}

// Option configures a query call.
type Option func(*callConfig)

// WithHost sets the host boundary to use.
func WithHost(h ports.HostBoundary) Option {
	return func(c *callConfig) {
		if h != nil {
			c.host = h
		}
	}
}

// WithErrorMap replaces the sentinel-to-error mapping.
func WithErrorMap(m ffi.ErrorMap) Option {
	return func(c *callConfig) {
		if m != nil {
			c.errMap = m
		}
	}
}

// Query sends query to endpoint and returns the raw response body.
// An empty body is a successful, empty result.
func Query(ctx context.Context, endpoint, query string, opts ...Option) ([]byte, error) {
	cfg := defaultCallConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return ffi.NewClient(cfg.host, ffi.WithErrorMap(cfg.errMap)).
		GraphQLQuery(ctx, []byte(endpoint), []byte(query))
}

// Response is the standard GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// Error is a single entry of a GraphQL errors array.
type Error struct {
	Message   string `json:"message"`
	Path      []any  `json:"path,omitempty"`
	Locations []struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"locations,omitempty"`
}

// ResponseError wraps the errors array of a response.
type ResponseError struct {
	Errors []Error
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Decode parses a raw response. A response carrying errors returns the
// decoded Response together with a *ResponseError.
func Decode(raw []byte) (*Response, error) {
	var resp Response
	if len(raw) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return &resp, &ResponseError{Errors: resp.Errors}
	}
	return &resp, nil
}
