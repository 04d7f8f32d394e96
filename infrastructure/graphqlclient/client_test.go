package graphqlclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	var gotQuery, gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body.Query
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"data":{"me":{"id":"1"}}}`))
	}))
	defer srv.Close()

	c := New(Config{Headers: map[string]string{"Authorization": "Bearer t"}, AllowPrivate: true})
	resp, err := c.Do(context.Background(), srv.URL, "{ me { id } }")

	require.NoError(t, err)
	assert.Equal(t, `{"data":{"me":{"id":"1"}}}`, string(resp))
	assert.Equal(t, "{ me { id } }", gotQuery)
	assert.Equal(t, "Bearer t", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_ErrorsEnvelopeIsReturnedRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
	}))
	defer srv.Close()

	resp, err := New(Config{AllowPrivate: true}).Do(context.Background(), srv.URL, "{ x }")
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[{"message":"boom"}]}`, string(resp))
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     Config
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			cfg: Config{AllowPrivate: true},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadGateway, se.StatusCode)
			},
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			},
			cfg: Config{MaxResponseSize: 16, AllowPrivate: true},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "exceeds 16 bytes")
			},
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			},
			cfg: Config{Timeout: 50 * time.Millisecond, AllowPrivate: true},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, context.DeadlineExceeded))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			resp, err := New(tt.cfg).Do(context.Background(), srv.URL, "{ x }")
			assert.Nil(t, resp)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_BadEndpoint(t *testing.T) {
	_, err := New(Config{}).Do(context.Background(), "://nope", "{ x }")
	assert.Error(t, err)
}
