package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingError(t *testing.T) {
	err := &EncodingError{Field: "key", Length: 1 << 31}

	assert.Equal(t, "encoding key failed: length 2147483648 exceeds host limit", err.Error())

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "key", encErr.Field)
}

func TestEncodingError_Wrapped(t *testing.T) {
	baseErr := fmt.Errorf("unsupported type")
	err := &EncodingError{Field: "arg:id", Err: baseErr}

	assert.Equal(t, "encoding arg:id failed: unsupported type", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestHostInvocationError(t *testing.T) {
	err := &HostInvocationError{Op: entities.OpCacheGet, Sentinel: -7}

	assert.Equal(t, "host cache_get failed with sentinel -7", err.Error())
	assert.False(t, errors.Is(err, ErrNotFound))

	detail := err.ToErrorDetail()
	assert.Equal(t, "host_invocation", detail.Type)
	assert.Equal(t, int32(-7), detail.Sentinel)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Op: entities.OpDBSelect, Target: "getUser", Sentinel: -2}

	assert.Equal(t, "db_select: getUser not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("loading user: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, int32(-2), nf.Sentinel)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want entities.ErrorKind
	}{
		{"not found", &NotFoundError{Op: entities.OpCacheGet}, entities.ErrorKindNotFound},
		{"bare sentinel", ErrNotFound, entities.ErrorKindNotFound},
		{"wrapped not found", fmt.Errorf("x: %w", ErrNotFound), entities.ErrorKindNotFound},
		{"encoding", &EncodingError{Field: "name"}, entities.ErrorKindEncoding},
		{"host", &HostInvocationError{Sentinel: -1}, entities.ErrorKindHostInvocation},
		{"generic", errors.New("boom"), entities.ErrorKindHostInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestToErrorDetail(t *testing.T) {
	assert.Nil(t, ToErrorDetail(nil))

	detail := ToErrorDetail(errors.New("plain"))
	assert.Equal(t, "internal", detail.Type)

	detail = ToErrorDetail(fmt.Errorf("wrap: %w", &NotFoundError{Op: entities.OpCacheGet, Target: "k"}))
	assert.True(t, detail.IsNotFound)
	assert.Equal(t, "cache_get", detail.Code)

	detail = ToErrorDetail(fmt.Errorf("wrap: %w", ErrNotFound))
	assert.True(t, detail.IsNotFound)

	existing := entities.NewErrorDetail("config", "bad")
	assert.Same(t, existing, ToErrorDetail(existing))
}

func TestCapabilityError(t *testing.T) {
	err := &CapabilityError{Capability: "cache"}
	assert.Equal(t, "capability not enabled: cache", err.Error())
	assert.Equal(t, "capability", err.ToErrorDetail().Type)
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("required")
	err := &ConfigError{Field: "db.dsn", Err: baseErr}

	assert.Equal(t, "config validation failed for field 'db.dsn': required", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}
