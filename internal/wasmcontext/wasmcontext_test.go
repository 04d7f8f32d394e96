package wasmcontext

import (
	"context"
	"testing"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))

	ctx = context.WithValue(context.Background(), RequestIDKey, 42)
	assert.Empty(t, RequestID(ctx), "non-string values are ignored")
}

func TestContextToWire(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	wire := ContextToWire(ctx)
	assert.Equal(t, "req-123", wire.RequestID)
	assert.False(t, wire.Canceled)
	assert.Nil(t, wire.Deadline)
	assert.Zero(t, wire.TimeoutMs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wire = ContextToWire(ctx)
	assert.True(t, wire.Canceled)

	deadline := time.Now().Add(1 * time.Hour)
	ctx, cancel = context.WithDeadline(context.Background(), deadline)
	defer cancel()
	wire = ContextToWire(ctx)
	require.NotNil(t, wire.Deadline)
	assert.WithinDuration(t, deadline, *wire.Deadline, time.Millisecond)
	assert.Positive(t, wire.TimeoutMs)
}

func TestWireToContext(t *testing.T) {
	tests := []struct {
		name  string
		wire  entities.ContextWire
		check func(t *testing.T, ctx context.Context)
	}{
		{
			name: "request id",
			wire: entities.ContextWire{RequestID: "req-456"},
			check: func(t *testing.T, ctx context.Context) {
				assert.Equal(t, "req-456", RequestID(ctx))
				assert.NoError(t, ctx.Err())
				_, ok := ctx.Deadline()
				assert.False(t, ok)
			},
		},
		{
			name: "timeout",
			wire: entities.ContextWire{TimeoutMs: 1000},
			check: func(t *testing.T, ctx context.Context) {
				d, ok := ctx.Deadline()
				require.True(t, ok)
				assert.WithinDuration(t, time.Now().Add(time.Second), d, 100*time.Millisecond)
			},
		},
		{
			name: "pre-canceled",
			wire: entities.ContextWire{Canceled: true},
			check: func(t *testing.T, ctx context.Context) {
				assert.ErrorIs(t, ctx.Err(), context.Canceled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := WireToContext(nil, tt.wire) //nolint:staticcheck // nil parent is documented
			defer cancel()
			tt.check(t, ctx)
		})
	}
}

func TestWireToContext_Deadline(t *testing.T) {
	deadline := time.Now().Add(1 * time.Hour)
	ctx, cancel := WireToContext(context.Background(), entities.ContextWire{Deadline: &deadline})
	defer cancel()

	d, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, deadline, d, time.Millisecond)
}
