package hostfuncs

import (
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
)

// Handler performs one operation and returns the bytes to stage for the guest.
// A nil result with a nil error stages an empty result.
type Handler func(ctx context.Context, req *entities.HostRequest) ([]byte, error)

// Middleware wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler
