package hostfuncs

import (
	"errors"
	"fmt"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// ErrUnknownOperation is returned when no handler is registered for an operation.
var ErrUnknownOperation = errors.New("unknown host operation")

// SentinelFor returns the negative value reported to the guest for err.
// Absence maps to SentinelNotFound, undecodable input to SentinelEncoding,
// and everything else to SentinelHostInvocation.
func SentinelFor(err error) int32 {
	var (
		encErr *domainerrors.EncodingError
		memErr *domainerrors.MemoryError
	)
	switch {
	case err == nil:
		return entities.SentinelHostInvocation
	case errors.Is(err, domainerrors.ErrNotFound):
		return entities.SentinelNotFound
	case errors.As(err, &encErr), errors.As(err, &memErr):
		return entities.SentinelEncoding
	default:
		return entities.SentinelHostInvocation
	}
}

// PanicError is returned by PanicRecoveryMiddleware for a recovered panic.
type PanicError struct {
	Op    entities.Operation
	Value any
}

func (e *PanicError) Error() string {
	var msg string
	switch v := e.Value.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("host %s: panic: %s", e.Op, msg)
}

// ToErrorDetail implements domain/errors.DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("panic", e.Error()).WithCode(string(e.Op))
}
