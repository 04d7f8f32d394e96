package hostfuncs

import (
	"context"
	"log/slog"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// PanicRecoveryMiddleware converts a panicking handler into a *PanicError, so
// a faulty backend fails the call with a host invocation sentinel instead of
// crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *entities.HostRequest) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					err = &PanicError{Op: req.Op, Value: r}
				}
			}()
			return next(ctx, req)
		}
	}
}

// LoggingMiddleware logs every invocation at debug level and every failure,
// with the sentinel the guest will observe. Absence is logged at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			switch {
			case err == nil:
				logger.DebugContext(ctx, "hostfuncs: call completed",
					"op", req.Op, "bytes", len(resp), "duration", elapsed)
			case domainerrors.KindOf(err) == entities.ErrorKindNotFound:
				logger.DebugContext(ctx, "hostfuncs: not found",
					"op", req.Op, "error", err, "sentinel", SentinelFor(err))
			default:
				logger.WarnContext(ctx, "hostfuncs: call failed",
					"op", req.Op, "error", err, "sentinel", SentinelFor(err), "duration", elapsed)
			}
			return resp, err
		}
	}
}

// Capabilities lists which operation families a host allows.
type Capabilities struct {
	Cache    bool
	Database bool
	GraphQL  bool
	File     bool
}

// AllCapabilities enables every operation family.
func AllCapabilities() Capabilities {
	return Capabilities{Cache: true, Database: true, GraphQL: true, File: true}
}

// capabilityOf returns the capability name guarding op.
func capabilityOf(op entities.Operation) string {
	switch op {
	case entities.OpCacheSet, entities.OpCacheGet:
		return "cache"
	case entities.OpDBInsert, entities.OpDBSelect:
		return "db"
	case entities.OpGraphQLQuery:
		return "graphql"
	case entities.OpGetStaticFile:
		return "file"
	}
	return string(op)
}

// Allows reports whether op is enabled.
func (c Capabilities) Allows(op entities.Operation) bool {
	switch capabilityOf(op) {
	case "cache":
		return c.Cache
	case "db":
		return c.Database
	case "graphql":
		return c.GraphQL
	case "file":
		return c.File
	}
	return false
}

// CapabilityMiddleware rejects operations whose capability is disabled with a
// *domain/errors.CapabilityError, before the backend is reached.
func CapabilityMiddleware(caps Capabilities) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
			if !caps.Allows(req.Op) {
				return nil, &domainerrors.CapabilityError{Capability: capabilityOf(req.Op)}
			}
			return next(ctx, req)
		}
	}
}
