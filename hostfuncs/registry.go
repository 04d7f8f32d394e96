package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// HandlerRegistry is an immutable collection of operation handlers.
// Once created via NewRegistry, handlers cannot be added or removed, so
// lookups need no locking.
type HandlerRegistry struct {
	handlers map[entities.Operation]Handler
	ops      []entities.Operation // sorted for consistent iteration
	logger   *slog.Logger
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	handlers   map[entities.Operation]Handler
	middleware []Middleware
	logger     *slog.Logger
	errors     []error
}

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if an operation is registered twice or is not a known
// operation.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(logger)),
//	    WithBundle(CacheBundle(store)),
//	    WithBundle(DatabaseBundle(queries)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[entities.Operation]Handler),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	ops := make([]entities.Operation, 0, len(b.handlers))
	wrapped := make(map[entities.Operation]Handler, len(b.handlers))
	for op, h := range b.handlers {
		ops = append(ops, op)
		// Apply middleware in reverse order so the first one wraps outermost.
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		wrapped[op] = h
	}
	slices.Sort(ops)

	return &HandlerRegistry{
		handlers: wrapped,
		ops:      ops,
		logger:   b.logger,
	}, nil
}

// Invoke dispatches req to its handler.
func (r *HandlerRegistry) Invoke(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
	h, ok := r.handlers[req.Op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Op)
	}
	return h(ctx, req)
}

// Call runs req against session s and returns what the trigger primitive
// reports to the guest: the staged size, or a negative sentinel. Database
// operations consume the arguments registered in s. Operations without a
// result (cache_set) stage nothing and return 0 on success.
func (r *HandlerRegistry) Call(ctx context.Context, s *Session, req *entities.HostRequest) int32 {
	if req.Op == entities.OpDBInsert || req.Op == entities.OpDBSelect {
		req.Args = s.TakeVars()
	}

	result, err := r.Invoke(ctx, req)

	if !req.Op.ProducesResult() {
		if err != nil {
			r.logger.WarnContext(ctx, "hostfuncs: void operation failed", "op", req.Op, "error", err)
			return SentinelFor(err)
		}
		return 0
	}

	if err != nil {
		return s.StageError(err)
	}
	return s.Stage(result)
}

// Has returns true if a handler is registered for op.
func (r *HandlerRegistry) Has(op entities.Operation) bool {
	_, ok := r.handlers[op]
	return ok
}

// Operations returns the registered operations in sorted order.
func (r *HandlerRegistry) Operations() []entities.Operation {
	return slices.Clone(r.ops)
}

func (b *registryBuilder) addHandler(op entities.Operation, h Handler) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if h == nil {
		return fmt.Errorf("nil handler for %s", op)
	}
	if _, exists := b.handlers[op]; exists {
		return fmt.Errorf("duplicate handler for operation %q", op)
	}
	b.handlers[op] = h
	return nil
}

// WithHandler registers h for op.
func WithHandler(op entities.Operation, h Handler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(op, h); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithLogger sets the logger used for failures that cannot be reported to
// the guest. A nil logger is ignored.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(b *registryBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewDBRequest builds the request for a db_exec call with the given query
// kind. An unknown kind is an encoding failure.
func NewDBRequest(kind entities.QueryType, name string) (*entities.HostRequest, error) {
	op, ok := kind.Operation()
	if !ok {
		return nil, &domainerrors.EncodingError{
			Field: "query_kind",
			Err:   fmt.Errorf("unknown query type %d", int32(kind)),
		}
	}
	return &entities.HostRequest{Op: op, Name: name, QueryType: kind}, nil
}
