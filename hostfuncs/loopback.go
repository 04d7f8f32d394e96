package hostfuncs

import (
	"bytes"
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// Compile-time interface compliance check
var _ ports.HostBoundary = (*Loopback)(nil)

// Loopback is an in-process ports.HostBoundary: guest packages call it
// directly and it drives a registry and session exactly as a runtime adapter
// would. It lets guest code run natively against real backends.
//
//	lb := hostfuncs.NewLoopback(ctx, registry)
//	err := cache.Set(ctx, "k", v, cache.NoExpiry, cache.WithHost(lb))
type Loopback struct {
	ctx      context.Context
	registry *HandlerRegistry
	session  *Session
}

// NewLoopback creates a Loopback with a fresh session. ctx is passed to every
// handler, since the boundary methods carry no context of their own.
func NewLoopback(ctx context.Context, registry *HandlerRegistry) *Loopback {
	s := NewSession()
	return &Loopback{
		ctx:      WithSession(ctx, s),
		registry: registry,
		session:  s,
	}
}

// Session returns the loopback's session.
func (l *Loopback) Session() *Session {
	return l.session
}

// CacheSet implements ports.HostBoundary.
func (l *Loopback) CacheSet(key, value []byte, ttl int32) {
	l.registry.Call(l.ctx, l.session, &entities.HostRequest{
		Op:    entities.OpCacheSet,
		Key:   bytes.Clone(key),
		Value: bytes.Clone(value),
		TTL:   ttl,
	})
}

// CacheGet implements ports.HostBoundary.
func (l *Loopback) CacheGet(key []byte) int32 {
	return l.registry.Call(l.ctx, l.session, &entities.HostRequest{
		Op:  entities.OpCacheGet,
		Key: bytes.Clone(key),
	})
}

// DBExec implements ports.HostBoundary.
func (l *Loopback) DBExec(kind entities.QueryType, name []byte) int32 {
	req, err := NewDBRequest(kind, string(name))
	if err != nil {
		l.session.TakeVars()
		return l.session.StageError(err)
	}
	return l.registry.Call(l.ctx, l.session, req)
}

// GraphQLQuery implements ports.HostBoundary.
func (l *Loopback) GraphQLQuery(endpoint, query []byte) int32 {
	return l.registry.Call(l.ctx, l.session, &entities.HostRequest{
		Op:       entities.OpGraphQLQuery,
		Endpoint: string(endpoint),
		Query:    string(query),
	})
}

// GetStaticFile implements ports.HostBoundary.
func (l *Loopback) GetStaticFile(name []byte) int32 {
	return l.registry.Call(l.ctx, l.session, &entities.HostRequest{
		Op:   entities.OpGetStaticFile,
		Name: string(name),
	})
}

// AddVar implements ports.HostBoundary.
func (l *Loopback) AddVar(name, value []byte) {
	l.session.AddVar(string(name), string(value))
}

// FetchResult implements ports.HostBoundary.
func (l *Loopback) FetchResult(dest []byte) {
	l.session.Fetch(dest)
}
