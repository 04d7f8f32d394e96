package wazero

import (
	"bytes"
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/tetratelabs/wazero/api"
)

// hostModule implements the exported primitives on top of a registry.
type hostModule struct {
	registry *hostfuncs.HandlerRegistry
	cfg      AdapterConfig
}

func (h *hostModule) cacheSet(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "cache_set")
	if !ok {
		return
	}
	key, err := h.read(mod, stack[0], stack[1], "key")
	if err == nil {
		var value []byte
		value, err = h.read(mod, stack[2], stack[3], "value")
		if err == nil {
			h.registry.Call(ctx, s, &entities.HostRequest{
				Op:    entities.OpCacheSet,
				Key:   key,
				Value: value,
				TTL:   api.DecodeI32(stack[4]),
			})
			return
		}
	}
	h.cfg.Logger.WarnContext(ctx, "wazero: cache_set dropped", "module", GetModuleName(ctx, mod), "error", err)
}

func (h *hostModule) cacheGet(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "cache_get")
	if !ok {
		stack[0] = api.EncodeI32(entities.SentinelHostInvocation)
		return
	}
	key, err := h.read(mod, stack[0], stack[1], "key")
	if err != nil {
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	stack[0] = api.EncodeI32(h.registry.Call(ctx, s, &entities.HostRequest{
		Op:  entities.OpCacheGet,
		Key: key,
	}))
}

func (h *hostModule) dbExec(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "db_exec")
	if !ok {
		stack[0] = api.EncodeI32(entities.SentinelHostInvocation)
		return
	}
	kind := entities.QueryType(api.DecodeI32(stack[0]))

	name, err := h.read(mod, stack[1], stack[2], "name")
	if err != nil {
		s.TakeVars()
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	req, err := hostfuncs.NewDBRequest(kind, string(name))
	if err != nil {
		s.TakeVars()
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	stack[0] = api.EncodeI32(h.registry.Call(ctx, s, req))
}

func (h *hostModule) graphqlQuery(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "graphql_query")
	if !ok {
		stack[0] = api.EncodeI32(entities.SentinelHostInvocation)
		return
	}
	endpoint, err := h.read(mod, stack[0], stack[1], "endpoint")
	if err != nil {
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	query, err := h.read(mod, stack[2], stack[3], "query")
	if err != nil {
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	stack[0] = api.EncodeI32(h.registry.Call(ctx, s, &entities.HostRequest{
		Op:       entities.OpGraphQLQuery,
		Endpoint: string(endpoint),
		Query:    string(query),
	}))
}

func (h *hostModule) getStaticFile(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "get_static_file")
	if !ok {
		stack[0] = api.EncodeI32(entities.SentinelHostInvocation)
		return
	}
	name, err := h.read(mod, stack[0], stack[1], "name")
	if err != nil {
		stack[0] = api.EncodeI32(s.StageError(err))
		return
	}
	stack[0] = api.EncodeI32(h.registry.Call(ctx, s, &entities.HostRequest{
		Op:   entities.OpGetStaticFile,
		Name: string(name),
	}))
}

func (h *hostModule) addVar(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "add_var")
	if !ok {
		return
	}
	name, err := h.read(mod, stack[0], stack[1], "name")
	if err == nil {
		var value []byte
		value, err = h.read(mod, stack[2], stack[3], "value")
		if err == nil {
			s.AddVar(string(name), string(value))
			return
		}
	}
	h.cfg.Logger.WarnContext(ctx, "wazero: add_var dropped", "module", GetModuleName(ctx, mod), "error", err)
}

func (h *hostModule) fetchResult(ctx context.Context, mod api.Module, stack []uint64) {
	s, ok := h.session(ctx, mod, "fetch_result")
	if !ok {
		return
	}
	dest := api.DecodeU32(stack[0])
	size := api.DecodeI32(stack[1])

	// The staged bytes are written in place; size only bounds the copy and
	// never drives a host allocation.
	staged := s.Take()
	if size < 0 {
		h.cfg.Logger.WarnContext(ctx, "wazero: fetch_result with negative size", "module", GetModuleName(ctx, mod), "size", size)
		return
	}
	if memSize := mod.Memory().Size(); uint64(dest)+uint64(size) > uint64(memSize) {
		h.cfg.Logger.WarnContext(ctx, "wazero: fetch_result destination out of bounds",
			"module", GetModuleName(ctx, mod), "error", &domainerrors.MemoryError{
				Offset: dest, Length: uint32(size), Size: memSize, //nolint:gosec // G115: size >= 0
			})
		return
	}
	if int(size) != len(staged) {
		h.cfg.Logger.WarnContext(ctx, "wazero: fetch_result size does not match staged result",
			"module", GetModuleName(ctx, mod), "size", size, "staged", len(staged))
	}

	n := min(int(size), len(staged))
	if n > 0 && !mod.Memory().Write(dest, staged[:n]) {
		h.cfg.Logger.WarnContext(ctx, "wazero: fetch_result write failed", "module", GetModuleName(ctx, mod))
	}
}

// session returns the session carried by ctx, logging when there is none.
func (h *hostModule) session(ctx context.Context, mod api.Module, primitive string) (*hostfuncs.Session, bool) {
	s, ok := hostfuncs.SessionFrom(ctx)
	if !ok {
		h.cfg.Logger.ErrorContext(ctx, "wazero: host call without a session",
			"module", GetModuleName(ctx, mod), "primitive", primitive)
	}
	return s, ok
}

// read copies a region of guest memory. The copy outlives the call, so
// handlers may keep it.
func (h *hostModule) read(mod api.Module, ptrArg, lenArg uint64, field string) ([]byte, error) {
	ptr, length := api.DecodeU32(ptrArg), api.DecodeU32(lenArg)
	if length > h.cfg.MaxRequestSize {
		return nil, &domainerrors.EncodingError{Field: field, Length: int(length)}
	}
	if length == 0 {
		return []byte{}, nil
	}
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, &domainerrors.MemoryError{Offset: ptr, Length: length, Size: mod.Memory().Size()}
	}
	return bytes.Clone(data), nil
}
