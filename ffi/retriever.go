package ffi

import (
	"errors"
	"fmt"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// ErrInvalidTransition is returned when a call is driven out of order,
// for example fetching a result whose size was never reported.
var ErrInvalidTransition = errors.New("ffi: invalid call state transition")

// Allocator returns a guest-owned buffer of exactly n bytes.
type Allocator func(n int) []byte

func defaultAllocator(n int) []byte {
	return make([]byte, n)
}

// call tracks one host call through Requested -> Sized -> Fetched | Failed.
type call struct {
	op     entities.Operation
	target string
	state  entities.CallState
	size   int32
}

func newCall(op entities.Operation, target string) *call {
	return &call{op: op, target: target, state: entities.CallRequested}
}

func (c *call) advance(next entities.CallState) error {
	if !c.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s (%s)", ErrInvalidTransition, c.state, next, c.op)
	}
	c.state = next
	return nil
}

// Retriever converts a size-or-sentinel into a result.
type Retriever struct {
	host   ports.HostBoundary
	errMap ErrorMap
	alloc  Allocator
}

// NewRetriever creates a Retriever. A nil errMap uses DefaultErrorMap and a
// nil alloc uses make.
func NewRetriever(host ports.HostBoundary, errMap ErrorMap, alloc Allocator) *Retriever {
	if errMap == nil {
		errMap = DefaultErrorMap()
	}
	if alloc == nil {
		alloc = defaultAllocator
	}
	return &Retriever{host: host, errMap: errMap, alloc: alloc}
}

// Retrieve resolves the value returned by a trigger primitive for op.
// On success the returned slice has length exactly size and is never nil.
func (r *Retriever) Retrieve(op entities.Operation, target string, size int32) ([]byte, error) {
	return r.retrieve(newCall(op, target), size)
}

func (r *Retriever) retrieve(c *call, size int32) ([]byte, error) {
	if size < 0 {
		if err := c.advance(entities.CallFailed); err != nil {
			return nil, err
		}
		return nil, r.errMap.Err(c.op, c.target, size)
	}

	if err := c.advance(entities.CallSized); err != nil {
		return nil, err
	}
	c.size = size

	buf := r.alloc(int(size))
	if len(buf) != int(size) {
		return nil, fmt.Errorf("ffi: allocator returned %d bytes, want %d", len(buf), size)
	}
	if buf == nil {
		buf = []byte{}
	}

	r.host.FetchResult(buf)
	if err := c.advance(entities.CallFetched); err != nil {
		return nil, err
	}

	return buf, nil
}
