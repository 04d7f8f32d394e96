//go:build wasip1

package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// DefaultMaxTotalAllocations bounds the memory the host may ask the guest to
// pin through the allocate export.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// pinned keeps host-requested buffers reachable until the host (or the guest
// after reading them) releases them.
var pinned = struct {
	sync.Mutex
	bufs  map[uint32][]byte
	total int
	limit int
}{
	bufs:  make(map[uint32][]byte),
	limit: DefaultMaxTotalAllocations,
}

// Option configures the allocator.
type Option func(*allocConfig)

type allocConfig struct {
	limit int
}

// WithMaxTotalAllocations sets the pin limit. Non-positive values are ignored.
func WithMaxTotalAllocations(n int) Option {
	return func(c *allocConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

// Configure applies allocator options.
func Configure(opts ...Option) {
	pinned.Lock()
	defer pinned.Unlock()

	cfg := allocConfig{limit: pinned.limit}
	for _, opt := range opts {
		opt(&cfg)
	}
	pinned.limit = cfg.limit
}

// allocate is called by the host to obtain guest memory for an export's input.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	pinned.Lock()
	defer pinned.Unlock()

	if pinned.total+int(size) > pinned.limit {
		panic(fmt.Sprintf("abi: allocation limit exceeded (requested: %d bytes, pinned: %d bytes, limit: %d bytes)",
			size, pinned.total, pinned.limit))
	}

	buf := make([]byte, size)
	ptr := SlicePtr(buf)
	pinned.bufs[ptr] = buf
	pinned.total += int(size)
	return ptr
}

// deallocate releases a pinned buffer. Untracked pointers are ignored.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	pinned.Lock()
	defer pinned.Unlock()

	buf, ok := pinned.bufs[ptr]
	if !ok {
		return
	}
	delete(pinned.bufs, ptr)
	pinned.total -= len(buf)
	if pinned.total < 0 {
		pinned.total = 0
	}
}

// Stats reports the number of pinned buffers and their total size.
func Stats() (count, total int) {
	pinned.Lock()
	defer pinned.Unlock()
	return len(pinned.bufs), pinned.total
}

// FreeAllTracked drops every pinned buffer.
func FreeAllTracked() {
	pinned.Lock()
	defer pinned.Unlock()

	clear(pinned.bufs)
	pinned.total = 0
}

// SlicePtr returns the linear memory offset of b's first byte, or 0 for an
// empty slice. The caller must keep b alive for as long as the host may use
// the offset.
func SlicePtr(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	//nolint:gosec // G103: linear memory offsets are 32-bit on wasm32
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

// SliceArgs returns b as the (ptr, len) pair passed to host imports.
func SliceArgs(b []byte) (ptr, length uint32) {
	return SlicePtr(b), uint32(len(b)) //nolint:gosec // G115: callers check lengths against MaxInt32
}

// PtrFromBytes pins a copy of data and returns it packed. Exports use it to
// hand their output to the host, which releases it with deallocate.
func PtrFromBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	ptr := allocate(uint32(len(data))) //nolint:gosec // G115: bounded by the pin limit
	copy(memoryAt(ptr, uint32(len(data))), data)
	return PackPtrLen(ptr, uint32(len(data)))
}

// BytesFromPtr copies the packed region out of linear memory.
func BytesFromPtr(packed uint64) []byte {
	ptr, length := UnpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil
	}
	out := make([]byte, length)
	copy(out, memoryAt(ptr, length))
	return out
}

// DeallocatePacked releases a region returned by PtrFromBytes or allocate.
func DeallocatePacked(packed uint64) {
	ptr, length := UnpackPtrLen(packed)
	if ptr != 0 && length > 0 {
		deallocate(ptr, length)
	}
}

func memoryAt(ptr, length uint32) []byte {
	//nolint:gosec // G103: valid unsafe.Pointer use for WASM linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}
