package entities

import "fmt"

// CallState is the lifecycle state of a single host call on the guest side.
//
// Valid transitions:
//
//	Requested -> Sized -> Fetched
//	Requested -> Failed
type CallState int

const (
	// CallRequested means the trigger primitive has been (or is being) invoked.
	CallRequested CallState = iota

	// CallSized means the host reported a non-negative result size.
	CallSized

	// CallFetched means the staged result has been copied into guest memory.
	CallFetched

	// CallFailed means the host reported a negative sentinel.
	CallFailed
)

func (s CallState) String() string {
	switch s {
	case CallRequested:
		return "requested"
	case CallSized:
		return "sized"
	case CallFetched:
		return "fetched"
	case CallFailed:
		return "failed"
	default:
		return fmt.Sprintf("call_state(%d)", int(s))
	}
}

// CanTransition reports whether moving from s to next is allowed.
func (s CallState) CanTransition(next CallState) bool {
	switch s {
	case CallRequested:
		return next == CallSized || next == CallFailed
	case CallSized:
		return next == CallFetched
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s CallState) Terminal() bool {
	return s == CallFetched || s == CallFailed
}

// ErrorKind is the semantic category a negative sentinel maps to.
type ErrorKind string

const (
	// ErrorKindHostInvocation is a generic host failure.
	ErrorKindHostInvocation ErrorKind = "host_invocation"

	// ErrorKindNotFound signals absence (cache miss, unknown query).
	ErrorKindNotFound ErrorKind = "not_found"

	// ErrorKindEncoding signals that a name, key, or argument could not be encoded.
	ErrorKindEncoding ErrorKind = "encoding"
)

// Valid reports whether k is a known error kind.
func (k ErrorKind) Valid() bool {
	switch k {
	case ErrorKindHostInvocation, ErrorKindNotFound, ErrorKindEncoding:
		return true
	}
	return false
}

// Sentinel values produced by the reference host. The guest treats the
// mapping from sentinel to ErrorKind as configuration; these are its defaults.
const (
	// SentinelHostInvocation signals a generic host failure.
	SentinelHostInvocation int32 = -1

	// SentinelNotFound signals absence.
	SentinelNotFound int32 = -2

	// SentinelEncoding signals that the host could not decode the arguments.
	SentinelEncoding int32 = -3
)
