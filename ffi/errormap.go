package ffi

import (
	"fmt"
	"sort"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// ErrorMap maps negative sentinels returned by the host to error kinds.
// Lookups are total: a negative sentinel missing from the map is a host
// invocation failure.
type ErrorMap map[int32]entities.ErrorKind

// DefaultErrorMap is the mapping used by the reference host.
func DefaultErrorMap() ErrorMap {
	return ErrorMap{
		entities.SentinelHostInvocation: entities.ErrorKindHostInvocation,
		entities.SentinelNotFound:       entities.ErrorKindNotFound,
		entities.SentinelEncoding:       entities.ErrorKindEncoding,
	}
}

// Validate checks that every key is negative and every kind is known.
func (m ErrorMap) Validate() error {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		if k >= 0 {
			return fmt.Errorf("error map: sentinel %d is not negative", k)
		}
		if !m[k].Valid() {
			return fmt.Errorf("error map: sentinel %d maps to unknown kind %q", k, m[k])
		}
	}
	return nil
}

// Kind returns the error kind for a negative sentinel.
func (m ErrorMap) Kind(sentinel int32) entities.ErrorKind {
	if kind, ok := m[sentinel]; ok {
		return kind
	}
	return entities.ErrorKindHostInvocation
}

// Err builds the typed error for a negative sentinel. target names the key,
// query, or endpoint the call was about and is carried for diagnostics.
func (m ErrorMap) Err(op entities.Operation, target string, sentinel int32) error {
	switch m.Kind(sentinel) {
	case entities.ErrorKindNotFound:
		return &domainerrors.NotFoundError{Op: op, Target: target, Sentinel: sentinel}
	case entities.ErrorKindEncoding:
		return &domainerrors.EncodingError{
			Field: target,
			Err:   &domainerrors.HostInvocationError{Op: op, Sentinel: sentinel},
		}
	default:
		return &domainerrors.HostInvocationError{Op: op, Sentinel: sentinel}
	}
}
