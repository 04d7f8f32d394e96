// Package errors provides domain-specific error types for host calls.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = stdErrors.New("not found")

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	if stdErrors.Is(err, ErrNotFound) {
		return &entities.ErrorDetail{
			Message:    err.Error(),
			Type:       string(entities.ErrorKindNotFound),
			IsNotFound: true,
		}
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// KindOf returns the protocol error kind for err.
// Errors outside the protocol taxonomy are reported as host invocation failures.
func KindOf(err error) entities.ErrorKind {
	var encErr *EncodingError
	switch {
	case stdErrors.Is(err, ErrNotFound):
		return entities.ErrorKindNotFound
	case stdErrors.As(err, &encErr):
		return entities.ErrorKindEncoding
	default:
		return entities.ErrorKindHostInvocation
	}
}

// EncodingError reports that a name, key, or argument could not be represented
// as a byte sequence the host boundary accepts.
type EncodingError struct {
	Err    error
	Field  string
	Length int
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encoding %s failed: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("encoding %s failed: length %d exceeds host limit", e.Field, e.Length)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *EncodingError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: string(entities.ErrorKindEncoding), Code: e.Field}
}

// HostInvocationError reports a negative sentinel that does not denote absence.
// The raw sentinel is preserved for diagnostics.
type HostInvocationError struct {
	Err      error
	Op       entities.Operation
	Sentinel int32
}

func (e *HostInvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("host %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("host %s failed with sentinel %d", e.Op, e.Sentinel)
}

func (e *HostInvocationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *HostInvocationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message:  e.Error(),
		Type:     string(entities.ErrorKindHostInvocation),
		Code:     string(e.Op),
		Sentinel: e.Sentinel,
	}
}

// NotFoundError reports absence: a cache miss, an unknown query, an empty lookup.
type NotFoundError struct {
	Op       entities.Operation
	Target   string
	Sentinel int32
}

func (e *NotFoundError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s not found", e.Op, e.Target)
	}
	return fmt.Sprintf("%s: not found", e.Op)
}

// Is makes errors.Is(err, ErrNotFound) succeed for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message:    e.Error(),
		Type:       string(entities.ErrorKindNotFound),
		Code:       string(e.Op),
		Sentinel:   e.Sentinel,
		IsNotFound: true,
	}
}

// CapabilityError reports that the host has a capability disabled.
type CapabilityError struct {
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability not enabled: %s", e.Capability)
}

// ToErrorDetail implements DetailedError.
func (e *CapabilityError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "capability", Code: e.Capability}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// MemoryError represents a guest memory access failure on the host side.
type MemoryError struct {
	Offset uint32
	Length uint32
	Size   uint32
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory access out of range: offset %d length %d (memory size %d)", e.Offset, e.Length, e.Size)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: string(entities.ErrorKindEncoding), Code: "memory"}
}
