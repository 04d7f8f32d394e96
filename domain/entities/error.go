package entities

import (
	"strconv"
	"strings"
)

// ErrorDetail is an error in the form it crosses the boundary: a guest
// reports one in its RunResult and the host logs its own errors the same way.
//
// Type is an ErrorKind, or "internal" and "panic" for failures outside the
// call protocol.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	// Code names the operation or field involved.
	Code string `json:"code,omitempty"`
	// Sentinel is the host's negative return value, when there was one.
	Sentinel int32 `json:"sentinel,omitempty"`
	// IsNotFound marks an absence rather than a failure.
	IsNotFound bool `json:"is_not_found,omitempty"`
	// Stack is set for recovered panics.
	Stack []byte `json:"stack,omitempty"`
}

// Error renders e as "type: message [code] (sentinel n)", leaving out the
// parts that are empty. The "internal" type is not printed.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Type != "" && e.Type != "internal" {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" [" + e.Code + "]")
	}
	if e.Sentinel < 0 {
		b.WriteString(" (sentinel " + strconv.Itoa(int(e.Sentinel)) + ")")
	}
	return b.String()
}

// NewErrorDetail returns a detail of the given type.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{Type: errorType, Message: message}
}

// WithCode sets the code and returns e.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}
