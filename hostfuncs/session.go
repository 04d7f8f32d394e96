package hostfuncs

import (
	"math"
	"sync"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// Session is the protocol state of one guest invocation.
// It is safe for concurrent use, but the protocol itself assumes one logical
// operation at a time.
type Session struct {
	vars   []entities.QueryArg
	staged []byte
	mu     sync.Mutex
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// AddVar appends a query argument. Arguments accumulate until TakeVars.
func (s *Session) AddVar(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = append(s.vars, entities.QueryArg{Name: name, Value: value})
}

// Vars returns a copy of the pending arguments.
func (s *Session) Vars() []entities.QueryArg {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.QueryArg, len(s.vars))
	copy(out, s.vars)
	return out
}

// TakeVars returns the pending arguments and clears them.
func (s *Session) TakeVars() []entities.QueryArg {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := s.vars
	s.vars = nil
	return vars
}

// Stage replaces the staged result with a copy of data and returns its size.
// A result too large to describe as an i32 is staged as an encoding failure.
func (s *Session) Stage(data []byte) int32 {
	if len(data) > math.MaxInt32 {
		return s.StageError(&domainerrors.EncodingError{Field: "result", Length: len(data)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.staged = append(make([]byte, 0, len(data)), data...)
	return int32(len(s.staged)) //nolint:gosec // G115: checked above
}

// StageError clears any staged result and returns the sentinel for err.
func (s *Session) StageError(err error) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.staged = nil
	return SentinelFor(err)
}

// Staged returns the number of staged bytes and whether a result is staged.
func (s *Session) Staged() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged), s.staged != nil
}

// Fetch copies the staged result into dst, clears it, and returns the number
// of bytes copied. With nothing staged it copies nothing.
func (s *Session) Fetch(dst []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(dst, s.staged)
	s.staged = nil
	return n
}

// Take returns the staged result and clears it. The caller owns the bytes.
func (s *Session) Take() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.staged
	s.staged = nil
	return data
}

// Reset drops pending arguments and any staged result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = nil
	s.staged = nil
}
