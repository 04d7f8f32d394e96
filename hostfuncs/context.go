package hostfuncs

import "context"

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s. Runtime adapters take the
// session of the current invocation from the call context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
