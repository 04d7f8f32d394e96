package ports

import "github.com/runnable-dev/runnable-sdk/domain/entities"

// HostBoundary is the set of host primitives a guest can call.
// Each method is exactly one boundary crossing.
//
// Trigger methods return a size-or-sentinel: a value >= 0 is the number of
// result bytes staged by the host, a value < 0 is an error sentinel.
type HostBoundary interface {
	// CacheSet stores value under key. A ttl <= 0 means no expiry.
	CacheSet(key, value []byte, ttl int32)

	// CacheGet stages the value stored under key.
	CacheGet(key []byte) int32

	// DBExec runs the named query with every argument registered since the
	// previous DBExec, then clears the registered arguments.
	DBExec(kind entities.QueryType, name []byte) int32

	// GraphQLQuery sends query to endpoint and stages the raw response.
	GraphQLQuery(endpoint, query []byte) int32

	// GetStaticFile stages the contents of the named file bundled with the host.
	GetStaticFile(name []byte) int32

	// AddVar registers one query argument for the next DBExec.
	AddVar(name, value []byte)

	// FetchResult copies the staged result into dest. len(dest) is the size
	// previously returned by a trigger method.
	FetchResult(dest []byte)
}
