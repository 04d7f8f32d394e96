package ffi

import (
	"fmt"
	"math"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/domain/ports"
)

// maxLen is the largest byte sequence the i32 length parameters can describe.
var maxLen = math.MaxInt32

// Request describes one logical host operation.
// For database operations the db_exec kind is derived from Op.
type Request struct {
	Op    entities.Operation
	Name  []byte // cache key, query name, GraphQL endpoint, or file name
	Value []byte // cache value or GraphQL query text
	Args  []entities.QueryArg
	TTL   int32
}

// Target returns a printable form of the primary name for diagnostics.
func (r Request) Target() string {
	return string(r.Name)
}

type encodedArg struct {
	name  []byte
	value []byte
}

// checkLen fails with an EncodingError when n cannot be passed as an i32 length.
func checkLen(field string, n int) error {
	if n > maxLen {
		return &domainerrors.EncodingError{Field: field, Length: n}
	}
	return nil
}

// encodeArgs converts every argument up front so that a failure happens
// before the first registration crosses the boundary.
func encodeArgs(args []entities.QueryArg) ([]encodedArg, error) {
	out := make([]encodedArg, 0, len(args))
	for i, arg := range args {
		if err := checkLen(fmt.Sprintf("args[%d].name", i), len(arg.Name)); err != nil {
			return nil, err
		}
		if err := checkLen(fmt.Sprintf("args[%d].value", i), len(arg.Value)); err != nil {
			return nil, err
		}
		out = append(out, encodedArg{name: []byte(arg.Name), value: []byte(arg.Value)})
	}
	return out, nil
}

// Initiator turns a Request into host primitive calls.
type Initiator struct {
	host ports.HostBoundary
}

// NewInitiator creates an Initiator bound to host.
func NewInitiator(host ports.HostBoundary) *Initiator {
	return &Initiator{host: host}
}

// Initiate validates and encodes req, registers its arguments, and invokes the
// trigger primitive. For OpCacheSet, which has no result, it returns 0.
func (in *Initiator) Initiate(req Request) (int32, error) {
	if !req.Op.Valid() {
		return 0, fmt.Errorf("ffi: unknown operation %q", req.Op)
	}
	if err := checkLen("name", len(req.Name)); err != nil {
		return 0, err
	}
	if err := checkLen("value", len(req.Value)); err != nil {
		return 0, err
	}

	switch req.Op {
	case entities.OpCacheSet:
		in.host.CacheSet(req.Name, req.Value, req.TTL)
		return 0, nil

	case entities.OpCacheGet:
		return in.host.CacheGet(req.Name), nil

	case entities.OpDBInsert, entities.OpDBSelect:
		kind, _ := req.Op.QueryType()
		args, err := encodeArgs(req.Args)
		if err != nil {
			return 0, err
		}
		for _, arg := range args {
			in.host.AddVar(arg.name, arg.value)
		}
		return in.host.DBExec(kind, req.Name), nil

	case entities.OpGraphQLQuery:
		return in.host.GraphQLQuery(req.Name, req.Value), nil

	case entities.OpGetStaticFile:
		return in.host.GetStaticFile(req.Name), nil
	}

	return 0, fmt.Errorf("ffi: unhandled operation %q", req.Op)
}
