package entities

import "fmt"

// Operation identifies a host primitive that produces (or consumes) a result.
type Operation string

const (
	// OpCacheSet stores a value in the host cache.
	OpCacheSet Operation = "cache_set"

	// OpCacheGet reads a value from the host cache.
	OpCacheGet Operation = "cache_get"

	// OpDBInsert executes a named insert query.
	OpDBInsert Operation = "db_insert"

	// OpDBSelect executes a named select query.
	OpDBSelect Operation = "db_select"

	// OpGraphQLQuery sends a GraphQL query to an endpoint.
	OpGraphQLQuery Operation = "graphql_query"

	// OpGetStaticFile reads a file bundled with the host.
	OpGetStaticFile Operation = "get_static_file"
)

// Operations returns the closed set of operation kinds in a stable order.
func Operations() []Operation {
	return []Operation{OpCacheSet, OpCacheGet, OpDBInsert, OpDBSelect, OpGraphQLQuery, OpGetStaticFile}
}

// Valid reports whether op is one of the known operation kinds.
func (op Operation) Valid() bool {
	switch op {
	case OpCacheSet, OpCacheGet, OpDBInsert, OpDBSelect, OpGraphQLQuery, OpGetStaticFile:
		return true
	}
	return false
}

// ProducesResult reports whether the operation returns a size-or-sentinel
// that must be followed by a result fetch.
func (op Operation) ProducesResult() bool {
	return op.Valid() && op != OpCacheSet
}

// QueryType returns the db_exec kind a database operation triggers.
func (op Operation) QueryType() (QueryType, bool) {
	switch op {
	case OpDBInsert:
		return QueryTypeInsert, true
	case OpDBSelect:
		return QueryTypeSelect, true
	}
	return 0, false
}

// QueryType is the scalar passed as the query_kind argument of db_exec.
type QueryType int32

const (
	// QueryTypeInsert runs a query that returns the inserted row ID.
	QueryTypeInsert QueryType = 0

	// QueryTypeSelect runs a query that returns rows.
	QueryTypeSelect QueryType = 1
)

func (t QueryType) String() string {
	switch t {
	case QueryTypeInsert:
		return "insert"
	case QueryTypeSelect:
		return "select"
	default:
		return fmt.Sprintf("query_type(%d)", int32(t))
	}
}

// Operation maps the query type to the operation kind it triggers.
func (t QueryType) Operation() (Operation, bool) {
	switch t {
	case QueryTypeInsert:
		return OpDBInsert, true
	case QueryTypeSelect:
		return OpDBSelect, true
	}
	return "", false
}

// ParseQueryType converts a configuration string ("insert", "select") to a QueryType.
func ParseQueryType(s string) (QueryType, error) {
	switch s {
	case "insert":
		return QueryTypeInsert, nil
	case "select":
		return QueryTypeSelect, nil
	}
	return 0, fmt.Errorf("unknown query type %q", s)
}

// QueryArg is a single named argument registered with the host before db_exec.
type QueryArg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
