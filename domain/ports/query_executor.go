package ports

import (
	"context"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
)

// QueryExecutor is the host-side database backend.
// It runs a pre-registered query by name and renders the result as JSON:
// an InsertResult object for inserts, an array of column-keyed objects for selects.
type QueryExecutor interface {
	Exec(ctx context.Context, kind entities.QueryType, name string, args []entities.QueryArg) ([]byte, error)
	Close() error
}
