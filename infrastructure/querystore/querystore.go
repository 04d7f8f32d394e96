// Package querystore runs pre-registered, named SQL queries for the host's
// db_exec primitive through database/sql.
//
// Guests never send SQL. They name a query and register its arguments; the
// host looks the query up, binds the arguments, and renders the outcome as
// JSON: {"lastInsertID": n} for inserts, an array of column-keyed objects for
// selects.
package querystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
	"github.com/runnable-dev/runnable-sdk/domain/ports"

	_ "modernc.org/sqlite"
)

// Compile-time interface compliance check
var _ ports.QueryExecutor = (*Store)(nil)

// Query is a named statement a guest may execute.
type Query struct {
	Name string
	Type entities.QueryType
	SQL  string
	// VarCount is the number of arguments the query takes. A guest call with
	// a different count is rejected before the database is reached.
	VarCount int
	// Positional binds arguments as ? placeholders in registration order
	// instead of by name (:name, @name, $name).
	Positional bool
}

// Config describes the database connection.
type Config struct {
	// Driver is a database/sql driver name. "sqlite3" and "libsql" are
	// aliases for the bundled modernc sqlite driver.
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens and pings the database described by cfg.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver, dsn := cfg.Driver, cfg.DSN
	if driver == "" || driver == "libsql" || driver == "sqlite3" {
		driver = "sqlite"
		if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
			dsn = "file:" + dsn
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("querystore: failed to open db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("querystore: failed to ping db: %w", err)
	}
	return db, nil
}

// Store executes named queries against a database.
type Store struct {
	db      *sql.DB
	queries map[string]Query
}

// New creates a Store serving queries. Query names must be unique and each
// query's type must be insert or select.
func New(db *sql.DB, queries []Query) (*Store, error) {
	s := &Store{db: db, queries: make(map[string]Query, len(queries))}
	for _, q := range queries {
		if q.Name == "" {
			return nil, fmt.Errorf("querystore: query with empty name")
		}
		if _, ok := q.Type.Operation(); !ok {
			return nil, fmt.Errorf("querystore: query %q: invalid type %s", q.Name, q.Type)
		}
		if _, dup := s.queries[q.Name]; dup {
			return nil, fmt.Errorf("querystore: duplicate query %q", q.Name)
		}
		s.queries[q.Name] = q
	}
	return s, nil
}

// Exec implements ports.QueryExecutor.
func (s *Store) Exec(ctx context.Context, kind entities.QueryType, name string, args []entities.QueryArg) ([]byte, error) {
	op, _ := kind.Operation()

	q, ok := s.queries[name]
	if !ok || q.Type != kind {
		return nil, &domainerrors.NotFoundError{Op: op, Target: name}
	}
	if len(args) != q.VarCount {
		return nil, &domainerrors.EncodingError{
			Field:  "args",
			Length: len(args),
			Err:    fmt.Errorf("query %q takes %d arguments", name, q.VarCount),
		}
	}

	bound := bind(q, args)
	if kind == entities.QueryTypeInsert {
		return s.insert(ctx, q, bound)
	}
	return s.selectRows(ctx, q, bound)
}

func bind(q Query, args []entities.QueryArg) []any {
	bound := make([]any, len(args))
	for i, a := range args {
		if q.Positional {
			bound[i] = a.Value
		} else {
			bound[i] = sql.Named(a.Name, a.Value)
		}
	}
	return bound
}

func (s *Store) insert(ctx context.Context, q Query, args []any) ([]byte, error) {
	res, err := s.db.ExecContext(ctx, q.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querystore: insert %q: %w", q.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("querystore: insert %q: last insert id: %w", q.Name, err)
	}
	return json.Marshal(entities.InsertResult{LastInsertID: id})
}

// selectRows renders rows as a JSON array with one object per row, keyed by
// column name. A repeated column name keeps its last value.
func (s *Store) selectRows(ctx context.Context, q Query, args []any) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, q.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querystore: select %q: %w", q.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("querystore: select %q: %w", q.Name, err)
	}

	count := len(columns)
	values := make([]any, count)
	valuePtrs := make([]any, count)
	tableData := make([]map[string]any, 0)

	for rows.Next() {
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("querystore: select %q: scan: %w", q.Name, err)
		}

		entry := make(map[string]any, count)
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}
		tableData = append(tableData, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querystore: select %q: %w", q.Name, err)
	}

	return json.Marshal(tableData)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
