// Package postgres implements the persistence interfaces on PostgreSQL
// via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so the same query
// methods serve pooled reads and transaction-scoped writes.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// New constructs a Repository over a connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.EventStore  = (*Repository)(nil)
	_ repository.TxRunner    = (*Repository)(nil)
	_ repository.Savepointer = (*Repository)(nil)
	_ repository.MetricStore = (*Repository)(nil)
	_ repository.AgentStore  = (*Repository)(nil)
	_ repository.EventReader = (*Repository)(nil)
)

// InTx runs fn against a transaction-scoped store. A nil return commits;
// any error, including a commit failure, leaves the database untouched.
func (r *Repository) InTx(ctx context.Context, fn func(repository.EventStore) error) error {
	if r.pool == nil {
		return fmt.Errorf("postgres: repository is already transaction-scoped")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	scoped := &Repository{db: tx}
	if err := fn(scoped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// InSavepoint runs fn against a savepoint-scoped store inside the
// current transaction. Postgres aborts a transaction on the first
// failed statement; rolling back to the savepoint instead keeps the
// enclosing transaction and its earlier writes usable. Only works on a
// transaction-scoped Repository.
func (r *Repository) InSavepoint(ctx context.Context, fn func(repository.EventStore) error) error {
	tx, ok := r.db.(pgx.Tx)
	if !ok {
		return fmt.Errorf("postgres: savepoint outside a transaction")
	}
	nested, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	scoped := &Repository{db: nested}
	if err := fn(scoped); err != nil {
		_ = nested.Rollback(ctx)
		return err
	}
	if err := nested.Commit(ctx); err != nil {
		_ = nested.Rollback(ctx)
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// filterArgs maps a MetricFilter onto the fixed argument positions
// $1..$6 shared by every filtered query: start, end, agent_id,
// session_id, event_types, levels.
func filterArgs(f repository.MetricFilter) []any {
	eventTypes := f.EventTypes
	if eventTypes == nil {
		eventTypes = []string{}
	}
	levels := f.Levels
	if levels == nil {
		levels = []string{}
	}
	return []any{f.Start, f.End, f.AgentID, f.SessionID, eventTypes, levels}
}

// eventFilter is the WHERE clause fragment matching filterArgs, applied
// to an events table aliased as e.
const eventFilter = `e.timestamp >= $1 AND e.timestamp <= $2
		AND ($3 = '' OR e.agent_id = $3)
		AND ($4 = '' OR e.session_id = $4)
		AND (cardinality($5::text[]) = 0 OR e.event_type = ANY($5))
		AND (cardinality($6::text[]) = 0 OR e.level = ANY($6))`

func marshalJSON(m map[string]any) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	s := string(b)
	return &s, nil
}

func unmarshalJSON(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
