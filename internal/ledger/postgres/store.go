// Package postgres is the PostgreSQL ledger.Store. Balances live in NUMERIC
// columns and every unit of work is one database transaction.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Repos() ledger.Repos {
	return repos(s.pool)
}

// Do runs fn inside a read-committed transaction. Row locks taken through
// GetForUpdate are held until commit or rollback.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r ledger.Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func repos(q querier) ledger.Repos {
	return ledger.Repos{
		Accounts:     accountRepo{q},
		Transactions: txRepo{q},
		Positions:    positionRepo{q},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// nullTime lets the column default fill in a zero time.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
