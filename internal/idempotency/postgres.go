package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, key string) (Record, bool, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT method, path, status_code, body, created_at FROM idempotency_keys
		 WHERE owner_id = $1 AND key = $2`,
		ownerID, key,
	).Scan(&rec.Method, &rec.Path, &rec.StatusCode, &rec.Body, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get idempotency key: %w", err)
	}
	return rec, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, ownerID, key string, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (owner_id, key, method, path, status_code, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (owner_id, key) DO UPDATE
		 SET method = EXCLUDED.method, path = EXCLUDED.path, status_code = EXCLUDED.status_code,
		     body = EXCLUDED.body, created_at = EXCLUDED.created_at`,
		ownerID, key, rec.Method, rec.Path, rec.StatusCode, rec.Body, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
