package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

const transactionColumns = `id, account_id, user_id, type, amount, currency, description,
	category, counterparty, status, metadata, created_at`

type txRepo struct {
	q querier
}

func (r txRepo) Append(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	meta := tx.Metadata
	if meta == nil {
		meta = ledger.Metadata{}
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tx.ID, tx.AccountID, tx.UserID, string(tx.Type), tx.Amount, tx.Currency, tx.Description,
		tx.Category, tx.Counterparty, string(tx.Status), meta, tx.CreatedAt,
	)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	tx.Metadata = ledger.CloneMetadata(tx.Metadata)
	return tx, nil
}

func (r txRepo) ListByOwner(ctx context.Context, ownerID string, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{ownerID}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]ledger.Transaction, 0)
	for rows.Next() {
		var (
			tx           ledger.Transaction
			kind, status string
			meta         ledger.Metadata
		)
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.UserID, &kind, &tx.Amount, &tx.Currency, &tx.Description,
			&tx.Category, &tx.Counterparty, &status, &meta, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		tx.Type = ledger.TransactionType(kind)
		tx.Status = ledger.TransactionStatus(status)
		tx.Metadata = ledger.CloneMetadata(meta)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r txRepo) SumOutflows(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(-amount), 0) FROM transactions
		 WHERE account_id = $1 AND amount < 0 AND type IN ('transfer', 'withdrawal') AND created_at >= $2`,
		accountID, since,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum outflows of %s: %w", accountID, err)
	}
	return total, nil
}
