package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

const accountColumns = `id, owner_id, name, type, balance, currency, is_active,
	daily_limit, weekly_limit, monthly_limit, created_at, updated_at`

type accountRepo struct {
	q querier
}

func (r accountRepo) ListByOwner(ctx context.Context, ownerID string) ([]ledger.Account, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]ledger.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (r accountRepo) Get(ctx context.Context, accountID, ownerID string) (ledger.Account, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2`,
		accountID, ownerID,
	)
	return accountOrNotFound(row, accountID)
}

func (r accountRepo) GetForUpdate(ctx context.Context, accountID, ownerID string) (ledger.Account, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		accountID, ownerID,
	)
	return accountOrNotFound(row, accountID)
}

func (r accountRepo) Create(ctx context.Context, acct ledger.Account) (ledger.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO accounts (id, owner_id, name, type, balance, currency, is_active,
			daily_limit, weekly_limit, monthly_limit, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			COALESCE($11, NOW()), COALESCE($12, NOW()))
		 RETURNING `+accountColumns,
		acct.ID, acct.OwnerID, acct.Name, acct.Type, acct.Balance, acct.Currency, acct.IsActive,
		nullLimit(acct.Controls.DailyLimit), nullLimit(acct.Controls.WeeklyLimit), nullLimit(acct.Controls.MonthlyLimit),
		nullTime(acct.CreatedAt), nullTime(acct.UpdatedAt),
	)
	return scanAccount(row)
}

func (r accountRepo) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.q.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1 RETURNING balance`,
		accountID, delta,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ledger.NotFoundf("account %s not found", accountID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("adjust balance of %s: %w", accountID, err)
	}
	return balance, nil
}

func (r accountRepo) UpdateControls(ctx context.Context, accountID, ownerID string, isActive bool, controls ledger.Controls) (ledger.Account, error) {
	row := r.q.QueryRow(ctx,
		`UPDATE accounts
		 SET is_active = $3, daily_limit = $4, weekly_limit = $5, monthly_limit = $6, updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+accountColumns,
		accountID, ownerID, isActive,
		nullLimit(controls.DailyLimit), nullLimit(controls.WeeklyLimit), nullLimit(controls.MonthlyLimit),
	)
	return accountOrNotFound(row, accountID)
}

func accountOrNotFound(row pgx.Row, accountID string) (ledger.Account, error) {
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, ledger.NotFoundf("account %s not found", accountID)
	}
	return acct, err
}

func scanAccount(row rowScanner) (ledger.Account, error) {
	var (
		acct                   ledger.Account
		daily, weekly, monthly decimal.NullDecimal
	)
	err := row.Scan(
		&acct.ID, &acct.OwnerID, &acct.Name, &acct.Type, &acct.Balance, &acct.Currency, &acct.IsActive,
		&daily, &weekly, &monthly, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return ledger.Account{}, err
	}
	acct.Controls = ledger.Controls{
		DailyLimit:   limitOf(daily),
		WeeklyLimit:  limitOf(weekly),
		MonthlyLimit: limitOf(monthly),
	}
	return acct, nil
}

func nullLimit(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func limitOf(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
