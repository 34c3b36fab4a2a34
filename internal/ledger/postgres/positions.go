package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

const positionColumns = `id, user_id, asset, amount, apy, earned, lock_period,
	start_date, end_date, status, created_at`

type positionRepo struct {
	q querier
}

func (r positionRepo) ListByOwner(ctx context.Context, ownerID string) ([]ledger.StakingPosition, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+positionColumns+` FROM staking_positions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]ledger.StakingPosition, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (r positionRepo) Insert(ctx context.Context, pos ledger.StakingPosition) (ledger.StakingPosition, error) {
	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO staking_positions (`+positionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
		 RETURNING `+positionColumns,
		pos.ID, pos.UserID, pos.Asset, pos.Amount, pos.APY, pos.Earned, pos.LockPeriod,
		pos.StartDate, pos.EndDate, string(pos.Status), nullTime(pos.CreatedAt),
	)
	return scanPosition(row)
}

// Complete flips the status in one conditional update, so two concurrent
// unstakes of the same position cannot both succeed.
func (r positionRepo) Complete(ctx context.Context, positionID, ownerID string) (ledger.StakingPosition, error) {
	row := r.q.QueryRow(ctx,
		`UPDATE staking_positions SET status = $3
		 WHERE id = $1 AND user_id = $2 AND status = $4
		 RETURNING `+positionColumns,
		positionID, ownerID, string(ledger.PositionCompleted), string(ledger.PositionActive),
	)
	pos, err := scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.StakingPosition{}, ledger.NotFoundf("position %s not found", positionID)
	}
	return pos, err
}

func scanPosition(row rowScanner) (ledger.StakingPosition, error) {
	var (
		pos    ledger.StakingPosition
		status string
	)
	err := row.Scan(
		&pos.ID, &pos.UserID, &pos.Asset, &pos.Amount, &pos.APY, &pos.Earned, &pos.LockPeriod,
		&pos.StartDate, &pos.EndDate, &status, &pos.CreatedAt,
	)
	if err != nil {
		return ledger.StakingPosition{}, err
	}
	pos.Status = ledger.PositionStatus(status)
	return pos, nil
}
