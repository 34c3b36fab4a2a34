package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountStore persists sub-accounts. Every lookup is scoped by owner.
type AccountStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
	Get(ctx context.Context, accountID, ownerID string) (Account, error)
	// GetForUpdate is Get plus a row lock held until the unit of work ends.
	GetForUpdate(ctx context.Context, accountID, ownerID string) (Account, error)
	Create(ctx context.Context, acct Account) (Account, error)
	// AdjustBalance applies delta with the storage engine's atomic increment
	// and returns the new balance. Callers check sufficiency first.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
	UpdateControls(ctx context.Context, accountID, ownerID string, isActive bool, controls Controls) (Account, error)
}

// TransactionLedger is the append-only record of balance changes.
type TransactionLedger interface {
	Append(ctx context.Context, tx Transaction) (Transaction, error)
	ListByOwner(ctx context.Context, ownerID string, filter TransactionFilter) ([]Transaction, error)
	// SumOutflows returns the absolute total of debit transfer and withdrawal
	// rows on the account created at or after since.
	SumOutflows(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error)
}

// PositionStore persists staking positions.
type PositionStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]StakingPosition, error)
	Insert(ctx context.Context, pos StakingPosition) (StakingPosition, error)
	// Complete moves an active position owned by ownerID to completed. A
	// missing, foreign or already completed position is NotFound.
	Complete(ctx context.Context, positionID, ownerID string) (StakingPosition, error)
}

// Repos groups the stores visible inside one unit of work.
type Repos struct {
	Accounts     AccountStore
	Transactions TransactionLedger
	Positions    PositionStore
}

// Store is a ledger backend. Reads go through Repos; every mutation of a
// money-movement operation runs inside Do, which commits all writes made
// through the given Repos or none of them.
type Store interface {
	Repos() Repos
	Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
