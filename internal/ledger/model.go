// Package ledger holds the money-movement core: sub-accounts, the append-only
// transaction ledger and staking positions, plus the service that mutates them
// atomically.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts cross the JSON boundary as numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const DefaultCurrency = "USD"

// Controls are the owner-configured spending limits of an account. A nil
// limit means no limit for that window.
type Controls struct {
	DailyLimit   *decimal.Decimal `json:"dailyLimit,omitempty"`
	WeeklyLimit  *decimal.Decimal `json:"weeklyLimit,omitempty"`
	MonthlyLimit *decimal.Decimal `json:"monthlyLimit,omitempty"`
}

type Account struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"userId"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsActive  bool            `json:"isActive"`
	Controls  Controls        `json:"controls"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxTransfer   TransactionType = "transfer"
	TxStake      TransactionType = "stake"
	TxUnstake    TransactionType = "unstake"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxTransfer, TxStake, TxUnstake:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable balance-affecting event on one account.
// Positive amounts credit the account, negative amounts debit it.
type Transaction struct {
	ID           string            `json:"id"`
	AccountID    string            `json:"accountId"`
	UserID       string            `json:"userId"`
	Type         TransactionType   `json:"type"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description,omitempty"`
	Category     string            `json:"category,omitempty"`
	Counterparty string            `json:"counterparty,omitempty"`
	Status       TransactionStatus `json:"status"`
	Metadata     Metadata          `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// TransactionFilter narrows ListByOwner. Zero values mean "no filter".
type TransactionFilter struct {
	Type      TransactionType
	AccountID string
	Limit     int
	Offset    int
}

type PositionStatus string

const (
	PositionActive    PositionStatus = "active"
	PositionCompleted PositionStatus = "completed"
)

// StakingPosition is principal locked into a yield-bearing position. Amount,
// APY and dates are fixed at creation.
type StakingPosition struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Asset      string          `json:"asset"`
	Amount     decimal.Decimal `json:"amount"`
	APY        decimal.Decimal `json:"apy"`
	Earned     decimal.Decimal `json:"earned"`
	LockPeriod int             `json:"lockPeriod"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	Status     PositionStatus  `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// StakingSummary aggregates an owner's positions.
type StakingSummary struct {
	StakedBalance decimal.Decimal   `json:"stakedBalance"`
	EarnedTotal   decimal.Decimal   `json:"earnedTotal"`
	WeightedAPY   decimal.Decimal   `json:"weightedApy"`
	Positions     []StakingPosition `json:"positions"`
}

// Metadata is an opaque JSON object attached to a transaction by the caller.
// The ledger stores and returns it without looking inside.
type Metadata map[string]any

// CloneMetadata returns a deep copy of m, or nil when m is empty.
func CloneMetadata(m Metadata) Metadata {
	if len(m) == 0 {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case Metadata:
		out := make(Metadata, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
