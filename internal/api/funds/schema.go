package funds

import (
	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

type FundSchema struct {
	AccountID string           `json:"accountId" validate:"required"`
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
	Source    string           `json:"source" validate:"max=100"`
}

type FundResponseSchema struct {
	Success     bool               `json:"success"`
	Transaction ledger.Transaction `json:"transaction"`
}

type TransferSchema struct {
	FromAccountID string           `json:"fromAccountId" validate:"required"`
	ToAccountID   string           `json:"toAccountId" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Note          string           `json:"note" validate:"max=280"`
}

type TransferResponseSchema struct {
	Success bool               `json:"success"`
	Debit   ledger.Transaction `json:"debit"`
	Credit  ledger.Transaction `json:"credit"`
}
