package transaction

import (
	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// ChargeSchema is a card or receipt purchase debited from one account.
type ChargeSchema struct {
	AccountID    string           `json:"accountId" validate:"required"`
	Amount       *decimal.Decimal `json:"amount" validate:"required"`
	Description  string           `json:"description" validate:"required,max=200"`
	Category     string           `json:"category" validate:"max=50"`
	Counterparty string           `json:"counterparty" validate:"max=100"`
	Metadata     ledger.Metadata  `json:"metadata" validate:"max=20"`
}
