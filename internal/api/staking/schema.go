package staking

import (
	"github.com/shopspring/decimal"
)

type StakeSchema struct {
	Asset      string           `json:"asset" validate:"omitempty,max=10"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
	APY        *decimal.Decimal `json:"apy" validate:"required"`
	LockPeriod *int             `json:"lockPeriod" validate:"required,min=0,max=3650"`
}
