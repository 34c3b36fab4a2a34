package account

import (
	"github.com/shopspring/decimal"
)

type CreateAccountSchema struct {
	Name     string `json:"name" validate:"required,max=100"`
	Type     string `json:"type" validate:"required,max=50"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// UpdateControlsSchema changes only the fields present in the body.
type UpdateControlsSchema struct {
	IsActive     *bool            `json:"isActive"`
	DailyLimit   *decimal.Decimal `json:"dailyLimit"`
	WeeklyLimit  *decimal.Decimal `json:"weeklyLimit"`
	MonthlyLimit *decimal.Decimal `json:"monthlyLimit"`
	ClearLimits  bool             `json:"clearLimits"`
}

type TotalBalanceResponseSchema struct {
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}
