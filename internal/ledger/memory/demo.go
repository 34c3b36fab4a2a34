package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// DemoUserID owns every seeded record.
const DemoUserID = "demo-user-001"

// NewDemo returns a store pre-loaded with a small family: four accounts, ten
// historical transactions and two active staking positions.
func NewDemo() *Store {
	s := New()
	for _, acct := range demoAccounts() {
		s.st.accounts[acct.ID] = acct
	}
	s.st.txs = demoTransactions()
	for _, pos := range demoPositions() {
		s.st.positions[pos.ID] = pos
	}
	return s
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func demoAccounts() []ledger.Account {
	acct := func(id, name, kind, balance, created string) ledger.Account {
		return ledger.Account{
			ID:        id,
			OwnerID:   DemoUserID,
			Name:      name,
			Type:      kind,
			Balance:   decimal.RequireFromString(balance),
			Currency:  ledger.DefaultCurrency,
			IsActive:  true,
			CreatedAt: day(created),
			UpdatedAt: day(created),
		}
	}
	return []ledger.Account{
		acct("acct-checking-001", "Main Checking", "checking", "4825.50", "2025-12-01"),
		acct("acct-savings-002", "Family Savings", "savings", "12340.00", "2025-12-05"),
		acct("acct-invest-003", "Investment Account", "investment", "8750.25", "2025-12-10"),
		acct("acct-kids-004", "Emma's Account", "allowance", "185.00", "2026-01-05"),
	}
}

// demoTransactions is in insertion order; oldest first.
func demoTransactions() []ledger.Transaction {
	tx := func(id, accountID string, kind ledger.TransactionType, amount, description, category, counterparty, created string) ledger.Transaction {
		return ledger.Transaction{
			ID:           id,
			AccountID:    accountID,
			UserID:       DemoUserID,
			Type:         kind,
			Amount:       decimal.RequireFromString(amount),
			Currency:     ledger.DefaultCurrency,
			Description:  description,
			Category:     category,
			Counterparty: counterparty,
			Status:       ledger.StatusCompleted,
			CreatedAt:    at(created),
		}
	}
	return []ledger.Transaction{
		tx("tx-008", "acct-invest-003", ledger.TxDeposit, "1000.00", "Monthly investment contribution", "Investment", "", "2026-02-01 09:00:00"),
		tx("tx-010", "acct-checking-001", ledger.TxDeposit, "150.00", "Venmo from Sarah", "Income", "Sarah M.", "2026-02-08 16:00:00"),
		tx("tx-009", "acct-checking-001", ledger.TxWithdrawal, "-67.83", "Starbucks", "Food & Drink", "Starbucks", "2026-02-09 07:30:00"),
		tx("tx-007", "acct-kids-004", ledger.TxDeposit, "25.00", "Weekly allowance", "Allowance", "", "2026-02-10 08:00:00"),
		tx("tx-006", "acct-checking-001", ledger.TxWithdrawal, "-45.00", "Uber ride", "Transport", "Uber", "2026-02-11 18:45:00"),
		tx("tx-005", "acct-checking-001", ledger.TxTransfer, "-500.00", "Transfer to Family Savings", "Transfer", "", "2026-02-12 11:00:00"),
		tx("tx-004", "acct-savings-002", ledger.TxTransfer, "500.00", "Transfer from Main Checking", "Transfer", "", "2026-02-12 11:00:00"),
		tx("tx-003", "acct-checking-001", ledger.TxWithdrawal, "-12.99", "Netflix subscription", "Subscriptions", "Netflix", "2026-02-13 00:00:00"),
		tx("tx-002", "acct-checking-001", ledger.TxWithdrawal, "-89.50", "Whole Foods Market", "Groceries", "Whole Foods", "2026-02-14 14:30:00"),
		tx("tx-001", "acct-checking-001", ledger.TxDeposit, "3200.00", "Payroll deposit", "Income", "Employer Inc.", "2026-02-15 09:00:00"),
	}
}

func demoPositions() []ledger.StakingPosition {
	pos := func(id, amount, apy, earned string, lock int, start string) ledger.StakingPosition {
		begin := day(start)
		return ledger.StakingPosition{
			ID:         id,
			UserID:     DemoUserID,
			Asset:      ledger.DefaultCurrency,
			Amount:     decimal.RequireFromString(amount),
			APY:        decimal.RequireFromString(apy),
			Earned:     decimal.RequireFromString(earned),
			LockPeriod: lock,
			StartDate:  begin,
			EndDate:    begin.AddDate(0, 0, lock),
			Status:     ledger.PositionActive,
			CreatedAt:  begin,
		}
	}
	return []ledger.StakingPosition{
		pos("stake-001", "5000.00", "5.2", "43.33", 30, "2026-01-15"),
		pos("stake-002", "2500.00", "7.8", "16.25", 90, "2026-02-01"),
	}
}
