// Package ledgertest holds the behaviour every ledger.Store must show. Each
// backend runs the suite from its own tests.
package ledgertest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) ledger.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Dec parses s or panics.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedAccount creates an active USD account holding balance.
func SeedAccount(t *testing.T, store ledger.Store, ownerID, name, balance string) ledger.Account {
	t.Helper()
	acct, err := store.Repos().Accounts.Create(context.Background(), ledger.Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Type:      "checking",
		Balance:   Dec(balance),
		Currency:  ledger.DefaultCurrency,
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	})
	require.NoError(t, err)
	return acct
}

func RunStoreContract(t *testing.T, newStore Factory) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("AdjustBalance", func(t *testing.T) { testAdjustBalance(t, newStore(t)) })
	t.Run("Controls", func(t *testing.T) { testControls(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("SumOutflows", func(t *testing.T) { testSumOutflows(t, newStore(t)) })
	t.Run("Positions", func(t *testing.T) { testPositions(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ConcurrentTransfers", func(t *testing.T) { testConcurrentTransfers(t, newStore(t)) })
}

func testAccounts(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	repo := store.Repos().Accounts

	first := SeedAccount(t, store, owner, "First", "10.00")
	second, err := repo.Create(ctx, ledger.Account{
		OwnerID:   owner,
		Name:      "Second",
		Type:      "savings",
		Balance:   decimal.Zero,
		Currency:  ledger.DefaultCurrency,
		IsActive:  true,
		CreatedAt: base.Add(time.Hour),
		UpdatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, second.ID)

	got, err := repo.Get(ctx, first.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)
	assert.True(t, Dec("10").Equal(got.Balance))

	_, err = repo.Get(ctx, first.ID, "someone-else")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = repo.Get(ctx, uuid.NewString(), owner)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest account first")
	assert.Equal(t, first.ID, list[1].ID)

	none, err := repo.ListByOwner(ctx, "nobody-"+uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testAdjustBalance(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	acct := SeedAccount(t, store, owner, "Main", "100.00")

	err := store.Do(ctx, func(ctx context.Context, r ledger.Repos) error {
		bal, err := r.Accounts.AdjustBalance(ctx, acct.ID, Dec("-40.25"))
		require.NoError(t, err)
		assert.True(t, Dec("59.75").Equal(bal), "got %s", bal)
		return nil
	})
	require.NoError(t, err)

	err = store.Do(ctx, func(ctx context.Context, r ledger.Repos) error {
		_, err := r.Accounts.AdjustBalance(ctx, acct.ID, Dec("-60"))
		return err
	})
	require.Error(t, err, "balance must never go below zero")

	got, err := store.Repos().Accounts.Get(ctx, acct.ID, owner)
	require.NoError(t, err)
	assert.True(t, Dec("59.75").Equal(got.Balance), "got %s", got.Balance)
}

func testControls(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	acct := SeedAccount(t, store, owner, "Main", "1.00")
	daily := Dec("50")

	updated, err := store.Repos().Accounts.UpdateControls(ctx, acct.ID, owner, false, ledger.Controls{DailyLimit: &daily})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.Controls.DailyLimit)
	assert.True(t, daily.Equal(*updated.Controls.DailyLimit))
	assert.Nil(t, updated.Controls.WeeklyLimit)
	assert.True(t, Dec("1").Equal(updated.Balance))

	got, err := store.Repos().Accounts.Get(ctx, acct.ID, owner)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.Controls.DailyLimit)
	assert.Nil(t, got.Controls.MonthlyLimit)

	_, err = store.Repos().Accounts.UpdateControls(ctx, acct.ID, "intruder", true, ledger.Controls{})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func testTransactions(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	a := SeedAccount(t, store, owner, "A", "0")
	b := SeedAccount(t, store, owner, "B", "0")
	ledgerRepo := store.Repos().Transactions

	appendTx := func(acct ledger.Account, kind ledger.TransactionType, amount string, at time.Time, meta ledger.Metadata) ledger.Transaction {
		tx, err := ledgerRepo.Append(ctx, ledger.Transaction{
			AccountID: acct.ID,
			UserID:    owner,
			Type:      kind,
			Amount:    Dec(amount),
			Currency:  ledger.DefaultCurrency,
			Status:    ledger.StatusCompleted,
			Metadata:  meta,
			CreatedAt: at,
		})
		require.NoError(t, err)
		require.NotEmpty(t, tx.ID)
		return tx
	}

	oldest := appendTx(a, ledger.TxDeposit, "10", base, nil)
	receipt := ledger.Metadata{
		"merchant":  "cafe",
		"isReceipt": true,
		"tax":       0.24,
		"items":     []any{map[string]any{"name": "Latte", "price": 2.76}},
	}
	middle := appendTx(b, ledger.TxWithdrawal, "-3", base.Add(time.Minute), receipt)
	newest := appendTx(a, ledger.TxTransfer, "-2", base.Add(2*time.Minute), nil)

	all, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, receipt, all[1].Metadata, "metadata comes back as it went in")
	assert.Nil(t, all[0].Metadata)

	deposits, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{Type: ledger.TxDeposit})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, oldest.ID, deposits[0].ID)

	onA, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{AccountID: a.ID})
	require.NoError(t, err)
	assert.Len(t, onA, 2)

	limited, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newest.ID, limited[0].ID)

	paged, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, middle.ID, paged[0].ID)

	past, err := ledgerRepo.ListByOwner(ctx, owner, ledger.TransactionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)

	foreign, err := ledgerRepo.ListByOwner(ctx, "stranger", ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func testSumOutflows(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	acct := SeedAccount(t, store, owner, "A", "0")

	rows := []struct {
		kind   ledger.TransactionType
		amount string
		at     time.Time
	}{
		{ledger.TxWithdrawal, "-5", base.Add(-48 * time.Hour)},
		{ledger.TxWithdrawal, "-7", base.Add(-time.Hour)},
		{ledger.TxTransfer, "-3", base},
		{ledger.TxTransfer, "4", base},
		{ledger.TxDeposit, "100", base},
	}
	for _, row := range rows {
		_, err := store.Repos().Transactions.Append(ctx, ledger.Transaction{
			AccountID: acct.ID,
			UserID:    owner,
			Type:      row.kind,
			Amount:    Dec(row.amount),
			Currency:  ledger.DefaultCurrency,
			Status:    ledger.StatusCompleted,
			CreatedAt: row.at,
		})
		require.NoError(t, err)
	}

	day, err := store.Repos().Transactions.SumOutflows(ctx, acct.ID, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, Dec("10").Equal(day), "got %s", day)

	week, err := store.Repos().Transactions.SumOutflows(ctx, acct.ID, base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.True(t, Dec("15").Equal(week), "got %s", week)
}

func testPositions(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	repo := store.Repos().Positions

	open := func(amount string, at time.Time) ledger.StakingPosition {
		pos, err := repo.Insert(ctx, ledger.StakingPosition{
			UserID:     owner,
			Asset:      ledger.DefaultCurrency,
			Amount:     Dec(amount),
			APY:        Dec("5"),
			Earned:     decimal.Zero,
			LockPeriod: 30,
			StartDate:  at,
			EndDate:    at.AddDate(0, 0, 30),
			Status:     ledger.PositionActive,
			CreatedAt:  at,
		})
		require.NoError(t, err)
		require.NotEmpty(t, pos.ID)
		return pos
	}
	older := open("100", base)
	newer := open("200", base.Add(time.Hour))

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = repo.Complete(ctx, older.ID, "intruder")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	done, err := repo.Complete(ctx, older.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, ledger.PositionCompleted, done.Status)
	assert.True(t, Dec("100").Equal(done.Amount))

	_, err = repo.Complete(ctx, older.ID, owner)
	assert.ErrorIs(t, err, ledger.ErrNotFound, "completing twice must fail")

	_, err = repo.Complete(ctx, uuid.NewString(), owner)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func testRollback(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	acct := SeedAccount(t, store, owner, "Main", "100")
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, r ledger.Repos) error {
		if _, err := r.Accounts.AdjustBalance(ctx, acct.ID, Dec("-30")); err != nil {
			return err
		}
		if _, err := r.Transactions.Append(ctx, ledger.Transaction{
			AccountID: acct.ID,
			UserID:    owner,
			Type:      ledger.TxWithdrawal,
			Amount:    Dec("-30"),
			Currency:  ledger.DefaultCurrency,
			Status:    ledger.StatusCompleted,
			CreatedAt: base,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Repos().Accounts.Get(ctx, acct.ID, owner)
	require.NoError(t, err)
	assert.True(t, Dec("100").Equal(got.Balance), "balance must be restored, got %s", got.Balance)

	txs, err := store.Repos().Transactions.ListByOwner(ctx, owner, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs, "appended rows must be discarded")
}

// testConcurrentTransfers drives opposing transfers through the service and
// checks that no money is created or lost.
func testConcurrentTransfers(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	a := SeedAccount(t, store, owner, "A", "100")
	b := SeedAccount(t, store, owner, "B", "100")
	svc := ledger.NewService(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, ledger.TransferRequest{
				FromAccountID: from.ID,
				ToAccountID:   to.ID,
				OwnerID:       owner,
				Amount:        Dec("15"),
			})
			if err != nil {
				assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
			}
		}()
	}
	wg.Wait()

	accts, err := store.Repos().Accounts.ListByOwner(ctx, owner)
	require.NoError(t, err)
	total := decimal.Zero
	for _, acct := range accts {
		assert.False(t, acct.Balance.IsNegative())
		total = total.Add(acct.Balance)
	}
	assert.True(t, Dec("200").Equal(total), "got %s", total)
}
