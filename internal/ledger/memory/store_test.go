package memory

import (
	"context"
	"testing"
	"time"
	"unsafe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	ledgertest.RunStoreContract(t, func(t *testing.T) ledger.Store {
		return New()
	})
}

func TestDoRestoresStateOnPanic(t *testing.T) {
	store := New()
	acct := ledgertest.SeedAccount(t, store, "u1", "Main", "10")

	assert.Panics(t, func() {
		_ = store.Do(context.Background(), func(ctx context.Context, r ledger.Repos) error {
			_, err := r.Accounts.AdjustBalance(ctx, acct.ID, decimal.NewFromInt(5))
			require.NoError(t, err)
			panic("unexpected")
		})
	})

	got, err := store.Repos().Accounts.Get(context.Background(), acct.ID, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Balance))
}

func TestDoRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().Do(ctx, func(context.Context, ledger.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// borrowed returns a string sharing memory with a buffer the caller goes on
// to overwrite, the way request path params do.
func borrowed(id string) (string, func()) {
	buf := []byte(id)
	return unsafe.String(&buf[0], len(buf)), func() {
		for i := range buf {
			buf[i] = 'x'
		}
	}
}

func TestWritesDoNotKeepCallerIDs(t *testing.T) {
	store := New()
	ctx := context.Background()
	acct := ledgertest.SeedAccount(t, store, "u1", "Main", "10")
	repos := store.Repos()

	id, reuse := borrowed(acct.ID)
	_, err := repos.Accounts.UpdateControls(ctx, id, "u1", false, ledger.Controls{})
	require.NoError(t, err)
	reuse()

	got, err := repos.Accounts.Get(ctx, acct.ID, "u1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	id, reuse = borrowed(acct.ID)
	err = store.Do(ctx, func(ctx context.Context, r ledger.Repos) error {
		_, err := r.Accounts.AdjustBalance(ctx, id, decimal.NewFromInt(5))
		return err
	})
	require.NoError(t, err)
	reuse()

	got, err = repos.Accounts.Get(ctx, acct.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "15", got.Balance.String())

	pos, err := repos.Positions.Insert(ctx, ledger.StakingPosition{
		UserID: "u1", Asset: "USD", Amount: decimal.NewFromInt(100), APY: decimal.NewFromInt(5),
		Status: ledger.PositionActive, StartDate: time.Now(), EndDate: time.Now(),
	})
	require.NoError(t, err)

	id, reuse = borrowed(pos.ID)
	_, err = repos.Positions.Complete(ctx, id, "u1")
	require.NoError(t, err)
	reuse()

	positions, err := repos.Positions.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, pos.ID, positions[0].ID)
	assert.Equal(t, ledger.PositionCompleted, positions[0].Status)
	_, err = repos.Positions.Insert(ctx, ledger.StakingPosition{ID: pos.ID, UserID: "u1"})
	assert.Error(t, err, "position is still stored under its own id")
}

func TestReadsReturnCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	acct := ledgertest.SeedAccount(t, store, "u1", "Main", "0")

	_, err := store.Repos().Transactions.Append(ctx, ledger.Transaction{
		AccountID: acct.ID,
		UserID:    "u1",
		Type:      ledger.TxWithdrawal,
		Amount:    decimal.NewFromInt(-1),
		Status:    ledger.StatusCompleted,
		Metadata: ledger.Metadata{
			"merchant": "cafe",
			"items":    []any{map[string]any{"name": "Latte"}},
		},
	})
	require.NoError(t, err)

	first, err := store.Repos().Transactions.ListByOwner(ctx, "u1", ledger.TransactionFilter{})
	require.NoError(t, err)
	first[0].Metadata["merchant"] = "tampered"
	first[0].Metadata["items"].([]any)[0].(map[string]any)["name"] = "tampered"

	second, err := store.Repos().Transactions.ListByOwner(ctx, "u1", ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "cafe", second[0].Metadata["merchant"])
	assert.Equal(t, "Latte", second[0].Metadata["items"].([]any)[0].(map[string]any)["name"])
}

func TestDemoSeed(t *testing.T) {
	store := NewDemo()
	ctx := context.Background()

	accts, err := store.Repos().Accounts.ListByOwner(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, accts, 4)
	assert.Equal(t, "acct-kids-004", accts[0].ID)
	assert.Equal(t, "acct-checking-001", accts[3].ID)

	total := decimal.Zero
	for _, a := range accts {
		total = total.Add(a.Balance)
	}
	assert.Equal(t, "26100.75", total.StringFixed(2))

	txs, err := store.Repos().Transactions.ListByOwner(ctx, DemoUserID, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 10)
	assert.Equal(t, "tx-001", txs[0].ID)
	assert.Equal(t, "tx-008", txs[9].ID)

	transfers, err := store.Repos().Transactions.ListByOwner(ctx, DemoUserID, ledger.TransactionFilter{Type: ledger.TxTransfer})
	require.NoError(t, err)
	assert.Len(t, transfers, 2)

	positions, err := store.Repos().Positions.ListByOwner(ctx, DemoUserID)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "stake-002", positions[0].ID)
	assert.Equal(t, "2026-02-14", positions[1].EndDate.Format("2006-01-02"))

	sum := ledger.Summarize(positions)
	assert.Equal(t, "7500", sum.StakedBalance.String())
	assert.Equal(t, "59.58", sum.EarnedTotal.String())
	assert.Equal(t, "6.0667", sum.WeightedAPY.String())
}

func TestDemoSeedIsIsolatedPerStore(t *testing.T) {
	a, b := NewDemo(), NewDemo()
	ctx := context.Background()

	_, err := a.Repos().Accounts.UpdateControls(ctx, "acct-kids-004", DemoUserID, false, ledger.Controls{})
	require.NoError(t, err)

	got, err := b.Repos().Accounts.Get(ctx, "acct-kids-004", DemoUserID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
