//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JhonesBR/go-ledger/internal/db"
	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/ledger/ledgertest"
	"github.com/JhonesBR/go-ledger/internal/ledger/postgres"
)

// setupTestDB starts a PostgreSQL container, applies the migrations and
// returns a pool against it.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(url))
	// A second run is a no-op.
	require.NoError(t, db.Migrate(url))

	pool, err := db.NewConnection(ctx, url, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestStoreContract(t *testing.T) {
	pool := setupTestDB(t)

	// Every subtest uses fresh owner ids, so one database serves them all.
	ledgertest.RunStoreContract(t, func(t *testing.T) ledger.Store {
		return postgres.New(pool)
	})
}

func TestBalanceCheckConstraint(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.New(pool)
	ctx := context.Background()
	acct := ledgertest.SeedAccount(t, store, "u1", "Main", "5")

	_, err := store.Repos().Accounts.AdjustBalance(ctx, acct.ID, ledgertest.Dec("-10"))
	require.Error(t, err)

	got, err := store.Repos().Accounts.Get(ctx, acct.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "5", got.Balance.String())
}

func TestServiceOverPostgres(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.New(pool)
	svc := ledger.NewService(store)
	ctx := context.Background()

	from := ledgertest.SeedAccount(t, store, "family", "Checking", "250.00")
	to := ledgertest.SeedAccount(t, store, "family", "Savings", "0")

	res, err := svc.Transfer(ctx, ledger.TransferRequest{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		OwnerID:       "family",
		Amount:        ledgertest.Dec("99.99"),
		Note:          "groceries",
	})
	require.NoError(t, err)
	assert.Equal(t, "groceries", res.Credit.Metadata["note"])

	txs, err := svc.ListTransactions(ctx, "family", ledger.TransactionFilter{Type: ledger.TxTransfer})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "groceries", txs[0].Metadata["note"])

	total, err := svc.TotalBalance(ctx, "family", "")
	require.NoError(t, err)
	assert.Equal(t, "250", total.String())

	pos, err := svc.Stake(ctx, ledger.StakeRequest{OwnerID: "family", Amount: ledgertest.Dec("100"), APY: ledgertest.Dec("4.5"), LockPeriodDays: 14})
	require.NoError(t, err)
	_, err = svc.Unstake(ctx, pos.ID, "family")
	require.NoError(t, err)
	_, err = svc.Unstake(ctx, pos.ID, "family")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
