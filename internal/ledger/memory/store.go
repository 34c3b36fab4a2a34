// Package memory is an in-process ledger.Store. It backs demo mode and the
// service tests; all data is lost when the process exits.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

type state struct {
	accounts  map[string]ledger.Account
	txs       []ledger.Transaction
	positions map[string]ledger.StakingPosition
}

// clone copies the maps. Transactions are append-only, so keeping the slice
// header is enough to drop rows appended after the copy was taken.
func (st state) clone() state {
	out := state{
		accounts:  make(map[string]ledger.Account, len(st.accounts)),
		txs:       st.txs[:len(st.txs):len(st.txs)],
		positions: make(map[string]ledger.StakingPosition, len(st.positions)),
	}
	for k, v := range st.accounts {
		out.accounts[k] = v
	}
	for k, v := range st.positions {
		out.positions[k] = v
	}
	return out
}

// Store serialises every unit of work behind one mutex. Reads outside Do take
// the same mutex for their duration.
type Store struct {
	mu sync.Mutex
	st state
}

var _ ledger.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		st: state{
			accounts:  make(map[string]ledger.Account),
			positions: make(map[string]ledger.StakingPosition),
		},
	}
}

func (s *Store) Repos() ledger.Repos {
	return s.repos(false)
}

// Do runs fn with exclusive access to the store. If fn returns an error or
// panics, the state is put back to what it was before fn ran.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r ledger.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(ctx, s.repos(true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) repos(inTx bool) ledger.Repos {
	v := &view{s: s, inTx: inTx}
	return ledger.Repos{
		Accounts:     accountRepo{v},
		Transactions: txRepo{v},
		Positions:    positionRepo{v},
	}
}

// view locks the store unless it already runs inside Do.
type view struct {
	s    *Store
	inTx bool
}

func (v *view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// accounts

type accountRepo struct{ *view }

func (r accountRepo) ListByOwner(_ context.Context, ownerID string) ([]ledger.Account, error) {
	defer r.lock()()

	out := make([]ledger.Account, 0)
	for _, acct := range r.s.st.accounts {
		if acct.OwnerID == ownerID {
			out = append(out, acct)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Account) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r accountRepo) Get(_ context.Context, accountID, ownerID string) (ledger.Account, error) {
	defer r.lock()()
	return r.get(accountID, ownerID)
}

// GetForUpdate is Get: the store mutex already excludes other writers.
func (r accountRepo) GetForUpdate(_ context.Context, accountID, ownerID string) (ledger.Account, error) {
	defer r.lock()()
	return r.get(accountID, ownerID)
}

func (r accountRepo) get(accountID, ownerID string) (ledger.Account, error) {
	acct, ok := r.s.st.accounts[accountID]
	if !ok || acct.OwnerID != ownerID {
		return ledger.Account{}, ledger.NotFoundf("account %s not found", accountID)
	}
	return acct, nil
}

func (r accountRepo) Create(_ context.Context, acct ledger.Account) (ledger.Account, error) {
	defer r.lock()()

	if acct.ID == "" {
		acct.ID = uuid.NewString()
	} else if _, exists := r.s.st.accounts[acct.ID]; exists {
		return ledger.Account{}, fmt.Errorf("account %s already exists", acct.ID)
	}
	now := time.Now().UTC()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	if acct.UpdatedAt.IsZero() {
		acct.UpdatedAt = acct.CreatedAt
	}
	r.s.st.accounts[acct.ID] = acct
	return acct, nil
}

func (r accountRepo) AdjustBalance(_ context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	defer r.lock()()

	acct, ok := r.s.st.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.NotFoundf("account %s not found", accountID)
	}
	next := acct.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("balance of account %s would become negative", accountID)
	}
	acct.Balance = next
	acct.UpdatedAt = time.Now().UTC()
	r.s.st.accounts[acct.ID] = acct
	return next, nil
}

func (r accountRepo) UpdateControls(_ context.Context, accountID, ownerID string, isActive bool, controls ledger.Controls) (ledger.Account, error) {
	defer r.lock()()

	acct, err := r.get(accountID, ownerID)
	if err != nil {
		return ledger.Account{}, err
	}
	acct.IsActive = isActive
	acct.Controls = controls
	acct.UpdatedAt = time.Now().UTC()
	r.s.st.accounts[acct.ID] = acct
	return acct, nil
}

// transactions

type txRepo struct{ *view }

func (r txRepo) Append(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	defer r.lock()()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.Metadata = ledger.CloneMetadata(tx.Metadata)
	r.s.st.txs = append(r.s.st.txs, tx)
	return cloneTx(tx), nil
}

// ListByOwner returns rows newest first; rows with the same timestamp come
// back in reverse insertion order.
func (r txRepo) ListByOwner(_ context.Context, ownerID string, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	defer r.lock()()

	out := make([]ledger.Transaction, 0)
	for i := len(r.s.st.txs) - 1; i >= 0; i-- {
		tx := r.s.st.txs[i]
		if tx.UserID != ownerID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.AccountID != "" && tx.AccountID != filter.AccountID {
			continue
		}
		out = append(out, cloneTx(tx))
	}
	slices.SortStableFunc(out, func(a, b ledger.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r txRepo) SumOutflows(_ context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	defer r.lock()()

	total := decimal.Zero
	for _, tx := range r.s.st.txs {
		if tx.AccountID != accountID || !tx.Amount.IsNegative() || tx.CreatedAt.Before(since) {
			continue
		}
		if tx.Type == ledger.TxTransfer || tx.Type == ledger.TxWithdrawal {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total, nil
}

// staking positions

type positionRepo struct{ *view }

func (r positionRepo) ListByOwner(_ context.Context, ownerID string) ([]ledger.StakingPosition, error) {
	defer r.lock()()

	out := make([]ledger.StakingPosition, 0)
	for _, pos := range r.s.st.positions {
		if pos.UserID == ownerID {
			out = append(out, pos)
		}
	}
	slices.SortFunc(out, func(a, b ledger.StakingPosition) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r positionRepo) Insert(_ context.Context, pos ledger.StakingPosition) (ledger.StakingPosition, error) {
	defer r.lock()()

	if pos.ID == "" {
		pos.ID = uuid.NewString()
	} else if _, exists := r.s.st.positions[pos.ID]; exists {
		return ledger.StakingPosition{}, fmt.Errorf("position %s already exists", pos.ID)
	}
	if pos.CreatedAt.IsZero() {
		pos.CreatedAt = time.Now().UTC()
	}
	r.s.st.positions[pos.ID] = pos
	return pos, nil
}

func (r positionRepo) Complete(_ context.Context, positionID, ownerID string) (ledger.StakingPosition, error) {
	defer r.lock()()

	pos, ok := r.s.st.positions[positionID]
	if !ok || pos.UserID != ownerID || pos.Status != ledger.PositionActive {
		return ledger.StakingPosition{}, ledger.NotFoundf("position %s not found", positionID)
	}
	pos.Status = ledger.PositionCompleted
	r.s.st.positions[pos.ID] = pos
	return pos, nil
}

func cloneTx(tx ledger.Transaction) ledger.Transaction {
	tx.Metadata = ledger.CloneMetadata(tx.Metadata)
	return tx
}
