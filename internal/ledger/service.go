package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Recorder receives one observation per service call.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

type Option func(*Service)

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) { s.log = log }
}

func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.rec = rec }
}

// WithClock overrides time.Now for timestamps and limit windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs the money-movement operations over a Store. Validation always
// happens before the unit of work starts; inside it, account rows are locked
// before balances are checked and adjusted.
type Service struct {
	store Store
	log   *logrus.Entry
	rec   Recorder
	now   func() time.Time
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		s.log = logrus.NewEntry(l)
	}
	return s
}

type CreateAccountInput struct {
	Name     string
	Type     string
	Currency string
}

// ControlsUpdate changes only the fields that are set. ClearLimits drops all
// limits before the new ones are applied.
type ControlsUpdate struct {
	IsActive     *bool
	DailyLimit   *decimal.Decimal
	WeeklyLimit  *decimal.Decimal
	MonthlyLimit *decimal.Decimal
	ClearLimits  bool
}

type FundRequest struct {
	AccountID string
	OwnerID   string
	Amount    decimal.Decimal
	Source    string
}

type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	OwnerID       string
	Amount        decimal.Decimal
	Note          string
}

// TransferResult holds the two rows a transfer appends.
type TransferResult struct {
	Debit  Transaction `json:"debit"`
	Credit Transaction `json:"credit"`
}

type ChargeRequest struct {
	AccountID    string
	OwnerID      string
	Amount       decimal.Decimal
	Description  string
	Category     string
	Counterparty string
	Metadata     Metadata
}

type StakeRequest struct {
	OwnerID        string
	Asset          string
	Amount         decimal.Decimal
	APY            decimal.Decimal
	LockPeriodDays int
}

func (s *Service) ListAccounts(ctx context.Context, ownerID string) (accts []Account, err error) {
	defer s.track("list_accounts", time.Now(), &err, logrus.Fields{"owner": ownerID})

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	accts, err = s.store.Repos().Accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID, ownerID string) (acct Account, err error) {
	defer s.track("get_account", time.Now(), &err, logrus.Fields{"owner": ownerID, "account": accountID})

	if err := requireOwner(ownerID); err != nil {
		return Account{}, err
	}
	acct, err = s.store.Repos().Accounts.Get(ctx, accountID, ownerID)
	if err != nil {
		return Account{}, withMessage(err, "Account not found")
	}
	return acct, nil
}

func (s *Service) CreateAccount(ctx context.Context, ownerID string, in CreateAccountInput) (acct Account, err error) {
	defer s.track("create_account", time.Now(), &err, logrus.Fields{"owner": ownerID})

	if err := requireOwner(ownerID); err != nil {
		return Account{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Account{}, invalid("Account name is required")
	}
	kind := strings.TrimSpace(in.Type)
	if kind == "" {
		kind = "checking"
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	now := s.now().UTC()
	acct, err = s.store.Repos().Accounts.Create(ctx, Account{
		OwnerID:   ownerID,
		Name:      name,
		Type:      kind,
		Balance:   decimal.Zero,
		Currency:  currency,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return acct, nil
}

// UpdateControls freezes/unfreezes an account and sets its spending limits.
// It never touches the balance.
func (s *Service) UpdateControls(ctx context.Context, accountID, ownerID string, upd ControlsUpdate) (acct Account, err error) {
	defer s.track("update_controls", time.Now(), &err, logrus.Fields{"owner": ownerID, "account": accountID})

	if err := requireOwner(ownerID); err != nil {
		return Account{}, err
	}
	for _, limit := range []*decimal.Decimal{upd.DailyLimit, upd.WeeklyLimit, upd.MonthlyLimit} {
		if limit != nil && limit.IsNegative() {
			return Account{}, invalid("Limits cannot be negative")
		}
	}

	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		current, err := r.Accounts.GetForUpdate(ctx, accountID, ownerID)
		if err != nil {
			return withMessage(err, "Account not found")
		}

		active := current.IsActive
		if upd.IsActive != nil {
			active = *upd.IsActive
		}
		controls := current.Controls
		if upd.ClearLimits {
			controls = Controls{}
		}
		if upd.DailyLimit != nil {
			controls.DailyLimit = upd.DailyLimit
		}
		if upd.WeeklyLimit != nil {
			controls.WeeklyLimit = upd.WeeklyLimit
		}
		if upd.MonthlyLimit != nil {
			controls.MonthlyLimit = upd.MonthlyLimit
		}

		acct, err = r.Accounts.UpdateControls(ctx, accountID, ownerID, active, controls)
		if err != nil {
			return fmt.Errorf("update controls: %w", err)
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

// TotalBalance sums the balances of the owner's accounts held in currency
// (DefaultCurrency when empty). Accounts in other currencies are left out.
func (s *Service) TotalBalance(ctx context.Context, ownerID, currency string) (total decimal.Decimal, err error) {
	defer s.track("total_balance", time.Now(), &err, logrus.Fields{"owner": ownerID, "currency": currency})

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	accts, err := s.ListAccounts(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	total = decimal.Zero
	for _, a := range accts {
		if a.Currency == currency {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

func (s *Service) ListTransactions(ctx context.Context, ownerID string, filter TransactionFilter) (txs []Transaction, err error) {
	defer s.track("list_transactions", time.Now(), &err, logrus.Fields{"owner": ownerID, "type": filter.Type})

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalid(fmt.Sprintf("Unknown transaction type %q", filter.Type))
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("Limit and offset cannot be negative")
	}
	txs, err = s.store.Repos().Transactions.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Fund credits an account from an outside source and records one deposit.
func (s *Service) Fund(ctx context.Context, req FundRequest) (tx Transaction, err error) {
	defer s.track("fund", time.Now(), &err, logrus.Fields{
		"owner": req.OwnerID, "account": req.AccountID, "amount": req.Amount.String(),
	})

	if err := requireOwner(req.OwnerID); err != nil {
		return Transaction{}, err
	}
	if err := requirePositive(req.Amount); err != nil {
		return Transaction{}, err
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "external"
	}

	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		acct, err := r.Accounts.GetForUpdate(ctx, req.AccountID, req.OwnerID)
		if err != nil {
			return withMessage(err, "Account not found")
		}
		if !acct.IsActive {
			return inactive("Account is frozen")
		}

		if _, err := r.Accounts.AdjustBalance(ctx, acct.ID, req.Amount); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		tx, err = r.Transactions.Append(ctx, Transaction{
			AccountID:    acct.ID,
			UserID:       req.OwnerID,
			Type:         TxDeposit,
			Amount:       req.Amount,
			Currency:     acct.Currency,
			Description:  "Deposit from " + source,
			Category:     "Deposit",
			Counterparty: source,
			Status:       StatusCompleted,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("append deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Transfer moves amount between two accounts of the same owner. The source
// balance is checked after both rows are locked, so concurrent transfers
// cannot overdraw it.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (res TransferResult, err error) {
	defer s.track("transfer", time.Now(), &err, logrus.Fields{
		"owner": req.OwnerID, "from": req.FromAccountID, "to": req.ToAccountID, "amount": req.Amount.String(),
	})

	if err := requireOwner(req.OwnerID); err != nil {
		return TransferResult{}, err
	}
	if err := requirePositive(req.Amount); err != nil {
		return TransferResult{}, err
	}
	if req.FromAccountID == "" || req.ToAccountID == "" {
		return TransferResult{}, invalid("Source and destination accounts are required")
	}
	if req.FromAccountID == req.ToAccountID {
		return TransferResult{}, invalid("Cannot transfer to the same account")
	}

	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		locked := make(map[string]Account, 2)
		for _, id := range lockOrder(req.FromAccountID, req.ToAccountID) {
			acct, err := r.Accounts.GetForUpdate(ctx, id, req.OwnerID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("lock account %s: %w", id, err)
			}
			locked[id] = acct
		}
		from, ok := locked[req.FromAccountID]
		if !ok {
			return notFound("Source account not found")
		}
		to, ok := locked[req.ToAccountID]
		if !ok {
			return notFound("Destination account not found")
		}

		if !from.IsActive {
			return inactive("Source account is frozen")
		}
		if !to.IsActive {
			return inactive("Destination account is frozen")
		}
		if from.Currency != to.Currency {
			return invalid("Accounts must share a currency")
		}
		if from.Balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}
		if err := s.checkLimits(ctx, r, from, req.Amount); err != nil {
			return err
		}

		if _, err := r.Accounts.AdjustBalance(ctx, from.ID, req.Amount.Neg()); err != nil {
			return fmt.Errorf("debit source: %w", err)
		}
		if _, err := r.Accounts.AdjustBalance(ctx, to.ID, req.Amount); err != nil {
			return fmt.Errorf("credit destination: %w", err)
		}

		var meta Metadata
		if note := strings.TrimSpace(req.Note); note != "" {
			meta = Metadata{"note": note}
		}
		now := s.now().UTC()

		var err error
		res.Debit, err = r.Transactions.Append(ctx, Transaction{
			AccountID:   from.ID,
			UserID:      req.OwnerID,
			Type:        TxTransfer,
			Amount:      req.Amount.Neg(),
			Currency:    from.Currency,
			Description: "Transfer to " + to.Name,
			Category:    "Transfer",
			Status:      StatusCompleted,
			Metadata:    meta,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append debit: %w", err)
		}
		res.Credit, err = r.Transactions.Append(ctx, Transaction{
			AccountID:   to.ID,
			UserID:      req.OwnerID,
			Type:        TxTransfer,
			Amount:      req.Amount,
			Currency:    to.Currency,
			Description: "Transfer from " + from.Name,
			Category:    "Transfer",
			Status:      StatusCompleted,
			Metadata:    CloneMetadata(meta),
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append credit: %w", err)
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

// Charge debits an account for a purchase and records one withdrawal with the
// caller's metadata passed through untouched.
func (s *Service) Charge(ctx context.Context, req ChargeRequest) (tx Transaction, err error) {
	defer s.track("charge", time.Now(), &err, logrus.Fields{
		"owner": req.OwnerID, "account": req.AccountID, "amount": req.Amount.String(),
	})

	if err := requireOwner(req.OwnerID); err != nil {
		return Transaction{}, err
	}
	if err := requirePositive(req.Amount); err != nil {
		return Transaction{}, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Withdrawal"
	}

	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		acct, err := r.Accounts.GetForUpdate(ctx, req.AccountID, req.OwnerID)
		if err != nil {
			return withMessage(err, "Account not found")
		}
		if !acct.IsActive {
			return inactive("Account is frozen")
		}
		if acct.Balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}
		if err := s.checkLimits(ctx, r, acct, req.Amount); err != nil {
			return err
		}

		if _, err := r.Accounts.AdjustBalance(ctx, acct.ID, req.Amount.Neg()); err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		tx, err = r.Transactions.Append(ctx, Transaction{
			AccountID:    acct.ID,
			UserID:       req.OwnerID,
			Type:         TxWithdrawal,
			Amount:       req.Amount.Neg(),
			Currency:     acct.Currency,
			Description:  description,
			Category:     strings.TrimSpace(req.Category),
			Counterparty: strings.TrimSpace(req.Counterparty),
			Status:       StatusCompleted,
			Metadata:     CloneMetadata(req.Metadata),
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("append withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Stake opens an active position. Principal is tracked on the position only;
// no account is debited.
func (s *Service) Stake(ctx context.Context, req StakeRequest) (pos StakingPosition, err error) {
	defer s.track("stake", time.Now(), &err, logrus.Fields{
		"owner": req.OwnerID, "asset": req.Asset, "amount": req.Amount.String(),
	})

	if err := requireOwner(req.OwnerID); err != nil {
		return StakingPosition{}, err
	}
	if err := requirePositive(req.Amount); err != nil {
		return StakingPosition{}, err
	}
	if req.APY.IsNegative() {
		return StakingPosition{}, invalid("APY cannot be negative")
	}
	if req.LockPeriodDays < 0 {
		return StakingPosition{}, invalid("Lock period cannot be negative")
	}
	asset := strings.ToUpper(strings.TrimSpace(req.Asset))
	if asset == "" {
		asset = DefaultCurrency
	}

	now := s.now().UTC()
	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		var err error
		pos, err = r.Positions.Insert(ctx, StakingPosition{
			UserID:     req.OwnerID,
			Asset:      asset,
			Amount:     req.Amount,
			APY:        req.APY,
			Earned:     decimal.Zero,
			LockPeriod: req.LockPeriodDays,
			StartDate:  now,
			EndDate:    now.AddDate(0, 0, req.LockPeriodDays),
			Status:     PositionActive,
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("open position: %w", err)
		}
		return nil
	})
	if err != nil {
		return StakingPosition{}, err
	}
	return pos, nil
}

// Unstake completes an active position. Principal is not returned to any
// account and earned yield is left as it is.
func (s *Service) Unstake(ctx context.Context, positionID, ownerID string) (pos StakingPosition, err error) {
	defer s.track("unstake", time.Now(), &err, logrus.Fields{"owner": ownerID, "position": positionID})

	if err := requireOwner(ownerID); err != nil {
		return StakingPosition{}, err
	}
	err = s.store.Do(ctx, func(ctx context.Context, r Repos) error {
		var err error
		pos, err = r.Positions.Complete(ctx, positionID, ownerID)
		if err != nil {
			return withMessage(err, "Staking position not found")
		}
		return nil
	})
	if err != nil {
		return StakingPosition{}, err
	}
	return pos, nil
}

func (s *Service) StakingSummary(ctx context.Context, ownerID string) (sum StakingSummary, err error) {
	defer s.track("staking_summary", time.Now(), &err, logrus.Fields{"owner": ownerID})

	if err := requireOwner(ownerID); err != nil {
		return StakingSummary{}, err
	}
	positions, err := s.store.Repos().Positions.ListByOwner(ctx, ownerID)
	if err != nil {
		return StakingSummary{}, fmt.Errorf("list positions: %w", err)
	}
	return Summarize(positions), nil
}

var limitWindows = []struct {
	name  string
	span  time.Duration
	limit func(Controls) *decimal.Decimal
}{
	{"Daily", 24 * time.Hour, func(c Controls) *decimal.Decimal { return c.DailyLimit }},
	{"Weekly", 7 * 24 * time.Hour, func(c Controls) *decimal.Decimal { return c.WeeklyLimit }},
	{"Monthly", 30 * 24 * time.Hour, func(c Controls) *decimal.Decimal { return c.MonthlyLimit }},
}

// checkLimits rejects an outflow that would push the account past any of its
// rolling spending limits.
func (s *Service) checkLimits(ctx context.Context, r Repos, acct Account, amount decimal.Decimal) error {
	now := s.now().UTC()
	for _, w := range limitWindows {
		limit := w.limit(acct.Controls)
		if limit == nil {
			continue
		}
		spent, err := r.Transactions.SumOutflows(ctx, acct.ID, now.Add(-w.span))
		if err != nil {
			return fmt.Errorf("sum outflows: %w", err)
		}
		if spent.Add(amount).GreaterThan(*limit) {
			return &Error{
				Kind:    KindLimitExceeded,
				Message: fmt.Sprintf("%s spending limit of %s exceeded", w.name, limit.StringFixed(2)),
			}
		}
	}
	return nil
}

var readOnly = map[string]bool{
	"list_accounts":     true,
	"get_account":       true,
	"total_balance":     true,
	"list_transactions": true,
	"staking_summary":   true,
}

// track classifies the returned error, records the outcome and logs it.
func (s *Service) track(op string, start time.Time, errp *error, fields logrus.Fields) {
	*errp = classify(*errp)
	err := *errp

	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	if s.rec != nil {
		s.rec.ObserveOperation(op, outcome, time.Since(start))
	}

	entry := s.log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil && readOnly[op]:
		entry.Debug("ledger read completed")
	case err == nil:
		entry.Info("ledger operation committed")
	case KindOf(err) == KindInternal:
		entry.WithError(err).Error("ledger operation failed")
	default:
		entry.WithField("reason", outcome).Debug("ledger operation rejected")
	}
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalid("Owner id is required")
	}
	return nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("Amount must be greater than zero")
	}
	return nil
}

func inactive(msg string) *Error {
	return &Error{Kind: KindAccountInactive, Message: msg}
}

// withMessage rewrites a NotFound from a store into the caller-facing message
// and passes every other error through.
func withMessage(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(msg)
	}
	return err
}

// lockOrder returns the two ids sorted so every transfer takes row locks in
// the same order.
func lockOrder(a, b string) []string {
	if b < a {
		return []string{b, a}
	}
	return []string{a, b}
}
