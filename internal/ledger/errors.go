package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure for calling code. End users only ever see
// the message.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindInsufficientBalance
	KindAccountInactive
	KindLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindAccountInactive:
		return "account_inactive"
	case KindLimitExceeded:
		return "limit_exceeded"
	default:
		return "internal"
	}
}

// Error is the failure type returned by every ledger operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, ledger.ErrNotFound) regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance, Message: "Insufficient balance"}
	ErrAccountInactive     = &Error{Kind: KindAccountInactive, Message: "Account is frozen"}
	ErrLimitExceeded       = &Error{Kind: KindLimitExceeded, Message: "Spending limit exceeded"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "Internal server error"}
)

func invalid(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// NotFoundf builds a NotFound error; stores use it when a lookup misses.
func NotFoundf(format string, args ...any) *Error {
	return notFound(fmt.Sprintf(format, args...))
}

// KindOf reports the Kind of err. Errors that are not ledger errors are
// internal.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// classify keeps business errors as they are and turns everything else into
// an opaque internal failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}
