package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", notFound("Source account not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	business := invalid("Amount must be greater than zero")
	assert.Same(t, business, classify(fmt.Errorf("ctx: %w", business)))

	cause := errors.New("connection reset")
	got := classify(cause)
	assert.Equal(t, KindInternal, KindOf(got))
	assert.ErrorIs(t, got, cause)

	var le *Error
	assert.ErrorAs(t, got, &le)
	assert.Equal(t, "Internal server error", le.Message)
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInternal:            "internal",
		KindInvalidInput:        "invalid_input",
		KindNotFound:            "not_found",
		KindInsufficientBalance: "insufficient_balance",
		KindAccountInactive:     "account_inactive",
		KindLimitExceeded:       "limit_exceeded",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
