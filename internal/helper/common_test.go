package helper

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func TestGetPage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Limit: 50, Offset: 0}},
		{"?limit=10&page=3", Page{Limit: 10, Offset: 20}},
		{"?limit=1000", Page{Limit: 100, Offset: 0}},
		{"?limit=0&page=0", Page{Limit: 1, Offset: 0}},
		{"?limit=abc&page=-2", Page{Limit: 1, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got Page
			app := fiber.New()
			app.Get("/", func(c fiber.Ctx) error {
				got = GetPage(c)
				return nil
			})
			_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(ledger.KindInvalidInput))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(ledger.KindInsufficientBalance))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(ledger.KindLimitExceeded))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(ledger.KindNotFound))
	assert.Equal(t, fiber.StatusConflict, StatusFor(ledger.KindAccountInactive))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(ledger.KindInternal))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ledger error", ledger.ErrInsufficientBalance, fiber.StatusBadRequest, `{"error":"Insufficient balance"}`},
		{"wrapped ledger error", fmt.Errorf("transfer: %w", ledger.ErrAccountInactive), fiber.StatusConflict, `{"error":"Account is frozen"}`},
		{"unknown error", errors.New("pq: connection reset"), fiber.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"fiber error", fiber.ErrBadRequest, fiber.StatusBadRequest, `{"error":"Bad Request"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, tt.body, string(raw))
		})
	}
}

func TestValidateInput(t *testing.T) {
	type input struct {
		Name string `validate:"required,max=5"`
	}
	assert.NoError(t, ValidateInput(&input{Name: "ok"}))
	assert.Error(t, ValidateInput(&input{}))
	assert.Error(t, ValidateInput(&input{Name: "too long"}))
}
