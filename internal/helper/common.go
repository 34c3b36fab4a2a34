package helper

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

type Page struct {
	Limit  int
	Offset int
}

// GetPage reads ?limit= (default 50, capped at 100) and ?page= (1-based).
func GetPage(c fiber.Ctx) Page {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	} else if limit > 100 {
		limit = 100
	}

	return Page{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

var validate = validator.New()

func ValidateInput(input interface{}) error {
	return validate.Struct(input)
}

// StatusFor maps a ledger failure kind to its HTTP status.
func StatusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindInvalidInput, ledger.KindInsufficientBalance, ledger.KindLimitExceeded:
		return fiber.StatusBadRequest
	case ledger.KindNotFound:
		return fiber.StatusNotFound
	case ledger.KindAccountInactive:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders err as {"error": message}. Internal causes never reach
// the client.
func WriteError(c fiber.Ctx, err error) error {
	var le *ledger.Error
	if !errors.As(err, &le) {
		le = ledger.ErrInternal
	}
	return c.Status(StatusFor(le.Kind)).JSON(fiber.Map{
		"error": le.Message,
	})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}
	return WriteError(c, err)
}
