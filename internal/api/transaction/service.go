package transaction

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/api/middleware"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// GetTransactionsHandler lists the caller's transactions newest first,
// optionally narrowed by ?type= and ?accountId=.
func GetTransactionsHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		page := helper.GetPage(c)

		txs, err := svc.ListTransactions(c.RequestCtx(), middleware.OwnerID(c), ledger.TransactionFilter{
			Type:      ledger.TransactionType(c.Query("type")),
			AccountID: c.Query("accountId"),
			Limit:     page.Limit,
			Offset:    page.Offset,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(txs)
	}
}

func ChargeHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse charge schema
		var charge = ChargeSchema{}
		if err := c.Bind().Body(&charge); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&charge); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		tx, err := svc.Charge(c.RequestCtx(), ledger.ChargeRequest{
			AccountID:    charge.AccountID,
			OwnerID:      middleware.OwnerID(c),
			Amount:       *charge.Amount,
			Description:  charge.Description,
			Category:     charge.Category,
			Counterparty: charge.Counterparty,
			Metadata:     charge.Metadata,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(tx)
	}
}
