package funds

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/api/middleware"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func FundHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse fund schema
		var fund = FundSchema{}
		if err := c.Bind().Body(&fund); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&fund); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		tx, err := svc.Fund(c.RequestCtx(), ledger.FundRequest{
			AccountID: fund.AccountID,
			OwnerID:   middleware.OwnerID(c),
			Amount:    *fund.Amount,
			Source:    fund.Source,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}

		return c.JSON(FundResponseSchema{Success: true, Transaction: tx})
	}
}

func TransferHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse transfer schema
		var transfer = TransferSchema{}
		if err := c.Bind().Body(&transfer); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&transfer); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		res, err := svc.Transfer(c.RequestCtx(), ledger.TransferRequest{
			FromAccountID: transfer.FromAccountID,
			ToAccountID:   transfer.ToAccountID,
			OwnerID:       middleware.OwnerID(c),
			Amount:        *transfer.Amount,
			Note:          transfer.Note,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}

		return c.JSON(TransferResponseSchema{
			Success: true,
			Debit:   res.Debit,
			Credit:  res.Credit,
		})
	}
}
