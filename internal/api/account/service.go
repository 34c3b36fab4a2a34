package account

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/utils/v2"

	"github.com/JhonesBR/go-ledger/internal/api/middleware"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func CreateNewAccountHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse create account schema
		var account = CreateAccountSchema{}
		if err := c.Bind().Body(&account); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&account); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		created, err := svc.CreateAccount(c.RequestCtx(), middleware.OwnerID(c), ledger.CreateAccountInput{
			Name:     account.Name,
			Type:     account.Type,
			Currency: account.Currency,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func GetAccountsHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		accounts, err := svc.ListAccounts(c.RequestCtx(), middleware.OwnerID(c))
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(accounts)
	}
}

func GetAccountByIDHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return fiber.ErrBadRequest
		}

		account, err := svc.GetAccount(c.RequestCtx(), id, middleware.OwnerID(c))
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(account)
	}
}

func GetTotalBalanceHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		currency := strings.ToUpper(c.Query("currency", ledger.DefaultCurrency))
		total, err := svc.TotalBalance(c.RequestCtx(), middleware.OwnerID(c), currency)
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(TotalBalanceResponseSchema{Total: total, Currency: currency})
	}
}

func UpdateControlsHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return fiber.ErrBadRequest
		}

		// Parse controls schema
		var controls = UpdateControlsSchema{}
		if err := c.Bind().Body(&controls); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&controls); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		account, err := svc.UpdateControls(c.RequestCtx(), id, middleware.OwnerID(c), ledger.ControlsUpdate{
			IsActive:     controls.IsActive,
			DailyLimit:   controls.DailyLimit,
			WeeklyLimit:  controls.WeeklyLimit,
			MonthlyLimit: controls.MonthlyLimit,
			ClearLimits:  controls.ClearLimits,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(account)
	}
}
