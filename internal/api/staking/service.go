package staking

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/utils/v2"

	"github.com/JhonesBR/go-ledger/internal/api/middleware"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func StakeHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse stake schema
		var stake = StakeSchema{}
		if err := c.Bind().Body(&stake); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&stake); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		position, err := svc.Stake(c.RequestCtx(), ledger.StakeRequest{
			OwnerID:        middleware.OwnerID(c),
			Asset:          stake.Asset,
			Amount:         *stake.Amount,
			APY:            *stake.APY,
			LockPeriodDays: *stake.LockPeriod,
		})
		if err != nil {
			return helper.WriteError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(position)
	}
}

// UnstakeHandler closes an active position. Completed or foreign positions
// answer 404.
func UnstakeHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return fiber.ErrBadRequest
		}

		position, err := svc.Unstake(c.RequestCtx(), id, middleware.OwnerID(c))
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(position)
	}
}

func GetStakingSummaryHandler(svc *ledger.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		summary, err := svc.StakingSummary(c.RequestCtx(), middleware.OwnerID(c))
		if err != nil {
			return helper.WriteError(c, err)
		}
		return c.JSON(summary)
	}
}
