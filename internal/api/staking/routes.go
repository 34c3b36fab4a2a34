package staking

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func InitializeRoutes(router fiber.Router, svc *ledger.Service) {
	router.Get("/v1/staking", GetStakingSummaryHandler(svc))
	router.Post("/v1/staking", StakeHandler(svc))
	router.Patch("/v1/staking/:id", UnstakeHandler(svc))
}
