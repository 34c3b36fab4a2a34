package account

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func InitializeRoutes(router fiber.Router, svc *ledger.Service) {
	router.Get("/v1/accounts", GetAccountsHandler(svc))
	router.Post("/v1/accounts", CreateNewAccountHandler(svc))
	router.Get("/v1/accounts/total", GetTotalBalanceHandler(svc))
	router.Get("/v1/accounts/:id", GetAccountByIDHandler(svc))
	router.Patch("/v1/accounts/:id/controls", UpdateControlsHandler(svc))
}
