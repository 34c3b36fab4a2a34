package transaction

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func InitializeRoutes(router fiber.Router, svc *ledger.Service) {
	router.Get("/v1/transactions", GetTransactionsHandler(svc))
	router.Post("/v1/transactions", ChargeHandler(svc))
}
