package funds

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func InitializeRoutes(router fiber.Router, svc *ledger.Service) {
	router.Post("/v1/fund", FundHandler(svc))
	router.Post("/v1/transfer", TransferHandler(svc))
}
