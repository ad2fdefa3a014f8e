package handlers

import (
	"github.com/chaesueryong/badminton-sub001/middleware"
	"github.com/chaesueryong/badminton-sub001/services"
	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, ledgerService *services.LedgerService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/wallets/me", ledgerService.GetMyWallet)
	secured.Get("/wallets/me/transactions", ledgerService.GetMyTransactions)
}
