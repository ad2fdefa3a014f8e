package handlers

import (
	"github.com/chaesueryong/badminton-sub001/middleware"
	"github.com/chaesueryong/badminton-sub001/services"
	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	// Leaderboards are public reads; gateway auth still applies globally.
	app.Get("/leaderboard/:discipline", leaderboardService.GetLeaderboardHandler)

	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/users/me/ratings", leaderboardService.GetMyRatingsHandler)
}
