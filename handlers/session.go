package handlers

import (
	"github.com/chaesueryong/badminton-sub001/middleware"
	"github.com/chaesueryong/badminton-sub001/services"
	"github.com/gofiber/fiber/v2"
)

func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService, invitationService *services.InvitationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Session lifecycle
	secured.Post("/sessions", sessionService.CreateSession)
	secured.Get("/sessions", sessionService.ListSessions)
	secured.Get("/sessions/:id", sessionService.GetSession)
	secured.Post("/sessions/:id/join", sessionService.JoinSession)
	secured.Post("/sessions/:id/complete", sessionService.CompleteSession)
	secured.Post("/sessions/:id/cancel", sessionService.CancelSession)
	secured.Delete("/sessions/:id", sessionService.DeleteSession)

	// Player lookup for the invite flow
	secured.Get("/players/search", sessionService.SearchPlayers)

	// Invitations
	secured.Post("/sessions/:id/invite", invitationService.InviteToSession)
	secured.Patch("/invitations/:id", invitationService.RespondToInvitation)
	secured.Get("/users/me/invitations", invitationService.GetMyInvitations)
}
