package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/raidmate/raidmate-backend/internal/config"
	"github.com/raidmate/raidmate-backend/internal/handlers"
	"github.com/raidmate/raidmate-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	friendHandler *handlers.FriendHandler,
	partyHandler *handlers.PartyHandler,
	inviteHandler *handlers.InviteHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Everything below requires a caller identity.
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/users/me", authHandler.Me)
	protected.Put("/users/me/display-name", authHandler.UpdateDisplayName)
	protected.Get("/users", authHandler.SearchUsers)

	protected.Get("/friends", friendHandler.List)
	protected.Post("/friends/requests", friendHandler.SendRequest)
	protected.Post("/friends/:id/accept", friendHandler.Accept)
	protected.Post("/friends/:id/decline", friendHandler.Decline)
	protected.Post("/friends/:id/cancel", friendHandler.Cancel)
	protected.Delete("/friends/:id", friendHandler.Delete)
	protected.Put("/friends/:id/memo", friendHandler.SetMemo)

	protected.Get("/blocks", friendHandler.ListBlocked)
	protected.Post("/blocks", friendHandler.Block)
	protected.Delete("/blocks/:id", friendHandler.Unblock)

	protected.Get("/parties", partyHandler.ListPublic)
	protected.Get("/parties/mine", partyHandler.ListMine)
	protected.Post("/parties", partyHandler.Create)
	protected.Get("/parties/:id/members", partyHandler.ListMembers)
	protected.Post("/parties/:id/join", partyHandler.Join)
	protected.Post("/parties/:id/leave", partyHandler.Leave)
	protected.Post("/parties/:id/kick", partyHandler.Kick)
	protected.Post("/parties/:id/transfer", partyHandler.TransferOwnership)
	protected.Put("/parties/:id/assignment", partyHandler.SetAssignment)
	protected.Delete("/parties/:id", partyHandler.Delete)

	protected.Get("/invites", inviteHandler.ListMine)
	protected.Get("/parties/:id/invites", inviteHandler.ListForParty)
	protected.Post("/parties/:id/invites", inviteHandler.Create)
	protected.Post("/invites/:id/accept", inviteHandler.Accept)
	protected.Post("/invites/:id/decline", inviteHandler.Decline)
	protected.Post("/invites/:id/cancel", inviteHandler.Cancel)
}
