package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/services"
)

// serviceError maps the engines' sentinel errors onto HTTP statuses so UI
// layers can tell "already friends" from "blocked" from "party full".
// Unrecognized errors are treated as storage failures.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrSelfFriendRequest),
		errors.Is(err, services.ErrSelfBlock),
		errors.Is(err, services.ErrSelfInvite),
		errors.Is(err, services.ErrKickSelf),
		errors.Is(err, services.ErrPartyNameRequired),
		errors.Is(err, services.ErrInvalidVisibility),
		errors.Is(err, services.ErrInvalidSubparty),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrNewOwnerNotMember):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFriendshipParty),
		errors.Is(err, services.ErrNotPartyOwner),
		errors.Is(err, services.ErrNotInvitee),
		errors.Is(err, services.ErrPartyPrivate):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrFriendshipNotFound),
		errors.Is(err, services.ErrPartyNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrFriendshipExists),
		errors.Is(err, services.ErrAlreadyBlocked),
		errors.Is(err, services.ErrBlocked),
		errors.Is(err, services.ErrNotFriends),
		errors.Is(err, services.ErrRequestNotPending),
		errors.Is(err, services.ErrInviteNotPending),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyInvited),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrPartyFull),
		errors.Is(err, services.ErrOwnerCannotLeave):
		status = fiber.StatusConflict
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error("unhandled service error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
