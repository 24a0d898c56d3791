package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/raidmate/raidmate-backend/internal/authctx"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/services"
)

type InviteHandler struct {
	invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

func (h *InviteHandler) Create(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	var req dto.CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	invite, err := h.invites.Create(partyID, callerID, req.InviteeID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

func (h *InviteHandler) Accept(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	inviteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid invite ID")
	}

	member, err := h.invites.Accept(inviteID, callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(member)
}

func (h *InviteHandler) Decline(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	inviteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid invite ID")
	}

	invite, err := h.invites.Decline(inviteID, callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(invite)
}

func (h *InviteHandler) Cancel(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	inviteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid invite ID")
	}

	invite, err := h.invites.Cancel(inviteID, callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(invite)
}

func (h *InviteHandler) ListMine(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	invites, err := h.invites.ListForInvitee(callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"invites": invites})
}

func (h *InviteHandler) ListForParty(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	invites, err := h.invites.ListForParty(partyID, callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"invites": invites})
}
