package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/raidmate/raidmate-backend/internal/authctx"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/models"
	"github.com/raidmate/raidmate-backend/internal/services"
)

type PartyHandler struct {
	parties *services.PartyService
}

func NewPartyHandler(parties *services.PartyService) *PartyHandler {
	return &PartyHandler{parties: parties}
}

func (h *PartyHandler) Create(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreatePartyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	party, err := h.parties.Create(callerID, req.Name, models.PartyVisibility(req.Visibility))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPartyResponse(party))
}

func (h *PartyHandler) Join(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	member, err := h.parties.Join(partyID, callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *PartyHandler) Leave(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	if err := h.parties.Leave(partyID, callerID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left party"})
}

func (h *PartyHandler) Kick(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	var req dto.KickMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.parties.Kick(partyID, callerID, req.UserID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member kicked"})
}

func (h *PartyHandler) TransferOwnership(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	var req dto.TransferOwnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.parties.TransferOwnership(partyID, callerID, req.NewOwnerID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ownership transferred"})
}

func (h *PartyHandler) Delete(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	if err := h.parties.DeleteOwned(partyID, callerID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Party deleted"})
}

func (h *PartyHandler) ListMembers(c *fiber.Ctx) error {
	if _, err := authctx.UserID(c); err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	party, members, err := h.parties.ListMembers(partyID)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]dto.PartyMemberResponse, len(members))
	for i, m := range members {
		items[i] = dto.PartyMemberResponse{
			UserID:   m.UserID,
			Subparty: m.Subparty,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
			LeftAt:   m.LeftAt,
			IsOwner:  m.UserID == party.OwnerID && m.Active(),
		}
	}
	return c.JSON(dto.PartyMembersResponse{
		PartyID: party.ID,
		Name:    party.Name,
		OwnerID: party.OwnerID,
		Members: items,
	})
}

func (h *PartyHandler) SetAssignment(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid party ID")
	}

	var req dto.SetAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	member, err := h.parties.SetAssignment(partyID, callerID, req.UserID, req.Subparty, req.Role)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(member)
}

func (h *PartyHandler) ListPublic(c *fiber.Ctx) error {
	if _, err := authctx.UserID(c); err != nil {
		return unauthorized(c)
	}

	limit, offset := pageParams(c)
	parties, total, err := h.parties.ListPublic(limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]dto.PartyResponse, len(parties))
	for i := range parties {
		items[i] = toPartyResponse(&parties[i])
	}
	return c.JSON(dto.PartyListResponse{
		Parties: items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *PartyHandler) ListMine(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	parties, err := h.parties.ListForUser(callerID)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]dto.PartyResponse, len(parties))
	for i := range parties {
		items[i] = toPartyResponse(&parties[i])
	}
	return c.JSON(fiber.Map{"parties": items})
}

func toPartyResponse(p *models.Party) dto.PartyResponse {
	return dto.PartyResponse{
		ID:         p.ID,
		Name:       p.Name,
		OwnerID:    p.OwnerID,
		Visibility: string(p.Visibility),
		CreatedAt:  p.CreatedAt,
	}
}
