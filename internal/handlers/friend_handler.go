package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/raidmate/raidmate-backend/internal/authctx"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/models"
	"github.com/raidmate/raidmate-backend/internal/services"
)

type FriendHandler struct {
	friends *services.FriendService
	blocks  *services.BlockService
	auth    *services.AuthService
}

func NewFriendHandler(friends *services.FriendService, blocks *services.BlockService, auth *services.AuthService) *FriendHandler {
	return &FriendHandler{friends: friends, blocks: blocks, auth: auth}
}

func (h *FriendHandler) SendRequest(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SendFriendRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	friendship, err := h.friends.SendRequest(callerID, req.TargetID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.toResponse(callerID, friendship))
}

func (h *FriendHandler) Accept(c *fiber.Ctx) error {
	return h.respond(c, h.friends.Accept)
}

func (h *FriendHandler) Decline(c *fiber.Ctx) error {
	return h.respond(c, h.friends.Decline)
}

func (h *FriendHandler) Cancel(c *fiber.Ctx) error {
	return h.respond(c, h.friends.Cancel)
}

func (h *FriendHandler) respond(c *fiber.Ctx, op func(callerID, friendshipID uuid.UUID) (*models.Friendship, error)) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	friendshipID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid friendship ID")
	}

	friendship, err := op(callerID, friendshipID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(h.toResponse(callerID, friendship))
}

func (h *FriendHandler) Delete(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	friendshipID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid friendship ID")
	}

	if err := h.friends.Delete(callerID, friendshipID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend removed"})
}

func (h *FriendHandler) List(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	filter := services.FriendListFilter(c.Query("filter", string(services.FilterAccepted)))
	search := c.Query("search", "")
	limit, offset := pageParams(c)

	friendships, total, err := h.friends.List(callerID, filter, search, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]dto.FriendshipResponse, len(friendships))
	for i := range friendships {
		items[i] = h.toResponse(callerID, &friendships[i])
	}
	return c.JSON(dto.FriendListResponse{
		Friendships: items,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

func (h *FriendHandler) SetMemo(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	friendshipID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid friendship ID")
	}

	var req dto.SetFriendMemoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.friends.SetMemo(callerID, friendshipID, req.Body); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Memo saved"})
}

func (h *FriendHandler) Block(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.blocks.Block(callerID, req.BlockedID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User blocked"})
}

func (h *FriendHandler) Unblock(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	blockedID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.blocks.Unblock(callerID, blockedID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unblocked"})
}

func (h *FriendHandler) ListBlocked(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	blocks, err := h.blocks.ListBlocked(callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"blocks": blocks})
}

func (h *FriendHandler) toResponse(callerID uuid.UUID, f *models.Friendship) dto.FriendshipResponse {
	direction := "outgoing"
	if f.TargetID == callerID {
		direction = "incoming"
	}

	friend := dto.UserResponse{ID: f.Other(callerID)}
	if user, err := h.auth.GetUser(friend.ID); err == nil {
		friend.DisplayName = user.DisplayName
	}

	return dto.FriendshipResponse{
		ID:          f.ID,
		Friend:      friend,
		Direction:   direction,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
		RespondedAt: f.RespondedAt,
	}
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
