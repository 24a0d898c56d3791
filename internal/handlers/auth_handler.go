package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/raidmate/raidmate-backend/internal/authctx"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.auth.Register(&req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.auth.Login(&req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.auth.Refresh(&req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.auth.Logout(&req); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.auth.DeleteAccount(callerID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return unauthorized(c)
		}
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.auth.GetUser(callerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (h *AuthHandler) UpdateDisplayName(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateDisplayNameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.auth.UpdateDisplayName(callerID, req.DisplayName)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return serviceError(c, err)
		}
		return badRequest(c, err.Error())
	}
	return c.JSON(dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (h *AuthHandler) SearchUsers(c *fiber.Ctx) error {
	callerID, err := authctx.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	limit, offset := pageParams(c)
	users, total, err := h.auth.SearchUsers(callerID, c.Query("search", ""), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]dto.UserResponse, len(users))
	for i, u := range users {
		items[i] = dto.UserResponse{ID: u.ID, DisplayName: u.DisplayName}
	}
	return c.JSON(fiber.Map{
		"users":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
