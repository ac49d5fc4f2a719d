package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) RegisterHandler(c *fiber.Ctx) error {
	var request models.Registration
	if err := parseBody(c, &request); err != nil {
		return err
	}

	user, err := h.svc.Auth.Register(c.UserContext(), request)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully", "user": user})
}

func (h *Handler) LoginHandler(c *fiber.Ctx) error {
	var request models.Credentials
	if err := parseBody(c, &request); err != nil {
		return err
	}

	res, err := h.svc.Auth.Login(c.UserContext(), request)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"role":       res.User.Role,
		"user":       res.User,
	})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.svc.Users.Me(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	var request models.UserUpdate
	if err := parseBody(c, &request); err != nil {
		return err
	}
	user, err := h.svc.Users.UpdateMe(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
