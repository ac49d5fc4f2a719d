package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var request models.NewUser
	if err := parseBody(c, &request); err != nil {
		return err
	}
	user, err := h.svc.Users.Create(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User created successfully", "user": user})
}

// ListUsers lists the users the caller may see, paginated.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var filter models.UserFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	page, err := h.svc.Users.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetUser accepts either the custom ID or the database ID.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.Users.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.UserUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	user, err := h.svc.Users.Update(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.UserStatusUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	user, err := h.svc.Users.SetStatus(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Users.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}

func (h *Handler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.svc.Plans.List(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(plans)
}

func (h *Handler) ListActivePlans(c *fiber.Ctx) error {
	plans, err := h.svc.Plans.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(plans)
}

func (h *Handler) CreatePlan(c *fiber.Ctx) error {
	var request models.NewPlan
	if err := parseBody(c, &request); err != nil {
		return err
	}
	plan, err := h.svc.Plans.Create(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *Handler) UpdatePlan(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.PlanUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	plan, err := h.svc.Plans.Update(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(plan)
}

func (h *Handler) DeletePlan(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Plans.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}
