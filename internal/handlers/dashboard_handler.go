package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// MyDashboard returns the dashboard for the caller's own role.
func (h *Handler) MyDashboard(c *fiber.Ctx) error {
	d, err := h.svc.Dashboard.Mine(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) AdminDashboard(c *fiber.Ctx) error {
	d, err := h.svc.Dashboard.Admin(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) SupportDashboard(c *fiber.Ctx) error {
	d, err := h.svc.Dashboard.Support(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) SchoolDashboard(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard.School(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) TeacherDashboard(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard.Teacher(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) GovernmentDashboard(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard.Government(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *Handler) StudentDashboard(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard.Student(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}
