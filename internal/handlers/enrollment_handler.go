package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Enroll(c *fiber.Ctx) error {
	var request models.NewEnrollment
	if err := parseBody(c, &request); err != nil {
		return err
	}
	enr, err := h.svc.Enrollments.Enroll(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(enr)
}

func (h *Handler) ListEnrollments(c *fiber.Ctx) error {
	var filter models.EnrollmentFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	list, err := h.svc.Enrollments.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) GetEnrollment(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	enr, err := h.svc.Enrollments.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(enr)
}

func (h *Handler) SetEnrollmentStatus(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.EnrollmentStatusUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	enr, err := h.svc.Enrollments.SetStatus(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(enr)
}

func (h *Handler) CompleteLesson(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	lessonID, err := param(c, "lessonId")
	if err != nil {
		return err
	}
	enr, err := h.svc.Enrollments.CompleteLesson(c.UserContext(), session(c), id, lessonID)
	if err != nil {
		return err
	}
	return c.JSON(enr)
}
