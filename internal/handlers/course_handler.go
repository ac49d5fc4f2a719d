package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	var filter models.CourseFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	page, err := h.svc.Courses.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	course, err := h.svc.Courses.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	var request models.NewCourse
	if err := parseBody(c, &request); err != nil {
		return err
	}
	course, err := h.svc.Courses.Create(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.CourseUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	course, err := h.svc.Courses.Update(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error   { return h.setPublished(c, true) }
func (h *Handler) UnpublishCourse(c *fiber.Ctx) error { return h.setPublished(c, false) }

func (h *Handler) setPublished(c *fiber.Ctx, published bool) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	course, err := h.svc.Courses.SetPublished(c.UserContext(), session(c), id, published)
	if err != nil {
		return err
	}
	return c.JSON(course)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Courses.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}
