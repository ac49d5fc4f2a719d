package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ListContent lists published pages, optionally of one ?section=.
func (h *Handler) ListContent(c *fiber.Ctx) error {
	list, err := h.svc.Contents.List(c.UserContext(), session(c), c.Query("section"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) GetContent(c *fiber.Ctx) error {
	slug, err := param(c, "slug")
	if err != nil {
		return err
	}
	content, err := h.svc.Contents.Published(c.UserContext(), slug)
	if err != nil {
		return err
	}
	return c.JSON(content)
}

func (h *Handler) UpsertContent(c *fiber.Ctx) error {
	slug, err := param(c, "slug")
	if err != nil {
		return err
	}
	var request models.ContentInput
	if err = parseBody(c, &request); err != nil {
		return err
	}
	content, err := h.svc.Contents.Upsert(c.UserContext(), session(c), slug, request)
	if err != nil {
		return err
	}
	return c.JSON(content)
}

func (h *Handler) DeleteContent(c *fiber.Ctx) error {
	slug, err := param(c, "slug")
	if err != nil {
		return err
	}
	ok, err := h.svc.Contents.Delete(c.UserContext(), session(c), slug)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}
