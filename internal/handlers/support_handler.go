package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateTicket(c *fiber.Ctx) error {
	var request models.NewTicket
	if err := parseBody(c, &request); err != nil {
		return err
	}
	ticket, err := h.svc.Tickets.Create(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (h *Handler) ListTickets(c *fiber.Ctx) error {
	var filter models.TicketFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	list, err := h.svc.Tickets.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) GetTicket(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.svc.Tickets.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

func (h *Handler) ReplyTicket(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.TicketReplyInput
	if err = parseBody(c, &request); err != nil {
		return err
	}
	ticket, err := h.svc.Tickets.Reply(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

func (h *Handler) UpdateTicketStatus(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.TicketStatusUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	ticket, err := h.svc.Tickets.UpdateStatus(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

func (h *Handler) DeleteTicket(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Tickets.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}

// CreateLead stores a public contact-form submission
func (h *Handler) CreateLead(c *fiber.Ctx) error {
	var request models.NewLead
	if err := parseBody(c, &request); err != nil {
		return err
	}
	lead, err := h.svc.Leads.Create(c.UserContext(), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thanks, we will be in touch", "id": lead.ID})
}

func (h *Handler) ListLeads(c *fiber.Ctx) error {
	var filter models.LeadFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	list, err := h.svc.Leads.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) GetLead(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	lead, err := h.svc.Leads.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(lead)
}

func (h *Handler) UpdateLead(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.LeadUpdate
	if err = parseBody(c, &request); err != nil {
		return err
	}
	lead, err := h.svc.Leads.Update(c.UserContext(), session(c), id, request)
	if err != nil {
		return err
	}
	return c.JSON(lead)
}

func (h *Handler) DeleteLead(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Leads.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}
