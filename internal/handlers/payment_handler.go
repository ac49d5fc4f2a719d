package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var request models.NewOrder
	if err := parseBody(c, &request); err != nil {
		return err
	}
	order, err := h.svc.Payments.CreateOrder(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// VerifyPayment confirms a gateway checkout. A bad signature is reported in
// the body with success false, not as an HTTP error.
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var request models.PaymentVerification
	if err := parseBody(c, &request); err != nil {
		return err
	}
	res, err := h.svc.Payments.Verify(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handler) ListPayments(c *fiber.Ctx) error {
	list, err := h.svc.Payments.List(c.UserContext(), session(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
