// Package handlers maps HTTP requests onto the services. Handlers parse the
// request, call one service method with the caller's session and return its
// result; errors are translated to status codes by ErrorHandler.
package handlers

import (
	"context"
	"net/url"

	"github.com/arzan03/SchoolDesk/internal/middleware"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *services.Services
	log logrus.FieldLogger
}

func New(svc *services.Services, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ErrorHandler writes {"error": ...} with the status matching err.
// Validation failures also carry the offending fields.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error(), "fields": verr.Fields})
		}
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrInvalidCredentials):
			status = fiber.StatusUnauthorized
		case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInactiveAccount):
			status = fiber.StatusForbidden
		case errors.Is(err, services.ErrNotFound), errors.Is(err, store.ErrNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, services.ErrEmailInUse), errors.Is(err, services.ErrAlreadyEnrolled),
			errors.Is(err, services.ErrCertificateExists), errors.Is(err, store.ErrDuplicate):
			status = fiber.StatusConflict
		case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrProgressTooLow),
			errors.Is(err, services.ErrInvalidTransition):
			status = fiber.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = fiber.StatusGatewayTimeout
		}
		if status != fiber.StatusInternalServerError {
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		}).Error("request failed")
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func session(c *fiber.Ctx) models.Session {
	return middleware.SessionFrom(c)
}

// param returns a decoded path parameter. Certificate IDs contain a slash
// and arrive percent-encoded.
func param(c *fiber.Ctx, name string) (string, error) {
	v, err := url.PathUnescape(c.Params(name))
	if err != nil || v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return v, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func parseQuery(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	return nil
}

func deleted(c *fiber.Ctx, ok bool) error {
	return c.JSON(fiber.Map{"deleted": ok})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
