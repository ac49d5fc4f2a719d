package handlers

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ApplyCertificate(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	enr, err := h.svc.Certificates.Apply(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(enr)
}

func (h *Handler) ApproveCertificate(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var request models.ApproveCertificate
	if len(c.Body()) > 0 {
		if err = parseBody(c, &request); err != nil {
			return err
		}
	}
	cert, err := h.svc.Certificates.Approve(c.UserContext(), session(c), id, request.Marks)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Certificate issued successfully", "certificate": cert})
}

func (h *Handler) RejectCertificate(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	enr, err := h.svc.Certificates.Reject(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(enr)
}

func (h *Handler) BulkApprove(c *fiber.Ctx) error {
	var request models.BulkApprove
	if err := parseBody(c, &request); err != nil {
		return err
	}
	res, err := h.svc.Certificates.BulkApprove(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handler) IssueCertificate(c *fiber.Ctx) error {
	var request models.IssueCertificate
	if err := parseBody(c, &request); err != nil {
		return err
	}
	cert, err := h.svc.Certificates.Issue(c.UserContext(), session(c), request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Certificate issued successfully", "certificate": cert})
}

func (h *Handler) ListCertificates(c *fiber.Ctx) error {
	var filter models.CertificateFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	certs, err := h.svc.Certificates.List(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(certs)
}

func (h *Handler) GetCertificate(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	cert, err := h.svc.Certificates.Get(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return c.JSON(cert)
}

func (h *Handler) DeleteCertificate(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.svc.Certificates.Delete(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	return deleted(c, ok)
}
