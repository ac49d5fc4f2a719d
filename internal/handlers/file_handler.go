package handlers

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/arzan03/SchoolDesk/internal/certpdf"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CertificatePDFHandler downloads a single certificate as a PDF
func (h *Handler) CertificatePDFHandler(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	cert, out, err := h.svc.Exports.PDF(c.UserContext(), session(c), id)
	if err != nil {
		return err
	}
	c.Attachment(certpdf.FileName(cert))
	return c.Send(out)
}

// ExportZIPHandler streams every certificate matching the query as one ZIP.
// Selection errors are reported normally; once streaming has started a render
// failure can only be logged and the archive is cut short.
func (h *Handler) ExportZIPHandler(c *fiber.Ctx) error {
	var filter models.CertificateFilter
	if err := parseQuery(c, &filter); err != nil {
		return err
	}
	sess := session(c)
	certs, err := h.svc.Exports.Select(c.UserContext(), sess, filter)
	if err != nil {
		return err
	}

	c.Attachment("certificates.zip")
	c.Set("X-Certificate-Count", strconv.Itoa(len(certs)))
	log := h.log.WithFields(logrus.Fields{
		"path":       strings.Clone(c.Path()),
		"request_id": strings.Clone(c.GetRespHeader(fiber.HeaderXRequestID)),
	})
	// The request context ends with the handler, the stream outlives it.
	exports := h.svc.Exports
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := exports.WriteZIP(context.Background(), sess, certs, w); err != nil {
			log.WithError(err).Error("certificate archive stream aborted")
		}
	})
	return nil
}

// StoreExportHandler uploads the ZIP to object storage and returns a temporary download URL
func (h *Handler) StoreExportHandler(c *fiber.Ctx) error {
	var filter models.CertificateFilter
	if len(c.Body()) > 0 {
		if err := parseBody(c, &filter); err != nil {
			return err
		}
	} else if err := parseQuery(c, &filter); err != nil {
		return err
	}
	export, err := h.svc.Exports.Store(c.UserContext(), session(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"presigned_url": export.URL,
		"key":           export.Key,
		"count":         export.Count,
		"expires_at":    export.ExpiresAt,
	})
}
