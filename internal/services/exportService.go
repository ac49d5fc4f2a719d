package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/arzan03/SchoolDesk/internal/certpdf"
	"github.com/arzan03/SchoolDesk/internal/metrics"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const exportPrefix = "exports/"

type ExportService struct {
	certs     *CertificateService
	renderer  *certpdf.Renderer
	objects   storage.ObjectStore
	retention time.Duration
	urlExpiry time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewExportService(certs *CertificateService, renderer *certpdf.Renderer, objects storage.ObjectStore,
	retention, urlExpiry time.Duration, log logrus.FieldLogger) *ExportService {
	return &ExportService{
		certs:     certs,
		renderer:  renderer,
		objects:   objects,
		retention: retention,
		urlExpiry: urlExpiry,
		now:       time.Now,
		log:       log,
	}
}

type StoredExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PDF renders a single certificate the caller may see.
func (s *ExportService) PDF(ctx context.Context, sess models.Session, ref string) (models.Certificate, []byte, error) {
	cert, err := s.certs.Get(ctx, sess, ref)
	if err != nil {
		return models.Certificate{}, nil, err
	}
	out, err := s.renderer.RenderPDF(cert)
	if err != nil {
		return models.Certificate{}, nil, err
	}
	metrics.Exports.WithLabelValues("pdf").Inc()
	return cert, out, nil
}

// ZIP writes every certificate matching f into one archive and returns how
// many were written.
func (s *ExportService) ZIP(ctx context.Context, sess models.Session, f models.CertificateFilter, w io.Writer) (int, error) {
	certs, err := s.Select(ctx, sess, f)
	if err != nil {
		return 0, err
	}
	if err = s.WriteZIP(ctx, sess, certs, w); err != nil {
		return 0, err
	}
	return len(certs), nil
}

// Select lists the certificates of an export. An empty selection is ErrNotFound.
func (s *ExportService) Select(ctx context.Context, sess models.Session, f models.CertificateFilter) ([]models.Certificate, error) {
	certs, err := s.certs.List(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	if len(certs) == 0 {
		return nil, errors.Wrap(ErrNotFound, "no certificates match the filter")
	}
	return certs, nil
}

// WriteZIP renders certs, as returned by Select, into an archive on w.
func (s *ExportService) WriteZIP(ctx context.Context, sess models.Session, certs []models.Certificate, w io.Writer) error {
	log := s.log.WithField("user_id", sess.UserID)
	err := s.renderer.WriteZIP(ctx, w, certs, func(done, total int) {
		log.WithFields(logrus.Fields{"done": done, "total": total}).Debug("export progress")
	})
	if err != nil {
		log.WithError(err).Error("certificate export failed")
		return err
	}
	metrics.Exports.WithLabelValues("zip").Inc()
	return nil
}

// Store builds the archive for f, uploads it and returns a presigned download URL.
func (s *ExportService) Store(ctx context.Context, sess models.Session, f models.CertificateFilter) (StoredExport, error) {
	var buf bytes.Buffer
	n, err := s.ZIP(ctx, sess, f, &buf)
	if err != nil {
		return StoredExport{}, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s%s/%s-%s.zip", exportPrefix, sess.UserID, now.Format("20060102T150405"), uuid.NewString()[:8])
	if err = s.objects.Put(ctx, key, "application/zip", buf.Bytes()); err != nil {
		return StoredExport{}, err
	}
	url, err := s.objects.PresignedURL(ctx, key, "certificates.zip", s.urlExpiry)
	if err != nil {
		return StoredExport{}, err
	}

	metrics.Exports.WithLabelValues("stored").Inc()
	s.log.WithFields(logrus.Fields{"user_id": sess.UserID, "key": key, "count": n}).Info("certificate export stored")
	return StoredExport{Key: key, URL: url, Count: n, ExpiresAt: now.Add(s.urlExpiry)}, nil
}

// Sweep deletes stored exports older than the retention period.
func (s *ExportService) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.objects.RemoveOlderThan(ctx, exportPrefix, cutoff)
	if err != nil {
		return n, errors.Wrap(err, "sweep exports")
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{"removed": n, "cutoff": cutoff}).Info("expired exports removed")
	}
	return n, nil
}
