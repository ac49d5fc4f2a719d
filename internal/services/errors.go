package services

import (
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrNotFound           = errors.New("not found")
	ErrEmailInUse         = errors.New("email already in use")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrCertificateExists  = errors.New("certificate already issued")
	ErrProgressTooLow     = errors.New("course progress is below the certificate threshold")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidInput       = validation.ErrInvalid
)

// notFound maps a missing document to ErrNotFound naming what was looked up.
func notFound(err error, kind, ref string) error {
	if errors.Is(err, store.ErrNotFound) {
		return errors.Wrapf(ErrNotFound, "%s %s", kind, ref)
	}
	return errors.Wrapf(err, "get %s %s", kind, ref)
}
