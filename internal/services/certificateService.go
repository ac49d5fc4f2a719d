package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arzan03/SchoolDesk/internal/metrics"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/notify"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// issueAttempts bounds retries when two issuances for the same student race
// for the next sequence number.
const issueAttempts = 3

type CertificateService struct {
	repos       store.Repos
	notifier    notify.Notifier
	appName     string
	minProgress int
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewCertificateService(repos store.Repos, notifier notify.Notifier, appName string, minProgress int, log logrus.FieldLogger) *CertificateService {
	return &CertificateService{
		repos:       repos,
		notifier:    notifier,
		appName:     appName,
		minProgress: minProgress,
		now:         time.Now,
		log:         log,
	}
}

// Apply moves the caller's enrollment from none to applied. The course
// progress must have reached the configured threshold.
func (s *CertificateService) Apply(ctx context.Context, sess models.Session, enrollmentRef string) (models.Enrollment, error) {
	if err := authorize(sess, models.RoleStudent); err != nil {
		return models.Enrollment{}, err
	}
	enr, err := s.repos.Enrollments.Get(ctx, enrollmentRef)
	if err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", enrollmentRef)
	}
	if enr.StudentID != sess.UserID {
		return models.Enrollment{}, ErrUnauthorized
	}
	switch enr.CertificateStatus {
	case models.CertificateIssued:
		return models.Enrollment{}, ErrCertificateExists
	case models.CertificateApplied:
		return models.Enrollment{}, errors.Wrap(ErrInvalidTransition, "certificate already applied for")
	}
	if _, err = s.repos.Certificates.FindOne(ctx, pairFilter(enr.StudentID, enr.CourseID)); err == nil {
		return models.Enrollment{}, ErrCertificateExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.Enrollment{}, errors.Wrap(err, "find certificate")
	}
	if enr.Progress < s.minProgress {
		return models.Enrollment{}, errors.Wrapf(ErrProgressTooLow, "progress %d%%, need %d%%", enr.Progress, s.minProgress)
	}

	if err = s.setCertificateStatus(ctx, enr.ID, models.CertificateApplied); err != nil {
		return models.Enrollment{}, err
	}
	enr.CertificateStatus = models.CertificateApplied
	s.log.WithFields(logrus.Fields{"enrollment_id": enr.ID, "student_id": enr.StudentID}).Info("certificate applied for")
	return enr, nil
}

// Approve issues the certificate for an applied enrollment.
func (s *CertificateService) Approve(ctx context.Context, sess models.Session, enrollmentRef string, marks float64) (models.Certificate, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Certificate{}, err
	}
	if err := validation.Struct(models.ApproveCertificate{Marks: marks}); err != nil {
		return models.Certificate{}, err
	}
	enr, err := s.repos.Enrollments.Get(ctx, enrollmentRef)
	if err != nil {
		return models.Certificate{}, notFound(err, "enrollment", enrollmentRef)
	}
	switch enr.CertificateStatus {
	case models.CertificateIssued:
		return models.Certificate{}, ErrCertificateExists
	case models.CertificateNone:
		return models.Certificate{}, errors.Wrap(ErrInvalidTransition, "no certificate application")
	}

	student, course, err := s.participants(ctx, enr.StudentID, enr.CourseID)
	if err != nil {
		return models.Certificate{}, err
	}
	return s.issue(ctx, student, course, enr.ID, marks, s.now())
}

// Reject resets an application to none.
func (s *CertificateService) Reject(ctx context.Context, sess models.Session, enrollmentRef string) (models.Enrollment, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Enrollment{}, err
	}
	enr, err := s.repos.Enrollments.Get(ctx, enrollmentRef)
	if err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", enrollmentRef)
	}
	if enr.CertificateStatus == models.CertificateIssued {
		return models.Enrollment{}, errors.Wrap(ErrInvalidTransition, "certificate already issued")
	}
	if enr.CertificateStatus != models.CertificateNone {
		if err = s.setCertificateStatus(ctx, enr.ID, models.CertificateNone); err != nil {
			return models.Enrollment{}, err
		}
		enr.CertificateStatus = models.CertificateNone
	}
	s.log.WithFields(logrus.Fields{"enrollment_id": enr.ID, "by": sess.UserID}).Info("certificate application rejected")
	return enr, nil
}

// BulkApprove approves enrollments one after the other. A failure does not
// undo earlier approvals; it is reported per enrollment.
func (s *CertificateService) BulkApprove(ctx context.Context, sess models.Session, req models.BulkApprove) (models.BulkResult, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.BulkResult{}, err
	}
	if err := validation.Struct(req); err != nil {
		return models.BulkResult{}, err
	}

	res := models.BulkResult{Certificates: []models.Certificate{}, Failed: []models.BulkFailure{}}
	for _, ref := range req.EnrollmentIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cert, err := s.Approve(ctx, sess, ref, req.Marks)
		if err != nil {
			res.Failed = append(res.Failed, models.BulkFailure{ID: ref, Error: err.Error()})
			continue
		}
		res.Approved++
		res.Certificates = append(res.Certificates, cert)
	}

	s.log.WithFields(logrus.Fields{"approved": res.Approved, "failed": len(res.Failed)}).Info("bulk approval finished")
	return res, nil
}

// Issue lets a superadmin issue a certificate directly, without an application.
func (s *CertificateService) Issue(ctx context.Context, sess models.Session, ic models.IssueCertificate) (models.Certificate, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Certificate{}, err
	}
	if err := validation.Struct(ic); err != nil {
		return models.Certificate{}, err
	}
	student, course, err := s.participants(ctx, ic.StudentID, ic.CourseID)
	if err != nil {
		return models.Certificate{}, err
	}
	issueDate := ic.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	return s.issue(ctx, student, course, "", ic.Marks, issueDate)
}

func (s *CertificateService) participants(ctx context.Context, studentRef, courseRef string) (models.User, models.Course, error) {
	student, err := s.repos.Users.Get(ctx, studentRef)
	if err != nil {
		return models.User{}, models.Course{}, notFound(err, "student", studentRef)
	}
	if student.Role != models.RoleStudent {
		return models.User{}, models.Course{}, validation.NewFieldError("studentId", "studentId must reference a student")
	}
	course, err := s.repos.Courses.Get(ctx, courseRef)
	if err != nil {
		return models.User{}, models.Course{}, notFound(err, "course", courseRef)
	}
	return student, course, nil
}

// nextSequence returns one more than the highest sequence issued to the student.
func (s *CertificateService) nextSequence(ctx context.Context, studentID string) (int, error) {
	certs, err := s.repos.Certificates.Find(ctx, store.Where(store.Eq("studentId", studentID)))
	if err != nil {
		return 0, errors.Wrap(err, "list student certificates")
	}
	highest := 0
	for _, c := range certs {
		if n := c.Sequence(); n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// issue creates the certificate "<studentId>/NN". The unique (studentId,
// courseId) index makes a concurrent second issuance fail with
// ErrCertificateExists; a collision on the sequence alone is retried.
func (s *CertificateService) issue(ctx context.Context, student models.User, course models.Course,
	enrollmentID string, marks float64, issueDate time.Time) (models.Certificate, error) {
	if _, err := s.repos.Certificates.FindOne(ctx, pairFilter(student.ID, course.ID)); err == nil {
		return models.Certificate{}, ErrCertificateExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.Certificate{}, errors.Wrap(err, "find certificate")
	}
	// A direct issue still closes the student's enrollment in the course.
	if enrollmentID == "" {
		enr, err := s.repos.Enrollments.FindOne(ctx, pairFilter(student.ID, course.ID))
		switch {
		case err == nil:
			enrollmentID = enr.ID
		case !errors.Is(err, store.ErrNotFound):
			return models.Certificate{}, errors.Wrap(err, "find enrollment")
		}
	}

	var cert models.Certificate
	for attempt := 1; ; attempt++ {
		seq, err := s.nextSequence(ctx, student.ID)
		if err != nil {
			return models.Certificate{}, err
		}
		cert = models.Certificate{
			Base:         models.Base{ID: fmt.Sprintf("%s/%02d", student.ID, seq)},
			StudentID:    student.ID,
			CourseID:     course.ID,
			EnrollmentID: enrollmentID,
			StudentName:  student.Name,
			CourseTitle:  course.Title,
			IssueDate:    issueDate.UTC(),
			Marks:        marks,
		}
		err = s.repos.Certificates.Insert(ctx, &cert)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return models.Certificate{}, errors.Wrap(err, "create certificate")
		}
		if _, ferr := s.repos.Certificates.FindOne(ctx, pairFilter(student.ID, course.ID)); ferr == nil {
			return models.Certificate{}, ErrCertificateExists
		}
		if attempt == issueAttempts {
			return models.Certificate{}, errors.Wrapf(err, "allocate certificate number for %s", student.ID)
		}
	}

	if enrollmentID != "" {
		if err := s.setCertificateStatus(ctx, enrollmentID, models.CertificateIssued); err != nil {
			return models.Certificate{}, err
		}
	}
	metrics.CertificatesIssued.Inc()

	log := s.log.WithFields(logrus.Fields{
		"certificate_id": cert.ID,
		"student_id":     student.ID,
		"course_id":      course.ID,
	})
	log.Info("certificate issued")
	msg := notify.CertificateIssued(s.appName, student.Name, student.Email, course.Title, cert.ID)
	if err := s.notifier.Send(ctx, msg); err != nil {
		log.WithError(err).Warn("certificate notification failed")
	}
	return cert, nil
}

func (s *CertificateService) setCertificateStatus(ctx context.Context, enrollmentID string, status models.CertificateStatus) error {
	err := s.repos.Enrollments.Update(ctx, enrollmentID, store.Set{"certificateStatus": status})
	if err != nil {
		return notFound(err, "enrollment", enrollmentID)
	}
	return nil
}

func (s *CertificateService) Get(ctx context.Context, sess models.Session, ref string) (models.Certificate, error) {
	cert, err := s.repos.Certificates.Get(ctx, ref)
	if err != nil {
		return models.Certificate{}, notFound(err, "certificate", ref)
	}
	ok, err := canSeeStudentRecord(ctx, s.repos, sess, cert.StudentID, cert.CourseID)
	if err != nil {
		return models.Certificate{}, err
	}
	if !ok {
		return models.Certificate{}, ErrUnauthorized
	}
	return cert, nil
}

// List returns certificates visible to the caller, newest first.
func (s *CertificateService) List(ctx context.Context, sess models.Session, f models.CertificateFilter) ([]models.Certificate, error) {
	filter, err := tenantScope(ctx, s.repos, sess, f.StudentID, f.CourseID)
	if err != nil {
		return nil, err
	}
	if f.Search != "" {
		filter = filter.And(store.Search(f.Search, "studentName", "customId", "courseTitle"))
	}
	certs, err := s.repos.Certificates.Find(ctx, filter, store.FindOptions{SortBy: "issueDate", Desc: true})
	return certs, errors.Wrap(err, "list certificates")
}

// Delete permanently removes a certificate and reopens the enrollment for a
// new application. Deleting a missing certificate reports false.
func (s *CertificateService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return false, err
	}
	cert, err := s.repos.Certificates.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get certificate")
	}

	deleted, err := s.repos.Certificates.Delete(ctx, cert.ID)
	if err != nil {
		return false, errors.Wrapf(err, "delete certificate %s", cert.ID)
	}
	if !deleted {
		return false, nil
	}

	enr, err := s.repos.Enrollments.FindOne(ctx, pairFilter(cert.StudentID, cert.CourseID))
	switch {
	case err == nil:
		if err = s.setCertificateStatus(ctx, enr.ID, models.CertificateNone); err != nil {
			return true, err
		}
	case !errors.Is(err, store.ErrNotFound):
		return true, errors.Wrap(err, "find enrollment")
	}

	s.log.WithFields(logrus.Fields{"certificate_id": cert.ID, "by": sess.UserID}).Warn("certificate deleted")
	return true, nil
}
