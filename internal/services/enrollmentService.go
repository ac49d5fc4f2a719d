package services

import (
	"context"
	"math"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type EnrollmentService struct {
	repos store.Repos
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewEnrollmentService(repos store.Repos, log logrus.FieldLogger) *EnrollmentService {
	return &EnrollmentService{repos: repos, now: time.Now, log: log}
}

// Enroll lets a superadmin enroll a student directly, bypassing payment.
func (s *EnrollmentService) Enroll(ctx context.Context, sess models.Session, ne models.NewEnrollment) (models.Enrollment, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Enrollment{}, err
	}
	if err := validation.Struct(ne); err != nil {
		return models.Enrollment{}, err
	}
	student, err := s.repos.Users.Get(ctx, ne.StudentID)
	if err != nil {
		return models.Enrollment{}, notFound(err, "student", ne.StudentID)
	}
	if student.Role != models.RoleStudent {
		return models.Enrollment{}, validation.NewFieldError("studentId", "studentId must reference a student")
	}
	course, err := s.repos.Courses.Get(ctx, ne.CourseID)
	if err != nil {
		return models.Enrollment{}, notFound(err, "course", ne.CourseID)
	}

	enr, created, err := s.enroll(ctx, student.ID, course.ID)
	if err != nil {
		return models.Enrollment{}, err
	}
	if !created {
		return models.Enrollment{}, ErrAlreadyEnrolled
	}
	return enr, nil
}

// enroll creates the enrollment for the pair or returns the existing one.
// The unique (studentId, courseId) index decides which of two concurrent
// calls creates it.
func (s *EnrollmentService) enroll(ctx context.Context, studentID, courseID string) (models.Enrollment, bool, error) {
	enr := models.Enrollment{
		Base:              models.Base{ID: models.NewID("ENR")},
		StudentID:         studentID,
		CourseID:          courseID,
		Status:            models.EnrollmentActive,
		CertificateStatus: models.CertificateNone,
		CompletedLessons:  []string{},
	}
	err := s.repos.Enrollments.Insert(ctx, &enr)
	if errors.Is(err, store.ErrDuplicate) {
		existing, ferr := s.repos.Enrollments.FindOne(ctx, pairFilter(studentID, courseID))
		if ferr != nil {
			return models.Enrollment{}, false, errors.Wrap(ferr, "find enrollment")
		}
		return existing, false, nil
	}
	if err != nil {
		return models.Enrollment{}, false, errors.Wrap(err, "create enrollment")
	}

	s.log.WithFields(logrus.Fields{
		"enrollment_id": enr.ID,
		"student_id":    studentID,
		"course_id":     courseID,
	}).Info("student enrolled")
	return enr, true, nil
}

func pairFilter(studentID, courseID string) store.Filter {
	return store.Where(store.Eq("studentId", studentID), store.Eq("courseId", courseID))
}

func (s *EnrollmentService) Get(ctx context.Context, sess models.Session, ref string) (models.Enrollment, error) {
	enr, err := s.repos.Enrollments.Get(ctx, ref)
	if err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", ref)
	}
	ok, err := canSeeStudentRecord(ctx, s.repos, sess, enr.StudentID, enr.CourseID)
	if err != nil {
		return models.Enrollment{}, err
	}
	if !ok {
		return models.Enrollment{}, ErrUnauthorized
	}
	return enr, nil
}

func (s *EnrollmentService) List(ctx context.Context, sess models.Session, f models.EnrollmentFilter) ([]models.Enrollment, error) {
	filter, err := tenantScope(ctx, s.repos, sess, f.StudentID, f.CourseID)
	if err != nil {
		return nil, err
	}
	if f.Status != "" {
		filter = filter.And(store.Eq("status", f.Status))
	}
	if f.CertificateStatus != "" {
		filter = filter.And(store.Eq("certificateStatus", f.CertificateStatus))
	}
	list, err := s.repos.Enrollments.Find(ctx, filter, store.FindOptions{SortBy: "createdAt", Desc: true})
	return list, errors.Wrap(err, "list enrollments")
}

// Progress is the rounded percentage of completed lessons.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p > 100 {
		return 100
	}
	return p
}

// CompleteLesson marks a lesson done for the calling student and recomputes
// the enrollment's progress. Reaching 100% completes the enrollment.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, sess models.Session, ref, lessonID string) (models.Enrollment, error) {
	if err := authorize(sess, models.RoleStudent); err != nil {
		return models.Enrollment{}, err
	}
	enr, err := s.repos.Enrollments.Get(ctx, ref)
	if err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", ref)
	}
	if enr.StudentID != sess.UserID {
		return models.Enrollment{}, ErrUnauthorized
	}
	if enr.Status == models.EnrollmentDropped {
		return models.Enrollment{}, errors.Wrap(ErrInvalidTransition, "enrollment is dropped")
	}
	course, err := s.repos.Courses.Get(ctx, enr.CourseID)
	if err != nil {
		return models.Enrollment{}, notFound(err, "course", enr.CourseID)
	}
	if !course.HasLesson(lessonID) {
		return models.Enrollment{}, errors.Wrapf(ErrNotFound, "lesson %s", lessonID)
	}
	if enr.HasCompleted(lessonID) {
		return enr, nil
	}

	// Completions of the same enrollment may race, so the lesson is added in
	// place and progress is derived from what the store holds afterwards.
	if err = s.repos.Enrollments.Update(ctx, enr.ID, store.Set{"completedLessons": store.AddToSet{Value: lessonID}}); err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", enr.ID)
	}
	id := enr.ID
	if enr, err = s.repos.Enrollments.Get(ctx, id); err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", id)
	}
	progress := Progress(len(enr.CompletedLessons), course.LessonCount())
	if progress > enr.Progress {
		enr.Progress = progress
	}
	set := store.Set{"progress": store.Max{Value: progress}}
	if enr.Progress >= 100 && enr.Status != models.EnrollmentCompleted {
		now := s.now().UTC()
		enr.Status = models.EnrollmentCompleted
		enr.CompletedAt = &now
		set["status"] = enr.Status
		set["completedAt"] = now
	}
	if err = s.repos.Enrollments.Update(ctx, enr.ID, set); err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", enr.ID)
	}
	return enr, nil
}

// SetStatus drops or reactivates an enrollment. Students may change their own.
func (s *EnrollmentService) SetStatus(ctx context.Context, sess models.Session, ref string, su models.EnrollmentStatusUpdate) (models.Enrollment, error) {
	if err := authorize(sess, models.RoleSuperAdmin, models.RoleStudent); err != nil {
		return models.Enrollment{}, err
	}
	if err := validation.Struct(su); err != nil {
		return models.Enrollment{}, err
	}
	enr, err := s.repos.Enrollments.Get(ctx, ref)
	if err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", ref)
	}
	if sess.Role == models.RoleStudent && enr.StudentID != sess.UserID {
		return models.Enrollment{}, ErrUnauthorized
	}
	if enr.Status == models.EnrollmentCompleted {
		return models.Enrollment{}, errors.Wrap(ErrInvalidTransition, "enrollment is completed")
	}
	if enr.Status == su.Status {
		return enr, nil
	}
	if err = s.repos.Enrollments.Update(ctx, enr.ID, store.Set{"status": su.Status}); err != nil {
		return models.Enrollment{}, notFound(err, "enrollment", enr.ID)
	}
	enr.Status = su.Status
	return enr, nil
}
