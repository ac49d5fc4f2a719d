package services

import (
	"context"
	"testing"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{4, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestEnrollments_Enroll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, models.RoleStudent, "STU-1")
	f.user(t, models.RoleTeacher, "TCH-1")
	f.course(t, "CRS-1", "TCH-1", 3)

	enr, err := f.svc.Enrollments.Enroll(ctx, admin, models.NewEnrollment{StudentID: "STU-1", CourseID: "CRS-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enr.Status)
	assert.Equal(t, models.CertificateNone, enr.CertificateStatus)
	assert.Equal(t, 0, enr.Progress)

	_, err = f.svc.Enrollments.Enroll(ctx, admin, models.NewEnrollment{StudentID: "STU-1", CourseID: "CRS-1"})
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = f.svc.Enrollments.Enroll(ctx, admin, models.NewEnrollment{StudentID: "TCH-1", CourseID: "CRS-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Enrollments.Enroll(ctx, admin, models.NewEnrollment{StudentID: "STU-1", CourseID: "CRS-404"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Enrollments.Enroll(ctx, models.Session{UserID: "STU-1", Role: models.RoleStudent},
		models.NewEnrollment{StudentID: "STU-1", CourseID: "CRS-1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnrollments_CompleteLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 3)
	f.enrollment(t, "ENR-1", "STU-1", "CRS-1", 0, models.EnrollmentActive)
	sess := sessionOf(student)

	enr, err := f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LA")
	require.NoError(t, err)
	assert.Equal(t, 33, enr.Progress)

	enr, err = f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LA")
	require.NoError(t, err)
	assert.Equal(t, 33, enr.Progress, "completing a lesson twice counts once")

	_, err = f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LZ")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LB")
	require.NoError(t, err)
	enr, err = f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LC")
	require.NoError(t, err)
	assert.Equal(t, 100, enr.Progress)
	assert.Equal(t, models.EnrollmentCompleted, enr.Status)
	assert.NotNil(t, enr.CompletedAt)

	stored, err := f.svc.Enrollments.Get(ctx, sess, "ENR-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCompleted, stored.Status)
	assert.ElementsMatch(t, []string{"CRS-1-LA", "CRS-1-LB", "CRS-1-LC"}, stored.CompletedLessons)

	other := f.user(t, models.RoleStudent, "STU-2")
	_, err = f.svc.Enrollments.CompleteLesson(ctx, sessionOf(other), "ENR-1", "CRS-1-LA")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnrollments_ConcurrentCompletions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 8)
	f.enrollment(t, "ENR-1", "STU-1", "CRS-1", 0, models.EnrollmentActive)
	sess := sessionOf(student)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		lesson := "CRS-1-L" + string(rune('A'+i))
		g.Go(func() error {
			_, err := f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", lesson)
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := f.svc.Enrollments.Get(ctx, sess, "ENR-1")
	require.NoError(t, err)
	assert.Len(t, stored.CompletedLessons, 8)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, models.EnrollmentCompleted, stored.Status)
}

func TestEnrollments_SetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 2)
	f.course(t, "CRS-2", "TCH-1", 2)
	f.enrollment(t, "ENR-1", "STU-1", "CRS-1", 50, models.EnrollmentActive)
	f.enrollment(t, "ENR-2", "STU-1", "CRS-2", 100, models.EnrollmentCompleted)
	sess := sessionOf(student)

	enr, err := f.svc.Enrollments.SetStatus(ctx, sess, "ENR-1", models.EnrollmentStatusUpdate{Status: models.EnrollmentDropped})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, enr.Status)

	_, err = f.svc.Enrollments.CompleteLesson(ctx, sess, "ENR-1", "CRS-1-LB")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	enr, err = f.svc.Enrollments.SetStatus(ctx, admin, "ENR-1", models.EnrollmentStatusUpdate{Status: models.EnrollmentActive})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enr.Status)

	_, err = f.svc.Enrollments.SetStatus(ctx, sess, "ENR-2", models.EnrollmentStatusUpdate{Status: models.EnrollmentDropped})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Enrollments.SetStatus(ctx, sess, "ENR-1", models.EnrollmentStatusUpdate{Status: models.EnrollmentCompleted})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnrollments_ListScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, models.RoleStudent, "STU-1", inSchool("SCH-1"))
	f.user(t, models.RoleStudent, "STU-2", inSchool("SCH-2"))
	f.course(t, "CRS-1", "TCH-1", 2)
	f.course(t, "CRS-2", "TCH-2", 2)
	f.enrollment(t, "ENR-1", "STU-1", "CRS-1", 0, models.EnrollmentActive)
	f.enrollment(t, "ENR-2", "STU-1", "CRS-2", 100, models.EnrollmentCompleted)
	f.enrollment(t, "ENR-3", "STU-2", "CRS-1", 0, models.EnrollmentActive)

	ids := func(list []models.Enrollment) []string {
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.ID)
		}
		return out
	}

	list, err := f.svc.Enrollments.List(ctx, models.Session{UserID: "SCH-1", Role: models.RoleSchool}, models.EnrollmentFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ENR-1", "ENR-2"}, ids(list))

	list, err = f.svc.Enrollments.List(ctx, models.Session{UserID: "TCH-1", Role: models.RoleTeacher}, models.EnrollmentFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ENR-1", "ENR-3"}, ids(list))

	list, err = f.svc.Enrollments.List(ctx, admin, models.EnrollmentFilter{Status: string(models.EnrollmentCompleted)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ENR-2"}, ids(list))

	_, err = f.svc.Enrollments.Get(ctx, models.Session{UserID: "STU-2", Role: models.RoleStudent}, "ENR-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
