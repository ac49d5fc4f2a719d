package services

import (
	"context"
	"sync"
	"testing"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificates_ApplyApproveFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 4)
	enr := f.enrollment(t, "ENR-1", student.ID, "CRS-1", 80, models.EnrollmentActive)

	applied, err := f.svc.Certificates.Apply(ctx, sessionOf(student), enr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateApplied, applied.CertificateStatus)

	cert, err := f.svc.Certificates.Approve(ctx, admin, enr.ID, 91)
	require.NoError(t, err)
	assert.Equal(t, "STU-1/01", cert.ID)
	assert.Equal(t, "User STU-1", cert.StudentName)
	assert.Equal(t, "Course CRS-1", cert.CourseTitle)
	assert.Equal(t, 91.0, cert.Marks)

	stored, err := f.repos.Enrollments.Get(ctx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateIssued, stored.CertificateStatus)
	assert.Equal(t, 1, f.mail.count())

	_, err = f.svc.Certificates.Approve(ctx, admin, enr.ID, 91)
	assert.ErrorIs(t, err, ErrCertificateExists)
	assert.EqualError(t, err, "certificate already issued")

	n, err := f.repos.Certificates.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCertificates_ApplyRequiresProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	other := f.user(t, models.RoleStudent, "STU-2")

	tests := []struct {
		name     string
		progress int
		sess     models.Session
		want     error
	}{
		{"below threshold", 74, sessionOf(student), ErrProgressTooLow},
		{"someone else's enrollment", 90, sessionOf(other), ErrUnauthorized},
		{"admin cannot apply", 90, admin, ErrUnauthorized},
		{"at threshold", 75, sessionOf(student), nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courseID := "CRS-" + string(rune('A'+i))
			enr := f.enrollment(t, "ENR-"+courseID, student.ID, courseID, tt.progress, models.EnrollmentActive)
			_, err := f.svc.Certificates.Apply(ctx, tt.sess, enr.ID)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			stored, err := f.repos.Enrollments.Get(ctx, enr.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CertificateNone, stored.CertificateStatus)
		})
	}
}

func TestCertificates_SequenceIsIncreasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, models.RoleStudent, "STU-7")

	var ids []string
	for _, c := range []string{"CRS-1", "CRS-2", "CRS-3"} {
		f.course(t, c, "", 1)
		cert, err := f.svc.Certificates.Issue(ctx, admin, models.IssueCertificate{StudentID: "STU-7", CourseID: c, Marks: 70})
		require.NoError(t, err)
		ids = append(ids, cert.ID)
	}
	assert.Equal(t, []string{"STU-7/01", "STU-7/02", "STU-7/03"}, ids)

	// numbering continues after the highest, not the count
	deleted, err := f.svc.Certificates.Delete(ctx, admin, "STU-7/01")
	require.NoError(t, err)
	require.True(t, deleted)
	f.course(t, "CRS-4", "", 1)
	cert, err := f.svc.Certificates.Issue(ctx, admin, models.IssueCertificate{StudentID: "STU-7", CourseID: "CRS-4"})
	require.NoError(t, err)
	assert.Equal(t, "STU-7/04", cert.ID)
}

func TestCertificates_SecondIssueFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "", 1)
	req := models.IssueCertificate{StudentID: "STU-1", CourseID: "CRS-1", Marks: 60}

	_, err := f.svc.Certificates.Issue(ctx, admin, req)
	require.NoError(t, err)
	_, err = f.svc.Certificates.Issue(ctx, admin, req)
	assert.ErrorIs(t, err, ErrCertificateExists)
}

func TestCertificates_DirectIssueClosesEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 4)
	enr := f.enrollment(t, "ENR-1", student.ID, "CRS-1", 90, models.EnrollmentActive)

	cert, err := f.svc.Certificates.Issue(ctx, admin, models.IssueCertificate{StudentID: "STU-1", CourseID: "CRS-1", Marks: 70})
	require.NoError(t, err)
	assert.Equal(t, "STU-1/01", cert.ID)
	assert.Equal(t, enr.ID, cert.EnrollmentID)

	stored, err := f.repos.Enrollments.Get(ctx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateIssued, stored.CertificateStatus)

	_, err = f.svc.Certificates.Apply(ctx, sessionOf(student), enr.ID)
	assert.ErrorIs(t, err, ErrCertificateExists)
}

func TestCertificates_ApplyRejectedWhenCertificateExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "TCH-1", 4)
	_, err := f.svc.Certificates.Issue(ctx, admin, models.IssueCertificate{StudentID: "STU-1", CourseID: "CRS-1", Marks: 70})
	require.NoError(t, err)

	// enrollment created after the certificate, still at none
	enr := f.enrollment(t, "ENR-1", student.ID, "CRS-1", 90, models.EnrollmentActive)
	_, err = f.svc.Certificates.Apply(ctx, sessionOf(student), enr.ID)
	assert.ErrorIs(t, err, ErrCertificateExists)

	stored, err := f.repos.Enrollments.Get(ctx, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateNone, stored.CertificateStatus)
}

func TestCertificates_ConcurrentIssueCreatesOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "", 1)
	req := models.IssueCertificate{StudentID: "STU-1", CourseID: "CRS-1"}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Certificates.Issue(ctx, admin, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrCertificateExists)
	}
	assert.Equal(t, 1, succeeded)

	n, err := f.repos.Certificates.Count(ctx, store.Where(store.Eq("studentId", "STU-1")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCertificates_RejectAndBulkApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	for _, c := range []string{"CRS-1", "CRS-2", "CRS-3"} {
		f.course(t, c, "", 1)
		f.enrollment(t, "ENR-"+c, student.ID, c, 100, models.EnrollmentCompleted)
		_, err := f.svc.Certificates.Apply(ctx, sessionOf(student), "ENR-"+c)
		require.NoError(t, err)
	}

	rejected, err := f.svc.Certificates.Reject(ctx, admin, "ENR-CRS-2")
	require.NoError(t, err)
	assert.Equal(t, models.CertificateNone, rejected.CertificateStatus)

	res, err := f.svc.Certificates.BulkApprove(ctx, admin, models.BulkApprove{
		EnrollmentIDs: []string{"ENR-CRS-1", "ENR-CRS-2", "ENR-CRS-3", "ENR-404"},
		Marks:         85,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Approved)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "ENR-CRS-2", res.Failed[0].ID)
	assert.Equal(t, "ENR-404", res.Failed[1].ID)
	assert.Equal(t, "STU-1/01", res.Certificates[0].ID)
	assert.Equal(t, "STU-1/02", res.Certificates[1].ID)

	_, err = f.svc.Certificates.Reject(ctx, admin, "ENR-CRS-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCertificates_DeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, models.RoleStudent, "STU-1")
	f.course(t, "CRS-1", "", 1)
	f.enrollment(t, "ENR-1", student.ID, "CRS-1", 100, models.EnrollmentCompleted)
	_, err := f.svc.Certificates.Apply(ctx, sessionOf(student), "ENR-1")
	require.NoError(t, err)
	cert, err := f.svc.Certificates.Approve(ctx, admin, "ENR-1", 80)
	require.NoError(t, err)

	_, err = f.svc.Certificates.Delete(ctx, sessionOf(student), cert.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	deleted, err := f.svc.Certificates.Delete(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.Certificates.Delete(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	enr, err := f.repos.Enrollments.Get(ctx, "ENR-1")
	require.NoError(t, err)
	assert.Equal(t, models.CertificateNone, enr.CertificateStatus)
}

func TestCertificates_ListScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	school := f.user(t, models.RoleSchool, "SCH-1")
	teacher := f.user(t, models.RoleTeacher, "TCH-1", inSchool(school.ID))
	amara := f.user(t, models.RoleStudent, "STU-1", inSchool(school.ID), func(u *models.User) { u.Name = "Amara Diallo" })
	ben := f.user(t, models.RoleStudent, "STU-2", func(u *models.User) { u.Name = "Ben Okafor" })
	f.course(t, "CRS-1", teacher.ID, 1)
	f.course(t, "CRS-2", "TCH-9", 1)
	for _, p := range [][2]string{{amara.ID, "CRS-1"}, {amara.ID, "CRS-2"}, {ben.ID, "CRS-1"}, {ben.ID, "CRS-2"}} {
		_, err := f.svc.Certificates.Issue(ctx, admin, models.IssueCertificate{StudentID: p[0], CourseID: p[1]})
		require.NoError(t, err)
	}

	ids := func(certs []models.Certificate) []string {
		out := []string{}
		for _, c := range certs {
			out = append(out, c.StudentID+":"+c.CourseID)
		}
		return out
	}

	tests := []struct {
		name   string
		sess   models.Session
		filter models.CertificateFilter
		want   []string
	}{
		{"student sees own", sessionOf(ben), models.CertificateFilter{StudentID: amara.ID}, []string{"STU-2:CRS-1", "STU-2:CRS-2"}},
		{"school sees its students", sessionOf(school), models.CertificateFilter{}, []string{"STU-1:CRS-1", "STU-1:CRS-2"}},
		{"teacher sees own courses", sessionOf(teacher), models.CertificateFilter{}, []string{"STU-1:CRS-1", "STU-2:CRS-1"}},
		{"teacher asking for another course", sessionOf(teacher), models.CertificateFilter{CourseID: "CRS-2"}, []string{}},
		{"admin search by name", admin, models.CertificateFilter{Search: "okafor"}, []string{"STU-2:CRS-1", "STU-2:CRS-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := f.svc.Certificates.List(ctx, tt.sess, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(certs))
		})
	}

	_, err := f.svc.Certificates.List(ctx, models.Session{UserID: "GOV-1", Role: models.RoleGovt}, models.CertificateFilter{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
