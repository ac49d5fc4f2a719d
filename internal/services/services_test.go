package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arzan03/SchoolDesk/internal/certpdf"
	"github.com/arzan03/SchoolDesk/internal/logger"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/notify"
	"github.com/arzan03/SchoolDesk/internal/storage"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/store/memstore"
	"github.com/stretchr/testify/require"
)

const testPaymentSecret = "pay-secret"

var admin = models.Session{UserID: "ADM-1", Role: models.RoleSuperAdmin}

type mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	svc     *Services
	repos   store.Repos
	objects *storage.Memory
	mail    *mailbox
}

// newFixture builds the services over an in-memory store. wrap may replace
// collections, e.g. with failing ones.
func newFixture(t *testing.T, wrap ...func(*store.Repos)) *fixture {
	t.Helper()
	repos := memstore.NewRepos()
	for _, w := range wrap {
		w(&repos)
	}
	renderer, err := certpdf.NewRenderer("SchoolDesk", "")
	require.NoError(t, err)
	objects := storage.NewMemory()
	mail := &mailbox{}
	cfg := Config{
		AppName:         "SchoolDesk",
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		MinProgress:     75,
		PaymentSecret:   testPaymentSecret,
		Currency:        "INR",
		ExportRetention: 24 * time.Hour,
		ExportURLExpiry: 30 * time.Minute,
	}
	return &fixture{
		svc:     New(cfg, repos, objects, renderer, mail, logger.Discard()),
		repos:   repos,
		objects: objects,
		mail:    mail,
	}
}

func sessionOf(u models.User) models.Session {
	return models.Session{UserID: u.ID, Role: u.Role}
}

func (f *fixture) user(t *testing.T, role models.Role, id string, opts ...func(*models.User)) models.User {
	t.Helper()
	u := models.User{
		Base:   models.Base{ID: id},
		Name:   "User " + id,
		Email:  strings.ToLower(id) + "@school.test",
		Role:   role,
		Status: models.UserActive,
	}
	for _, opt := range opts {
		opt(&u)
	}
	require.NoError(t, f.repos.Users.Insert(context.Background(), &u))
	return u
}

func inSchool(schoolID string) func(*models.User) {
	return func(u *models.User) { u.SchoolRef = schoolID }
}

func (f *fixture) course(t *testing.T, id, instructor string, lessons int) models.Course {
	t.Helper()
	mod := models.Module{Title: "Unit 1"}
	for i := 0; i < lessons; i++ {
		mod.Lessons = append(mod.Lessons, models.Lesson{ID: id + "-L" + string(rune('A'+i)), Title: "Lesson"})
	}
	c := models.Course{
		Base:          models.Base{ID: id},
		Title:         "Course " + id,
		Category:      "math",
		InstructorRef: instructor,
		Price:         499,
		Published:     true,
		Curriculum:    []models.Module{mod},
	}
	require.NoError(t, f.repos.Courses.Insert(context.Background(), &c))
	return c
}

func (f *fixture) enrollment(t *testing.T, id, studentID, courseID string, progress int, status models.EnrollmentStatus) models.Enrollment {
	t.Helper()
	e := models.Enrollment{
		Base:              models.Base{ID: id},
		StudentID:         studentID,
		CourseID:          courseID,
		Progress:          progress,
		Status:            status,
		CertificateStatus: models.CertificateNone,
		CompletedLessons:  []string{},
	}
	require.NoError(t, f.repos.Enrollments.Insert(context.Background(), &e))
	return e
}
