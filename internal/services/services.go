package services

import (
	"time"

	"github.com/arzan03/SchoolDesk/internal/certpdf"
	"github.com/arzan03/SchoolDesk/internal/notify"
	"github.com/arzan03/SchoolDesk/internal/storage"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/sirupsen/logrus"
)

type Config struct {
	AppName         string
	JWTSecret       string
	JWTTTL          time.Duration
	MinProgress     int
	PaymentSecret   string
	Currency        string
	ExportRetention time.Duration
	ExportURLExpiry time.Duration
}

type Services struct {
	Auth         *AuthService
	Users        *UserService
	Courses      *CourseService
	Enrollments  *EnrollmentService
	Certificates *CertificateService
	Exports      *ExportService
	Dashboard    *DashboardService
	Payments     *PaymentService
	Plans        *PlanService
	Tickets      *TicketService
	Leads        *LeadService
	Contents     *ContentService
}

func New(cfg Config, repos store.Repos, objects storage.ObjectStore, renderer *certpdf.Renderer,
	notifier notify.Notifier, log logrus.FieldLogger) *Services {
	enrollments := NewEnrollmentService(repos, log)
	certificates := NewCertificateService(repos, notifier, cfg.AppName, cfg.MinProgress, log)
	return &Services{
		Auth:         NewAuthService(repos.Users, cfg.JWTSecret, cfg.JWTTTL, log),
		Users:        NewUserService(repos, log),
		Courses:      NewCourseService(repos, log),
		Enrollments:  enrollments,
		Certificates: certificates,
		Exports:      NewExportService(certificates, renderer, objects, cfg.ExportRetention, cfg.ExportURLExpiry, log),
		Dashboard:    NewDashboardService(repos, log),
		Payments:     NewPaymentService(repos, enrollments, cfg.PaymentSecret, cfg.Currency, log),
		Plans:        NewPlanService(repos.Plans, log),
		Tickets:      NewTicketService(repos.Tickets, log),
		Leads:        NewLeadService(repos.Leads, log),
		Contents:     NewContentService(repos.Contents, log),
	}
}
