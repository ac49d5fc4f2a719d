package handlers

import (
	"io"
	"time"

	"github.com/arzan03/SchoolDesk/internal/metrics"
	"github.com/arzan03/SchoolDesk/internal/middleware"
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Options struct {
	AppName        string
	RequestTimeout time.Duration
	AllowOrigins   string
	// AccessLog receives one line per request; nil disables the access log.
	AccessLog io.Writer
}

// NewApp builds the fiber application with middleware and every route.
func NewApp(h *Handler, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		ErrorHandler:          ErrorHandler(h.log),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}
	app.Use(cors.New(cors.Config{AllowOrigins: opts.AllowOrigins}))
	app.Use(metrics.Middleware())
	app.Use(middleware.Timeout(opts.RequestTimeout))

	h.Routes(app)
	return app
}

func (h *Handler) Routes(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.svc.Auth)
	optional := middleware.OptionalAuth(h.svc.Auth)

	app.Get("/health", h.Health)
	app.Get("/metrics", metrics.Handler())

	// Auth Routes
	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.RegisterHandler)
	authGroup.Post("/login", h.LoginHandler)

	app.Get("/me", auth, h.Me)
	app.Patch("/me", auth, h.UpdateMe)

	// Public Routes
	app.Get("/plans", h.ListActivePlans)
	app.Post("/contact", h.CreateLead)
	app.Get("/content", optional, h.ListContent)
	app.Get("/content/:slug", h.GetContent)

	users := app.Group("/users", auth)
	users.Post("/", h.CreateUser)
	users.Get("/", h.ListUsers)
	users.Get("/:id", h.GetUser)
	users.Patch("/:id", h.UpdateUser)
	users.Patch("/:id/status", h.SetUserStatus)
	users.Delete("/:id", h.DeleteUser)

	courses := app.Group("/courses")
	courses.Get("/", optional, h.ListCourses)
	courses.Get("/:id", optional, h.GetCourse)
	courses.Post("/", auth, h.CreateCourse)
	courses.Patch("/:id", auth, h.UpdateCourse)
	courses.Post("/:id/publish", auth, h.PublishCourse)
	courses.Post("/:id/unpublish", auth, h.UnpublishCourse)
	courses.Delete("/:id", auth, h.DeleteCourse)

	enrollments := app.Group("/enrollments", auth)
	enrollments.Post("/", h.Enroll)
	enrollments.Get("/", h.ListEnrollments)
	enrollments.Get("/:id", h.GetEnrollment)
	enrollments.Patch("/:id/status", h.SetEnrollmentStatus)
	enrollments.Post("/:id/lessons/:lessonId/complete", h.CompleteLesson)
	enrollments.Post("/:id/certificate/apply", h.ApplyCertificate)
	enrollments.Post("/:id/certificate/approve", h.ApproveCertificate)
	enrollments.Post("/:id/certificate/reject", h.RejectCertificate)

	// Certificate Routes; export is registered before /:id
	certs := app.Group("/certificates", auth)
	certs.Get("/", h.ListCertificates)
	certs.Post("/", h.IssueCertificate)
	certs.Post("/bulk-approve", h.BulkApprove)
	certs.Get("/export", h.ExportZIPHandler)
	certs.Post("/export", h.StoreExportHandler)
	certs.Get("/:id/pdf", h.CertificatePDFHandler)
	certs.Get("/:id", h.GetCertificate)
	certs.Delete("/:id", h.DeleteCertificate)

	dashboard := app.Group("/dashboard", auth)
	dashboard.Get("/", h.MyDashboard)
	dashboard.Get("/admin", h.AdminDashboard)
	dashboard.Get("/support", h.SupportDashboard)
	dashboard.Get("/schools/:id", h.SchoolDashboard)
	dashboard.Get("/teachers/:id", h.TeacherDashboard)
	dashboard.Get("/govt/:id", h.GovernmentDashboard)
	dashboard.Get("/students/:id", h.StudentDashboard)

	payments := app.Group("/payments", auth)
	payments.Post("/orders", h.CreateOrder)
	payments.Post("/verify", h.VerifyPayment)
	payments.Get("/", h.ListPayments)

	tickets := app.Group("/tickets", auth)
	tickets.Post("/", h.CreateTicket)
	tickets.Get("/", h.ListTickets)
	tickets.Get("/:id", h.GetTicket)
	tickets.Post("/:id/replies", h.ReplyTicket)
	tickets.Patch("/:id/status", h.UpdateTicketStatus)
	tickets.Delete("/:id", h.DeleteTicket)

	leads := app.Group("/leads", auth, middleware.RequireRoles(models.StaffRoles...))
	leads.Get("/", h.ListLeads)
	leads.Get("/:id", h.GetLead)
	leads.Patch("/:id", h.UpdateLead)
	leads.Delete("/:id", h.DeleteLead)

	// Admin Routes
	admin := app.Group("/admin", auth, middleware.AdminMiddleware())
	admin.Get("/plans", h.ListPlans)
	admin.Post("/plans", h.CreatePlan)
	admin.Patch("/plans/:id", h.UpdatePlan)
	admin.Delete("/plans/:id", h.DeletePlan)
	admin.Put("/content/:slug", h.UpsertContent)
	admin.Delete("/content/:slug", h.DeleteContent)
}
