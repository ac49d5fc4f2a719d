package services

import (
	"context"
	"math"
	"sort"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DashboardService folds raw records into per-tenant statistics. Every call
// re-reads the records it needs; independent reads run concurrently.
type DashboardService struct {
	repos store.Repos
	log   logrus.FieldLogger
}

func NewDashboardService(repos store.Repos, log logrus.FieldLogger) *DashboardService {
	return &DashboardService{repos: repos, log: log}
}

// CompletionRate is round(100*completed/enrolled), 0 when nothing is enrolled.
func CompletionRate(completed, enrolled int) int {
	if enrolled <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(enrolled)))
}

type EnrollmentSummary struct {
	TotalEnrollments     int     `json:"totalEnrollments"`
	CompletedEnrollments int     `json:"completedEnrollments"`
	CompletionRate       int     `json:"completionRate"`
	AverageProgress      float64 `json:"averageProgress"`
}

func summarize(enrs []models.Enrollment) EnrollmentSummary {
	var sum EnrollmentSummary
	progress := 0
	for _, e := range enrs {
		sum.TotalEnrollments++
		progress += e.Progress
		if e.Status == models.EnrollmentCompleted {
			sum.CompletedEnrollments++
		}
	}
	sum.CompletionRate = CompletionRate(sum.CompletedEnrollments, sum.TotalEnrollments)
	if sum.TotalEnrollments > 0 {
		sum.AverageProgress = math.Round(float64(progress)/float64(sum.TotalEnrollments)*10) / 10
	}
	return sum
}

type MonthlyPoint struct {
	Month       string  `json:"month"`
	NewStudents int     `json:"newStudents"`
	Revenue     float64 `json:"revenue"`
}

type AdminDashboard struct {
	TotalStudents        int64          `json:"totalStudents"`
	TotalSchools         int64          `json:"totalSchools"`
	TotalTeachers        int64          `json:"totalTeachers"`
	TotalGovt            int64          `json:"totalGovt"`
	TotalCourses         int64          `json:"totalCourses"`
	TotalEnrollments     int64          `json:"totalEnrollments"`
	CompletedEnrollments int64          `json:"completedEnrollments"`
	TotalCertificates    int64          `json:"totalCertificates"`
	CompletionRate       int            `json:"completionRate"`
	Revenue              float64        `json:"revenue"`
	MonthlyGrowth        []MonthlyPoint `json:"monthlyGrowth"`
}

type SchoolDashboard struct {
	SchoolID string `json:"schoolId"`
	Name     string `json:"name"`
	EnrollmentSummary
	TotalStudents      int            `json:"totalStudents"`
	TotalTeachers      int64          `json:"totalTeachers"`
	StudentsByGrade    map[string]int `json:"studentsByGrade"`
	CertificatesIssued int64          `json:"certificatesIssued"`
}

type CourseBreakdown struct {
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	EnrollmentSummary
}

type TeacherDashboard struct {
	TeacherID string `json:"teacherId"`
	EnrollmentSummary
	TotalCourses     int               `json:"totalCourses"`
	DistinctStudents int               `json:"distinctStudents"`
	Courses          []CourseBreakdown `json:"courses"`
}

type SchoolBreakdown struct {
	SchoolID string `json:"schoolId"`
	Name     string `json:"name"`
	Students int    `json:"students"`
	EnrollmentSummary
}

type GovernmentDashboard struct {
	GovtID string `json:"govtId"`
	EnrollmentSummary
	TotalSchools  int               `json:"totalSchools"`
	TotalStudents int               `json:"totalStudents"`
	Schools       []SchoolBreakdown `json:"schools"`
}

type StudentDashboard struct {
	StudentID string `json:"studentId"`
	EnrollmentSummary
	Certificates int64 `json:"certificates"`
}

type SupportDashboard struct {
	TotalTickets int64            `json:"totalTickets"`
	ByStatus     map[string]int64 `json:"byStatus"`
	ByPriority   map[string]int64 `json:"byPriority"`
}

func counter[T any](c store.Collection[T], f store.Filter) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) { return c.Count(ctx, f) }
}

func finder[T any](c store.Collection[T], f store.Filter) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) { return c.Find(ctx, f) }
}

func (s *DashboardService) fail(kind, tenant string, err error) error {
	s.log.WithError(err).WithFields(logrus.Fields{"dashboard": kind, "tenant": tenant}).Error("dashboard fetch failed")
	return errors.Wrapf(err, "%s dashboard", kind)
}

// Mine returns the dashboard matching the caller's role.
func (s *DashboardService) Mine(ctx context.Context, sess models.Session) (interface{}, error) {
	switch sess.Role {
	case models.RoleSuperAdmin:
		return s.Admin(ctx, sess)
	case models.RoleSchool:
		return s.School(ctx, sess, sess.UserID)
	case models.RoleTeacher:
		return s.Teacher(ctx, sess, sess.UserID)
	case models.RoleGovt:
		return s.Government(ctx, sess, sess.UserID)
	case models.RoleStudent:
		return s.Student(ctx, sess, sess.UserID)
	case models.RoleHelpSupport:
		return s.Support(ctx, sess)
	}
	return nil, ErrUnauthorized
}

func (s *DashboardService) Admin(ctx context.Context, sess models.Session) (AdminDashboard, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return AdminDashboard{}, err
	}

	var (
		d        AdminDashboard
		students []models.User
		payments []models.Payment
	)
	users := s.repos.Users
	err := utils.RunParallel(ctx,
		utils.Fetch(&students, finder(users, store.Where(store.Eq("role", models.RoleStudent)))),
		utils.Fetch(&d.TotalSchools, counter(users, store.Where(store.Eq("role", models.RoleSchool)))),
		utils.Fetch(&d.TotalTeachers, counter(users, store.Where(store.Eq("role", models.RoleTeacher)))),
		utils.Fetch(&d.TotalGovt, counter(users, store.Where(store.Eq("role", models.RoleGovt)))),
		utils.Fetch(&d.TotalCourses, counter(s.repos.Courses, nil)),
		utils.Fetch(&d.TotalEnrollments, counter(s.repos.Enrollments, nil)),
		utils.Fetch(&d.CompletedEnrollments, counter(s.repos.Enrollments,
			store.Where(store.Eq("status", models.EnrollmentCompleted)))),
		utils.Fetch(&d.TotalCertificates, counter(s.repos.Certificates, nil)),
		utils.Fetch(&payments, finder(s.repos.Payments, store.Where(store.Eq("status", models.PaymentPaid)))),
	)
	if err != nil {
		return AdminDashboard{}, s.fail("admin", sess.UserID, err)
	}

	d.TotalStudents = int64(len(students))
	d.CompletionRate = CompletionRate(int(d.CompletedEnrollments), int(d.TotalEnrollments))

	months := map[string]*MonthlyPoint{}
	point := func(key string) *MonthlyPoint {
		p, ok := months[key]
		if !ok {
			p = &MonthlyPoint{Month: key}
			months[key] = p
		}
		return p
	}
	for _, st := range students {
		point(st.CreatedAt.UTC().Format("2006-01")).NewStudents++
	}
	for _, p := range payments {
		d.Revenue += p.Amount
		point(p.CreatedAt.UTC().Format("2006-01")).Revenue += p.Amount
	}
	d.MonthlyGrowth = make([]MonthlyPoint, 0, len(months))
	for _, p := range months {
		d.MonthlyGrowth = append(d.MonthlyGrowth, *p)
	}
	sort.Slice(d.MonthlyGrowth, func(i, j int) bool { return d.MonthlyGrowth[i].Month < d.MonthlyGrowth[j].Month })
	return d, nil
}

// tenant loads a user of the given role, reporting other roles as not found.
func (s *DashboardService) tenant(ctx context.Context, ref string, role models.Role) (models.User, error) {
	u, err := s.repos.Users.Get(ctx, ref)
	if err != nil {
		return models.User{}, notFound(err, string(role), ref)
	}
	if u.Role != role {
		return models.User{}, errors.Wrapf(ErrNotFound, "%s %s", role, ref)
	}
	return u, nil
}

func (s *DashboardService) School(ctx context.Context, sess models.Session, schoolRef string) (SchoolDashboard, error) {
	school, err := s.tenant(ctx, schoolRef, models.RoleSchool)
	if err != nil {
		return SchoolDashboard{}, err
	}
	switch {
	case sess.Role.In(models.StaffRoles...):
	case sess.Role == models.RoleSchool && sess.UserID == school.ID:
	case sess.Role == models.RoleGovt && school.GovtRef == sess.UserID:
	default:
		return SchoolDashboard{}, ErrUnauthorized
	}

	d := SchoolDashboard{SchoolID: school.ID, Name: school.Name, StudentsByGrade: map[string]int{}}
	var students []models.User
	err = utils.RunParallel(ctx,
		utils.Fetch(&students, func(ctx context.Context) ([]models.User, error) {
			return studentsOfSchool(ctx, s.repos.Users, school.ID)
		}),
		utils.Fetch(&d.TotalTeachers, counter(s.repos.Users, store.Where(
			store.Eq("role", models.RoleTeacher), store.Eq("schoolRef", school.ID)))),
	)
	if err != nil {
		return SchoolDashboard{}, s.fail("school", school.ID, err)
	}

	ids := idsOf(students)
	var enrollments []models.Enrollment
	err = utils.RunParallel(ctx,
		utils.Fetch(&enrollments, finder(s.repos.Enrollments, store.Where(store.In("studentId", ids...)))),
		utils.Fetch(&d.CertificatesIssued, counter(s.repos.Certificates, store.Where(store.In("studentId", ids...)))),
	)
	if err != nil {
		return SchoolDashboard{}, s.fail("school", school.ID, err)
	}

	d.TotalStudents = len(students)
	for _, st := range students {
		grade := st.Grade
		if grade == "" {
			grade = "unassigned"
		}
		d.StudentsByGrade[grade]++
	}
	d.EnrollmentSummary = summarize(enrollments)
	return d, nil
}

func (s *DashboardService) Teacher(ctx context.Context, sess models.Session, teacherRef string) (TeacherDashboard, error) {
	teacher, err := s.tenant(ctx, teacherRef, models.RoleTeacher)
	if err != nil {
		return TeacherDashboard{}, err
	}
	switch {
	case sess.Role.In(models.StaffRoles...):
	case sess.Role == models.RoleTeacher && sess.UserID == teacher.ID:
	case sess.Role == models.RoleSchool && teacher.SchoolRef == sess.UserID:
	default:
		return TeacherDashboard{}, ErrUnauthorized
	}

	courses, err := coursesOfInstructor(ctx, s.repos.Courses, teacher.ID)
	if err != nil {
		return TeacherDashboard{}, s.fail("teacher", teacher.ID, err)
	}
	enrollments, err := s.repos.Enrollments.Find(ctx, store.Where(store.In("courseId", idsOf(courses)...)))
	if err != nil {
		return TeacherDashboard{}, s.fail("teacher", teacher.ID, err)
	}

	byCourse := map[string][]models.Enrollment{}
	students := map[string]struct{}{}
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
		students[e.StudentID] = struct{}{}
	}

	d := TeacherDashboard{
		TeacherID:         teacher.ID,
		EnrollmentSummary: summarize(enrollments),
		TotalCourses:      len(courses),
		DistinctStudents:  len(students),
		Courses:           make([]CourseBreakdown, 0, len(courses)),
	}
	for _, c := range courses {
		d.Courses = append(d.Courses, CourseBreakdown{
			CourseID:          c.ID,
			Title:             c.Title,
			EnrollmentSummary: summarize(byCourse[c.ID]),
		})
	}
	return d, nil
}

func (s *DashboardService) Government(ctx context.Context, sess models.Session, govtRef string) (GovernmentDashboard, error) {
	govt, err := s.tenant(ctx, govtRef, models.RoleGovt)
	if err != nil {
		return GovernmentDashboard{}, err
	}
	if !sess.Role.In(models.StaffRoles...) && !(sess.Role == models.RoleGovt && sess.UserID == govt.ID) {
		return GovernmentDashboard{}, ErrUnauthorized
	}

	schools, err := s.repos.Users.Find(ctx, store.Where(
		store.Eq("role", models.RoleSchool), store.Eq("govtRef", govt.ID)), store.FindOptions{SortBy: "name"})
	if err != nil {
		return GovernmentDashboard{}, s.fail("government", govt.ID, err)
	}
	students, err := s.repos.Users.Find(ctx, store.Where(
		store.Eq("role", models.RoleStudent), store.In("schoolRef", idsOf(schools)...)))
	if err != nil {
		return GovernmentDashboard{}, s.fail("government", govt.ID, err)
	}
	enrollments, err := s.repos.Enrollments.Find(ctx, store.Where(store.In("studentId", idsOf(students)...)))
	if err != nil {
		return GovernmentDashboard{}, s.fail("government", govt.ID, err)
	}

	schoolOf := make(map[string]string, len(students))
	studentsPerSchool := map[string]int{}
	for _, st := range students {
		schoolOf[st.ID] = st.SchoolRef
		studentsPerSchool[st.SchoolRef]++
	}
	enrollmentsPerSchool := map[string][]models.Enrollment{}
	for _, e := range enrollments {
		sid := schoolOf[e.StudentID]
		enrollmentsPerSchool[sid] = append(enrollmentsPerSchool[sid], e)
	}

	d := GovernmentDashboard{
		GovtID:            govt.ID,
		EnrollmentSummary: summarize(enrollments),
		TotalSchools:      len(schools),
		TotalStudents:     len(students),
		Schools:           make([]SchoolBreakdown, 0, len(schools)),
	}
	for _, sc := range schools {
		d.Schools = append(d.Schools, SchoolBreakdown{
			SchoolID:          sc.ID,
			Name:              sc.Name,
			Students:          studentsPerSchool[sc.ID],
			EnrollmentSummary: summarize(enrollmentsPerSchool[sc.ID]),
		})
	}
	return d, nil
}

func (s *DashboardService) Student(ctx context.Context, sess models.Session, studentRef string) (StudentDashboard, error) {
	if !sess.Role.In(models.StaffRoles...) && sess.UserID != studentRef {
		return StudentDashboard{}, ErrUnauthorized
	}
	student, err := s.tenant(ctx, studentRef, models.RoleStudent)
	if err != nil {
		return StudentDashboard{}, err
	}

	var (
		d           = StudentDashboard{StudentID: student.ID}
		enrollments []models.Enrollment
		mine        = store.Where(store.Eq("studentId", student.ID))
	)
	err = utils.RunParallel(ctx,
		utils.Fetch(&enrollments, finder(s.repos.Enrollments, mine)),
		utils.Fetch(&d.Certificates, counter(s.repos.Certificates, mine)),
	)
	if err != nil {
		return StudentDashboard{}, s.fail("student", student.ID, err)
	}
	d.EnrollmentSummary = summarize(enrollments)
	return d, nil
}

func (s *DashboardService) Support(ctx context.Context, sess models.Session) (SupportDashboard, error) {
	if err := authorize(sess, models.StaffRoles...); err != nil {
		return SupportDashboard{}, err
	}
	tickets, err := s.repos.Tickets.Find(ctx, nil)
	if err != nil {
		return SupportDashboard{}, s.fail("support", sess.UserID, err)
	}

	d := SupportDashboard{
		TotalTickets: int64(len(tickets)),
		ByStatus:     map[string]int64{},
		ByPriority:   map[string]int64{},
	}
	for _, st := range []models.TicketStatus{models.TicketOpen, models.TicketInProgress, models.TicketResolved, models.TicketClosed} {
		d.ByStatus[string(st)] = 0
	}
	for _, t := range tickets {
		d.ByStatus[string(t.Status)]++
		d.ByPriority[string(t.Priority)]++
	}
	return d, nil
}
