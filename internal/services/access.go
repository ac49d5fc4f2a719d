package services

import (
	"context"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
)

// authorize rejects callers whose role is not in the allow-list.
func authorize(sess models.Session, roles ...models.Role) error {
	if sess.UserID == "" || !sess.Role.In(roles...) {
		return ErrUnauthorized
	}
	return nil
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func pageOptions(page, perPage int, sortBy string, desc bool) (store.FindOptions, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return store.FindOptions{
		SortBy: sortBy,
		Desc:   desc,
		Limit:  int64(perPage),
		Skip:   int64((page - 1) * perPage),
	}, page, perPage
}

// idsOf returns the custom IDs of docs.
func idsOf[T any, P store.Document[T]](docs []T) []string {
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = P(&docs[i]).Meta().ID
	}
	return ids
}

func studentsOfSchool(ctx context.Context, users store.Collection[models.User], schoolID string) ([]models.User, error) {
	students, err := users.Find(ctx, store.Where(
		store.Eq("role", models.RoleStudent),
		store.Eq("schoolRef", schoolID),
	))
	return students, errors.Wrapf(err, "students of school %s", schoolID)
}

func coursesOfInstructor(ctx context.Context, courses store.Collection[models.Course], teacherID string) ([]models.Course, error) {
	list, err := courses.Find(ctx, store.Where(store.Eq("instructorRef", teacherID)))
	return list, errors.Wrapf(err, "courses of instructor %s", teacherID)
}

// restrict narrows the values of field to allowed, keeping an explicit
// request for a single value only if it is allowed.
func restrict(filter store.Filter, field, requested string, allowed []string) store.Filter {
	if requested == "" {
		return filter.And(store.In(field, allowed...))
	}
	for _, id := range allowed {
		if id == requested {
			return filter.And(store.Eq(field, requested))
		}
	}
	return filter.And(store.In(field))
}

// tenantScope builds the filter for listings of per-student, per-course
// documents (enrollments, certificates) visible to the caller.
func tenantScope(ctx context.Context, repos store.Repos, sess models.Session, studentID, courseID string) (store.Filter, error) {
	var filter store.Filter
	switch sess.Role {
	case models.RoleSuperAdmin, models.RoleHelpSupport:
		if studentID != "" {
			filter = filter.And(store.Eq("studentId", studentID))
		}
	case models.RoleStudent:
		filter = filter.And(store.Eq("studentId", sess.UserID))
	case models.RoleSchool:
		students, err := studentsOfSchool(ctx, repos.Users, sess.UserID)
		if err != nil {
			return nil, err
		}
		filter = restrict(filter, "studentId", studentID, idsOf(students))
	case models.RoleTeacher:
		courses, err := coursesOfInstructor(ctx, repos.Courses, sess.UserID)
		if err != nil {
			return nil, err
		}
		filter = restrict(filter, "courseId", courseID, idsOf(courses))
		if studentID != "" {
			filter = filter.And(store.Eq("studentId", studentID))
		}
		return filter, nil
	default:
		return nil, ErrUnauthorized
	}
	if courseID != "" {
		filter = filter.And(store.Eq("courseId", courseID))
	}
	return filter, nil
}

// canSeeStudentRecord reports whether the caller may read a document
// belonging to studentID in courseID.
func canSeeStudentRecord(ctx context.Context, repos store.Repos, sess models.Session, studentID, courseID string) (bool, error) {
	switch sess.Role {
	case models.RoleSuperAdmin, models.RoleHelpSupport:
		return true, nil
	case models.RoleStudent:
		return studentID == sess.UserID, nil
	case models.RoleSchool:
		student, err := repos.Users.Get(ctx, studentID)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "get student")
		}
		return student.SchoolRef == sess.UserID, nil
	case models.RoleTeacher:
		course, err := repos.Courses.Get(ctx, courseID)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "get course")
		}
		return course.InstructorRef == sess.UserID, nil
	}
	return false, nil
}
