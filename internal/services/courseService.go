package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type CourseService struct {
	courses store.Collection[models.Course]
	log     logrus.FieldLogger
}

func NewCourseService(repos store.Repos, log logrus.FieldLogger) *CourseService {
	return &CourseService{courses: repos.Courses, log: log}
}

// owns reports whether the caller may edit course.
func owns(sess models.Session, course models.Course) bool {
	return sess.Role == models.RoleSuperAdmin ||
		(sess.Role == models.RoleTeacher && course.InstructorRef == sess.UserID)
}

// withLessonIDs assigns IDs to lessons that have none and rejects a
// curriculum in which two lessons share an ID.
func withLessonIDs(curriculum []models.Module) ([]models.Module, error) {
	seen := map[string]bool{}
	out := make([]models.Module, len(curriculum))
	for i, m := range curriculum {
		lessons := make([]models.Lesson, len(m.Lessons))
		for j, l := range m.Lessons {
			if l.ID == "" {
				l.ID = models.NewID("LSN")
			}
			if seen[l.ID] {
				return nil, validation.NewFieldError("curriculum", fmt.Sprintf("lesson id %s is used more than once", l.ID))
			}
			seen[l.ID] = true
			lessons[j] = l
		}
		out[i] = models.Module{Title: m.Title, Lessons: lessons}
	}
	return out, nil
}

func (s *CourseService) Create(ctx context.Context, sess models.Session, nc models.NewCourse) (models.Course, error) {
	if err := authorize(sess, models.CourseAuthor...); err != nil {
		return models.Course{}, err
	}
	if sess.Role == models.RoleTeacher {
		nc.InstructorRef = sess.UserID
	}
	if err := validation.Struct(nc); err != nil {
		return models.Course{}, err
	}
	curriculum, err := withLessonIDs(nc.Curriculum)
	if err != nil {
		return models.Course{}, err
	}

	course := models.Course{
		Base:          models.Base{ID: models.NewID("CRS")},
		Title:         strings.TrimSpace(nc.Title),
		Description:   nc.Description,
		Category:      nc.Category,
		InstructorRef: nc.InstructorRef,
		Price:         nc.Price,
		Published:     nc.Published,
		Curriculum:    curriculum,
	}
	if err := s.courses.Insert(ctx, &course); err != nil {
		return models.Course{}, errors.Wrap(err, "create course")
	}
	s.log.WithFields(logrus.Fields{"course_id": course.ID, "by": sess.UserID}).Info("course created")
	return course, nil
}

// Get returns a course. Unpublished courses are only visible to their authors.
func (s *CourseService) Get(ctx context.Context, sess models.Session, ref string) (models.Course, error) {
	course, err := s.courses.Get(ctx, ref)
	if err != nil {
		return models.Course{}, notFound(err, "course", ref)
	}
	if !course.Published && !owns(sess, course) && sess.Role != models.RoleHelpSupport {
		return models.Course{}, errors.Wrapf(ErrNotFound, "course %s", ref)
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, sess models.Session, f models.CourseFilter) (models.Page[models.Course], error) {
	var filter store.Filter
	if f.Category != "" {
		filter = filter.And(store.Eq("category", f.Category))
	}
	if f.InstructorRef != "" {
		filter = filter.And(store.Eq("instructorRef", f.InstructorRef))
	}
	if f.Search != "" {
		filter = filter.And(store.Search(f.Search, "title", "description", "customId"))
	}
	switch {
	case sess.Role.In(models.StaffRoles...):
	case sess.Role == models.RoleTeacher && f.InstructorRef == sess.UserID:
	default:
		filter = filter.And(store.Eq("published", true))
	}

	opts, page, perPage := pageOptions(f.Page, f.PerPage, "title", false)
	total, err := s.courses.Count(ctx, filter)
	if err != nil {
		return models.Page[models.Course]{}, errors.Wrap(err, "count courses")
	}
	courses, err := s.courses.Find(ctx, filter, opts)
	if err != nil {
		return models.Page[models.Course]{}, errors.Wrap(err, "list courses")
	}
	return models.Page[models.Course]{Items: courses, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *CourseService) Update(ctx context.Context, sess models.Session, ref string, cu models.CourseUpdate) (models.Course, error) {
	if err := authorize(sess, models.CourseAuthor...); err != nil {
		return models.Course{}, err
	}
	if err := validation.Struct(cu); err != nil {
		return models.Course{}, err
	}
	course, err := s.courses.Get(ctx, ref)
	if err != nil {
		return models.Course{}, notFound(err, "course", ref)
	}
	if !owns(sess, course) {
		return models.Course{}, ErrUnauthorized
	}

	set := store.Set{}
	if cu.Title != nil {
		set["title"] = strings.TrimSpace(*cu.Title)
	}
	if cu.Description != nil {
		set["description"] = *cu.Description
	}
	if cu.Category != nil {
		set["category"] = *cu.Category
	}
	if cu.Price != nil {
		set["price"] = *cu.Price
	}
	if cu.Published != nil {
		set["published"] = *cu.Published
	}
	if cu.Curriculum != nil {
		curriculum, err := withLessonIDs(cu.Curriculum)
		if err != nil {
			return models.Course{}, err
		}
		set["curriculum"] = curriculum
	}
	if len(set) == 0 {
		return course, nil
	}
	if err = s.courses.Update(ctx, course.ID, set); err != nil {
		return models.Course{}, notFound(err, "course", course.ID)
	}
	updated, err := s.courses.Get(ctx, course.ID)
	if err != nil {
		return models.Course{}, notFound(err, "course", course.ID)
	}
	return updated, nil
}

func (s *CourseService) SetPublished(ctx context.Context, sess models.Session, ref string, published bool) (models.Course, error) {
	return s.Update(ctx, sess, ref, models.CourseUpdate{Published: &published})
}

// Delete removes a course. Deleting a course that does not exist reports false.
func (s *CourseService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.CourseAuthor...); err != nil {
		return false, err
	}
	course, err := s.courses.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get course")
	}
	if !owns(sess, course) {
		return false, ErrUnauthorized
	}

	deleted, err := s.courses.Delete(ctx, course.ID)
	if err != nil {
		return false, errors.Wrapf(err, "delete course %s", course.ID)
	}
	if deleted {
		s.log.WithFields(logrus.Fields{"course_id": course.ID, "by": sess.UserID}).Info("course deleted")
	}
	return deleted, nil
}
