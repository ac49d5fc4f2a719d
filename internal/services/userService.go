package services

import (
	"context"
	"strings"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// UserService manages accounts of every role. Schools manage their own
// students and teachers, governments their schools, superadmins everyone.
type UserService struct {
	users store.Collection[models.User]
	log   logrus.FieldLogger
}

func NewUserService(repos store.Repos, log logrus.FieldLogger) *UserService {
	return &UserService{users: repos.Users, log: log}
}

// manageable reports whether the caller may modify target.
func manageable(sess models.Session, target models.User) bool {
	switch sess.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleSchool:
		return target.SchoolRef == sess.UserID && target.Role.In(models.RoleStudent, models.RoleTeacher)
	case models.RoleGovt:
		return target.GovtRef == sess.UserID && target.Role == models.RoleSchool
	}
	return false
}

// visible reports whether the caller may read target.
func (s *UserService) visible(ctx context.Context, sess models.Session, target models.User) (bool, error) {
	if sess.UserID == target.ID || sess.Role.In(models.StaffRoles...) || manageable(sess, target) {
		return true, nil
	}
	switch sess.Role {
	case models.RoleGovt:
		if target.SchoolRef == "" {
			return false, nil
		}
		school, err := s.users.Get(ctx, target.SchoolRef)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "get school")
		}
		return school.GovtRef == sess.UserID, nil
	case models.RoleTeacher:
		if target.Role != models.RoleStudent || target.SchoolRef == "" {
			return false, nil
		}
		teacher, err := s.users.Get(ctx, sess.UserID)
		if err != nil {
			return false, notFound(err, "teacher", sess.UserID)
		}
		return teacher.SchoolRef == target.SchoolRef, nil
	}
	return false, nil
}

func (s *UserService) Create(ctx context.Context, sess models.Session, nu models.NewUser) (models.User, error) {
	switch sess.Role {
	case models.RoleSuperAdmin:
	case models.RoleSchool:
		if !nu.Role.In(models.RoleStudent, models.RoleTeacher) {
			return models.User{}, ErrUnauthorized
		}
		nu.SchoolRef = sess.UserID
	case models.RoleGovt:
		if nu.Role != models.RoleSchool {
			return models.User{}, ErrUnauthorized
		}
		nu.GovtRef = sess.UserID
	default:
		return models.User{}, ErrUnauthorized
	}
	nu.Email = NormalizeEmail(nu.Email)
	if err := validation.Struct(nu); err != nil {
		return models.User{}, err
	}

	user, err := s.insert(ctx, nu)
	if err != nil {
		return models.User{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role, "by": sess.UserID}).Info("user created")
	return user, nil
}

// CreateAdmin bootstraps a superadmin account without a session.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	nu := models.NewUser{Name: name, Email: NormalizeEmail(email), Password: password, Role: models.RoleSuperAdmin}
	if err := validation.Struct(nu); err != nil {
		return models.User{}, err
	}
	return s.insert(ctx, nu)
}

func (s *UserService) insert(ctx context.Context, nu models.NewUser) (models.User, error) {
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Base:         models.Base{ID: models.NewID(nu.Role.IDPrefix())},
		Name:         strings.TrimSpace(nu.Name),
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: hash,
		Role:         nu.Role,
		Status:       models.UserActive,
		Phone:        nu.Phone,
		Grade:        nu.Grade,
		SchoolRef:    nu.SchoolRef,
		GovtRef:      nu.GovtRef,
		Subjects:     nu.Subjects,
		State:        nu.State,
		City:         nu.City,
	}
	if err = s.users.Insert(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, errors.Wrap(err, "create user")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, sess models.Session, ref string) (models.User, error) {
	if sess.UserID == "" {
		return models.User{}, ErrUnauthorized
	}
	user, err := s.users.Get(ctx, ref)
	if err != nil {
		return models.User{}, notFound(err, "user", ref)
	}
	ok, err := s.visible(ctx, sess, user)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) Me(ctx context.Context, sess models.Session) (models.User, error) {
	return s.Get(ctx, sess, sess.UserID)
}

// List returns users matching f within the caller's scope.
func (s *UserService) List(ctx context.Context, sess models.Session, f models.UserFilter) (models.Page[models.User], error) {
	switch sess.Role {
	case models.RoleSuperAdmin, models.RoleHelpSupport:
	case models.RoleSchool:
		f.SchoolRef = sess.UserID
		if f.Role != "" && !f.Role.In(models.RoleStudent, models.RoleTeacher) {
			return emptyPage[models.User](f.Page, f.PerPage), nil
		}
	case models.RoleGovt:
		f.GovtRef = sess.UserID
		f.Role = models.RoleSchool
	case models.RoleTeacher:
		teacher, err := s.users.Get(ctx, sess.UserID)
		if err != nil {
			return models.Page[models.User]{}, notFound(err, "teacher", sess.UserID)
		}
		if teacher.SchoolRef == "" {
			return emptyPage[models.User](f.Page, f.PerPage), nil
		}
		f.SchoolRef = teacher.SchoolRef
		f.Role = models.RoleStudent
	default:
		return models.Page[models.User]{}, ErrUnauthorized
	}

	filter := userFilter(f)
	opts, page, perPage := pageOptions(f.Page, f.PerPage, "createdAt", true)
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return models.Page[models.User]{}, errors.Wrap(err, "count users")
	}
	users, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return models.Page[models.User]{}, errors.Wrap(err, "list users")
	}
	return models.Page[models.User]{Items: users, Total: total, Page: page, PerPage: perPage}, nil
}

func emptyPage[T any](page, perPage int) models.Page[T] {
	_, page, perPage = pageOptions(page, perPage, "", false)
	return models.Page[T]{Items: []T{}, Page: page, PerPage: perPage}
}

func userFilter(f models.UserFilter) store.Filter {
	var filter store.Filter
	if f.Role != "" {
		filter = filter.And(store.Eq("role", f.Role))
	}
	if f.SchoolRef != "" {
		filter = filter.And(store.Eq("schoolRef", f.SchoolRef))
	}
	if f.GovtRef != "" {
		filter = filter.And(store.Eq("govtRef", f.GovtRef))
	}
	if f.Grade != "" {
		filter = filter.And(store.Eq("grade", f.Grade))
	}
	if f.Status != "" {
		filter = filter.And(store.Eq("status", f.Status))
	}
	if f.Search != "" {
		filter = filter.And(store.Search(f.Search, "name", "email", "customId"))
	}
	return filter
}

// Update applies uu to the user. Users may edit their own profile fields;
// reassigning a school or government is reserved to superadmins.
func (s *UserService) Update(ctx context.Context, sess models.Session, ref string, uu models.UserUpdate) (models.User, error) {
	if uu.Email != nil {
		email := NormalizeEmail(*uu.Email)
		uu.Email = &email
	}
	if err := validation.Struct(uu); err != nil {
		return models.User{}, err
	}
	user, err := s.users.Get(ctx, ref)
	if err != nil {
		return models.User{}, notFound(err, "user", ref)
	}

	self := sess.UserID != "" && sess.UserID == user.ID
	switch {
	case sess.Role == models.RoleSuperAdmin:
	case manageable(sess, user):
		if uu.SchoolRef != nil || uu.GovtRef != nil {
			return models.User{}, ErrUnauthorized
		}
	case self && uu.SelfServiceOnly():
	default:
		return models.User{}, ErrUnauthorized
	}

	set := store.Set{}
	if uu.Name != nil {
		set["name"] = strings.TrimSpace(*uu.Name)
	}
	if uu.Email != nil {
		set["email"] = NormalizeEmail(*uu.Email)
	}
	if uu.Password != nil {
		hash, err := HashPassword(*uu.Password)
		if err != nil {
			return models.User{}, err
		}
		set["passwordHash"] = hash
	}
	if uu.Phone != nil {
		set["phone"] = *uu.Phone
	}
	if uu.Grade != nil {
		set["grade"] = *uu.Grade
	}
	if uu.SchoolRef != nil {
		set["schoolRef"] = *uu.SchoolRef
	}
	if uu.GovtRef != nil {
		set["govtRef"] = *uu.GovtRef
	}
	if uu.Subjects != nil {
		set["subjects"] = uu.Subjects
	}
	if uu.State != nil {
		set["state"] = *uu.State
	}
	if uu.City != nil {
		set["city"] = *uu.City
	}
	if len(set) == 0 {
		return user, nil
	}

	if err = s.users.Update(ctx, user.ID, set); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, notFound(err, "user", user.ID)
	}
	updated, err := s.users.Get(ctx, user.ID)
	if err != nil {
		return models.User{}, notFound(err, "user", user.ID)
	}
	return updated, nil
}

func (s *UserService) UpdateMe(ctx context.Context, sess models.Session, uu models.UserUpdate) (models.User, error) {
	return s.Update(ctx, sess, sess.UserID, uu)
}

func (s *UserService) SetStatus(ctx context.Context, sess models.Session, ref string, su models.UserStatusUpdate) (models.User, error) {
	if err := validation.Struct(su); err != nil {
		return models.User{}, err
	}
	user, err := s.users.Get(ctx, ref)
	if err != nil {
		return models.User{}, notFound(err, "user", ref)
	}
	if !manageable(sess, user) {
		return models.User{}, ErrUnauthorized
	}
	if err = s.users.Update(ctx, user.ID, store.Set{"status": su.Status}); err != nil {
		return models.User{}, notFound(err, "user", user.ID)
	}
	user.Status = su.Status
	user.UpdatedAt = time.Now().UTC()
	return user, nil
}

// Delete removes a user. Deleting a user that does not exist reports false.
func (s *UserService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.RoleSuperAdmin, models.RoleSchool, models.RoleGovt); err != nil {
		return false, err
	}
	user, err := s.users.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get user")
	}
	if !manageable(sess, user) {
		return false, ErrUnauthorized
	}

	deleted, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		return false, errors.Wrapf(err, "delete user %s", user.ID)
	}
	if deleted {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "by": sess.UserID}).Info("user deleted")
	}
	return deleted, nil
}
