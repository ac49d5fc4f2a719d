package models

import "time"

type Role string

const (
	RoleStudent     Role = "student"
	RoleSchool      Role = "school"
	RoleTeacher     Role = "teacher"
	RoleGovt        Role = "govt"
	RoleSuperAdmin  Role = "superadmin"
	RoleHelpSupport Role = "helpsupport"
)

var (
	AllRoles = []Role{RoleStudent, RoleSchool, RoleTeacher, RoleGovt, RoleSuperAdmin, RoleHelpSupport}

	AdminOnly    = []Role{RoleSuperAdmin}
	StaffRoles   = []Role{RoleSuperAdmin, RoleHelpSupport}
	CourseAuthor = []Role{RoleSuperAdmin, RoleTeacher}

	idPrefixes = map[Role]string{
		RoleStudent:     "STU",
		RoleSchool:      "SCH",
		RoleTeacher:     "TCH",
		RoleGovt:        "GOV",
		RoleSuperAdmin:  "ADM",
		RoleHelpSupport: "HLP",
	}
)

func (r Role) Valid() bool {
	_, ok := idPrefixes[r]
	return ok
}

func (r Role) IDPrefix() string { return idPrefixes[r] }

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	Base               `bson:",inline"`
	Name               string     `bson:"name" json:"name"`
	Email              string     `bson:"email" json:"email"`
	PasswordHash       string     `bson:"passwordHash" json:"-"`
	Role               Role       `bson:"role" json:"role"`
	Status             UserStatus `bson:"status" json:"status"`
	Phone              string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Grade              string     `bson:"grade,omitempty" json:"grade,omitempty"`
	SchoolRef          string     `bson:"schoolRef,omitempty" json:"schoolRef,omitempty"`
	GovtRef            string     `bson:"govtRef,omitempty" json:"govtRef,omitempty"`
	Subjects           []string   `bson:"subjects,omitempty" json:"subjects,omitempty"`
	State              string     `bson:"state,omitempty" json:"state,omitempty"`
	City               string     `bson:"city,omitempty" json:"city,omitempty"`
	SubscriptionPlan   string     `bson:"subscriptionPlan,omitempty" json:"subscriptionPlan,omitempty"`
	SubscriptionExpiry *time.Time `bson:"subscriptionExpiry,omitempty" json:"subscriptionExpiry,omitempty"`
}

func (u User) IsActive() bool { return u.Status != UserInactive }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	Role      Role     `json:"role" validate:"required,role"`
	Phone     string   `json:"phone"`
	Grade     string   `json:"grade"`
	SchoolRef string   `json:"schoolRef"`
	GovtRef   string   `json:"govtRef"`
	Subjects  []string `json:"subjects"`
	State     string   `json:"state"`
	City      string   `json:"city"`
}

// Registration is the public sign-up payload; it always creates a student.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Grade    string `json:"grade"`
}

// UserUpdate defines what may be changed on an existing User. Nil fields are left untouched.
type UserUpdate struct {
	Name      *string  `json:"name" validate:"omitempty,min=1"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Password  *string  `json:"password" validate:"omitempty,min=8"`
	Phone     *string  `json:"phone"`
	Grade     *string  `json:"grade"`
	SchoolRef *string  `json:"schoolRef"`
	GovtRef   *string  `json:"govtRef"`
	Subjects  []string `json:"subjects"`
	State     *string  `json:"state"`
	City      *string  `json:"city"`
}

// SelfServiceOnly reports whether the update only touches fields a user may change on their own profile.
func (uu UserUpdate) SelfServiceOnly() bool {
	return uu.Email == nil && uu.Grade == nil && uu.SchoolRef == nil && uu.GovtRef == nil && uu.Subjects == nil
}

type UserFilter struct {
	Role      Role   `query:"role"`
	SchoolRef string `query:"school"`
	GovtRef   string `query:"govt"`
	Grade     string `query:"grade"`
	Status    string `query:"status"`
	Search    string `query:"search"`
	Page      int    `query:"page"`
	PerPage   int    `query:"per_page"`
}

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Role   Role
}


type UserStatusUpdate struct {
	Status UserStatus `json:"status" validate:"required,oneof=active inactive"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
