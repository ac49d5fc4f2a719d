// Package store defines the document store used by the services. Documents are
// addressed by their canonical custom ID; Get additionally accepts the store's
// native ID so references coming from clients are resolved in one place.
package store

import (
	"context"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Document is satisfied by pointers to every model embedding models.Base.
type Document[T any] interface {
	*T
	Meta() *models.Base
}

// Collection is a typed view over one collection of the document store.
type Collection[T any] interface {
	Insert(ctx context.Context, doc *T) error
	// Get resolves ref as either the custom ID or the native ID.
	Get(ctx context.Context, ref string) (T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	Find(ctx context.Context, filter Filter, opts ...FindOptions) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Update sets fields on the document with the given custom ID.
	Update(ctx context.Context, id string, set Set) error
	// Delete removes the document with the given custom ID and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Set lists field assignments keyed by stored field name. A value is assigned
// as is unless it is one of the update operators below.
type Set map[string]interface{}

// AddToSet appends Value to an array field unless the array already holds it.
type AddToSet struct{ Value interface{} }

// Max raises a numeric field to Value and never lowers it.
type Max struct{ Value interface{} }

type FindOptions struct {
	SortBy string
	Desc   bool
	Limit  int64
	Skip   int64
}

// Repos bundles every collection of the application.
type Repos struct {
	Users        Collection[models.User]
	Courses      Collection[models.Course]
	Enrollments  Collection[models.Enrollment]
	Certificates Collection[models.Certificate]
	Plans        Collection[models.Plan]
	Payments     Collection[models.Payment]
	Tickets      Collection[models.SupportTicket]
	Leads        Collection[models.Lead]
	Contents     Collection[models.Content]
}

// Collection names, shared by both store implementations.
const (
	UsersCollection        = "users"
	CoursesCollection      = "courses"
	EnrollmentsCollection  = "enrollments"
	CertificatesCollection = "certificates"
	PlansCollection        = "plans"
	PaymentsCollection     = "payments"
	TicketsCollection      = "tickets"
	LeadsCollection        = "leads"
	ContentsCollection     = "contents"
)

// UniqueKeys lists the compound unique constraints per collection, in
// addition to the unique customId every collection carries.
var UniqueKeys = map[string][][]string{
	UsersCollection:        {{"email"}},
	EnrollmentsCollection:  {{"studentId", "courseId"}},
	CertificatesCollection: {{"studentId", "courseId"}},
}
