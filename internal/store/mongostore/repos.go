package mongostore

import (
	"context"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ store.Collection[models.User] = (*Collection[models.User, *models.User])(nil)

// NewRepos opens every application collection on db.
func NewRepos(db *mongo.Database) store.Repos {
	return store.Repos{
		Users:        NewCollection[models.User](db, store.UsersCollection),
		Courses:      NewCollection[models.Course](db, store.CoursesCollection),
		Enrollments:  NewCollection[models.Enrollment](db, store.EnrollmentsCollection),
		Certificates: NewCollection[models.Certificate](db, store.CertificatesCollection),
		Plans:        NewCollection[models.Plan](db, store.PlansCollection),
		Payments:     NewCollection[models.Payment](db, store.PaymentsCollection),
		Tickets:      NewCollection[models.SupportTicket](db, store.TicketsCollection),
		Leads:        NewCollection[models.Lead](db, store.LeadsCollection),
		Contents:     NewCollection[models.Content](db, store.ContentsCollection),
	}
}

var allCollections = []string{
	store.UsersCollection,
	store.CoursesCollection,
	store.EnrollmentsCollection,
	store.CertificatesCollection,
	store.PlansCollection,
	store.PaymentsCollection,
	store.TicketsCollection,
	store.LeadsCollection,
	store.ContentsCollection,
}

// EnsureIndexes creates the unique indexes that back the uniqueness rules of
// the services (one certificate and one enrollment per student and course,
// one account per email, unique custom IDs).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range allCollections {
		idx := []mongo.IndexModel{{
			Keys:    bson.D{{Key: "customId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}
		for _, fields := range store.UniqueKeys[name] {
			keys := bson.D{}
			for _, f := range fields {
				keys = append(keys, bson.E{Key: f, Value: 1})
			}
			idx = append(idx, mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)})
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "create indexes on %s", name)
		}
	}
	return nil
}
