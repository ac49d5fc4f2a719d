package db

import (
	"context"

	"github.com/arzan03/SchoolDesk/internal/config"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/store/memstore"
	"github.com/arzan03/SchoolDesk/internal/store/mongostore"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is an opened document store. Database is nil for the memory driver.
type Store struct {
	Repos    store.Repos
	Database *mongo.Database
	client   *mongo.Client
}

// Open connects the store selected by cfg.StoreDriver and makes sure the
// unique indexes exist.
func Open(ctx context.Context, cfg config.Mongo, driver string, log logrus.FieldLogger) (*Store, error) {
	if driver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return &Store{Repos: memstore.NewRepos()}, nil
	}

	client, database, err := Connect(ctx, cfg.URI, cfg.Database, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if err = mongostore.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.WithField("database", cfg.Database).Info("connected to MongoDB")
	return &Store{Repos: mongostore.NewRepos(database), Database: database, client: client}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
