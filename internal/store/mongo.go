// Package store wraps the MongoDB collections shared with the HR
// platform's CRUD API. The relay never touches these; only the
// attendance automation and the health endpoint do.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collOrganizations = "organizations"
	collEmployees     = "employees"
	collAttendance    = "attendances"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store").Str("database", database).Msg("connected to mongo")
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Organizations() *Organizations {
	return &Organizations{coll: s.db.Collection(collOrganizations)}
}

func (s *Store) Employees() *Employees {
	return &Employees{coll: s.db.Collection(collEmployees)}
}

func (s *Store) Attendance() *Attendance {
	return &Attendance{coll: s.db.Collection(collAttendance)}
}
