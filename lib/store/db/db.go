// Package db implements the opening and graceful closing of database connections.
package db

import (
	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/memory"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/mongo"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/postgres"
)

// Database types.
const (
	MONGODB  string = "mongodb"
	POSTGRES string = "postgresql"
	MEMORY   string = "memory"
)

// ErrUnknownType is returned for an unsupported database type.
var ErrUnknownType = errors.New("unknown database type")

// New returns a new database connection according to the options (database type).
func New(options, connection string) (store.DB, error) {
	switch options {
	case MONGODB:
		return mongo.New(connection)
	case POSTGRES:
		return postgres.New(connection)
	case MEMORY:
		return memory.New(), nil
	}

	return nil, errors.Wrap(ErrUnknownType, options)
}

// Close gracefully closes the database connection.
func Close(dh store.DB) error {
	switch d := dh.(type) {
	case *mongo.Mongo:
		return d.CloseMongo()
	case *postgres.Postgres:
		return d.ClosePostgres()
	}

	return nil
}
