package dataaccess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Driver names a Store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// Options select and locate the Store backend.
type Options struct {
	// Driver is the backend to use. Defaults to memory.
	Driver Driver

	// DSN is the file path for the file and sqlite backends, or the connection string for postgres.
	DSN string

	// MongoURI is the connection string for the mongo backend.
	MongoURI string

	// MongoDatabase is the database for the mongo backend.
	MongoDatabase string
}

// Open creates the Store chosen by opts.
func Open(ctx context.Context, l *slog.Logger, opts *Options) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(opts.Driver))))
	if driver == "" {
		driver = DriverMemory
	}

	l.Info("Opening store", slog.String("driver", string(driver)))

	switch driver {
	case DriverMemory:
		l.Warn("Using the in-memory store, nothing will survive a restart")
		return NewMemoryStore(l), nil
	case DriverFile:
		return NewFileStore(l, opts.DSN)
	case DriverSQLite:
		return NewSQLiteStore(ctx, l, opts.DSN)
	case DriverPostgres:
		return NewPostgresStore(ctx, l, opts.DSN)
	case DriverMongo:
		return NewMongoStore(ctx, l, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
