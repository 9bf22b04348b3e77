// Package db owns the metadata-store connection: it opens the pool, runs the
// embedded migrations, and hands out repositories.
package db

import (
	"context"
	"database/sql"

	"github.com/avelins/classmedia/internal/server/repositories/assets"
)

// Manager gives access to the metadata store.
type Manager interface {
	Conn() *sql.DB
	Assets() assets.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
