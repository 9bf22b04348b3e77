package assets

import (
	"context"

	"github.com/avelins/classmedia/internal/server/models"
)

// Repository persists asset metadata. Rows are written only by the upload
// confirmer (create) and the deletion gatekeeper (soft delete).
type Repository interface {
	// Create inserts the asset. When another confirmation already inserted
	// a row for the same storage key, Create reports inserted=false and no
	// error; the caller decides how to reconcile.
	Create(ctx context.Context, asset *models.Asset) (inserted bool, err error)

	// GetByID returns the asset, including soft-deleted ones.
	// Wraps common.ErrNotFound when no row exists.
	GetByID(ctx context.Context, id string) (*models.Asset, error)

	// GetByStorageKey returns the asset for a storage key.
	// Wraps common.ErrNotFound when no row exists.
	GetByStorageKey(ctx context.Context, key string) (*models.Asset, error)

	// ListByOwner returns the owner's active assets, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error)

	// MarkDeleted soft-deletes an active asset.
	MarkDeleted(ctx context.Context, id string) error
}
