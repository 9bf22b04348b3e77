package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/dbx"
	"github.com/avelins/classmedia/internal/server/models"
)

// PostgresRepository implements asset storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the asset row. The unique index on storage_key makes
// confirmation at-most-once: a second insert for the same key affects zero
// rows and is reported as inserted=false.
func (r *PostgresRepository) Create(ctx context.Context, asset *models.Asset) (bool, error) {
	query := `
		INSERT INTO assets (id, owner_id, class, storage_key, file_name, content_type, size_bytes, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (storage_key) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		asset.ID, asset.OwnerID, asset.Class, asset.StorageKey, asset.FileName,
		asset.ContentType, asset.SizeBytes, asset.Title, asset.Description,
		string(asset.Status), asset.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

const assetColumns = `id, owner_id, class, storage_key, file_name, content_type, size_bytes, title, description, status, created_at`

func scanAsset(row interface{ Scan(...any) error }) (*models.Asset, error) {
	a := &models.Asset{}
	var status string
	err := row.Scan(&a.ID, &a.OwnerID, &a.Class, &a.StorageKey, &a.FileName,
		&a.ContentType, &a.SizeBytes, &a.Title, &a.Description, &status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.AssetStatus(status)
	return a, nil
}

// GetByID returns the asset row for id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: asset %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	return a, nil
}

// GetByStorageKey returns the asset row for a storage key.
func (r *PostgresRepository) GetByStorageKey(ctx context.Context, key string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE storage_key=$1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: storage key %s", common.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	return a, nil
}

// ListByOwner returns the owner's active assets, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE owner_id=$1 AND status=$2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID, string(models.AssetStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkDeleted soft-deletes an active asset. Exactly one row must be affected.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `UPDATE assets SET status=$1 WHERE id=$2 AND status=$3`

	res, err := r.db.ExecContext(ctx, query,
		string(models.AssetStatusDeleted), id, string(models.AssetStatusActive))
	if err != nil {
		return fmt.Errorf("failed to mark deleted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: asset %s not active", common.ErrNotFound, id)
	}
	return nil
}
