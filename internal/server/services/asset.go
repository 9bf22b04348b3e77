// Package services implements the upload and delivery core: credential
// issuance, upload confirmation, access policy enforcement and deletion.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/logging"
	"github.com/avelins/classmedia/internal/server/metrics"
	"github.com/avelins/classmedia/internal/server/models"
	"github.com/avelins/classmedia/internal/server/quota"
	"github.com/avelins/classmedia/internal/server/repositories/assets"
	"github.com/avelins/classmedia/internal/server/storage"
	"github.com/avelins/classmedia/internal/server/validation"
)

// AssetService wires the validator, quota tracker, object store and metadata
// repository into the four boundary operations.
type AssetService struct {
	repo    assets.Repository
	store   storage.ObjectStore
	quota   quota.Store
	metrics metrics.Metrics
	logger  logging.Logger

	uploadTTL   time.Duration
	headTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// NewAssetService constructs the service. uploadTTL bounds the lifetime of
// upload credentials; headTimeout bounds the object-store existence check
// during confirmation.
func NewAssetService(repo assets.Repository, store storage.ObjectStore, q quota.Store,
	m metrics.Metrics, logger logging.Logger, uploadTTL, headTimeout time.Duration) *AssetService {
	return &AssetService{
		repo:        repo,
		store:       store,
		quota:       q,
		metrics:     m,
		logger:      logger,
		uploadTTL:   uploadTTL,
		headTimeout: headTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// keyExtPattern limits the extension carried into a storage key to something
// harmless; anything else is dropped.
var keyExtPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// classFromKey extracts the class prefix a storage key was minted under.
func classFromKey(storageKey string) string {
	name, _, _ := strings.Cut(storageKey, "/")
	return name
}

// mintStorageKey builds the date-partitioned key
// {class}/{yyyy}/{mm}/{dd}/{uuid}[.{ext}]. The UUID contributes 122 random
// bits, so keys are neither reusable nor enumerable.
func (s *AssetService) mintStorageKey(class, filename string) string {
	d := s.now().UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%02d/%s", class, d.Year(), d.Month(), d.Day(), s.newID())

	ext := strings.ToLower(filepath.Ext(filename))
	if keyExtPattern.MatchString(ext) {
		key += ext
	}
	return key
}

// RequestUpload validates the declared upload, soft-checks the quota, and
// issues a presigned write credential scoped to a freshly minted storage key.
// It leaves no trace in the metadata store or quota counters: a credential
// that is never used costs nothing.
func (s *AssetService) RequestUpload(ctx context.Context, identity, className, contentType string,
	sizeBytes int64, filename string) (*models.UploadGrant, error) {

	class, err := validation.Validate(className, contentType, sizeBytes, filename)
	if err != nil {
		s.metrics.IncUploadsRejected("validation")
		return nil, err
	}

	if err := s.quota.Check(ctx, identity, sizeBytes); err != nil {
		s.metrics.IncUploadsRejected("quota")
		return nil, err
	}

	key := s.mintStorageKey(class.Name, filename)

	url, err := s.store.MintUploadURL(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		s.metrics.IncUploadsRejected("infrastructure")
		return nil, err
	}

	s.metrics.IncUploadsIssued(class.Name)
	s.logger.Info(ctx, "upload credential issued",
		"identity", identity, "class", class.Name, "key", key, "size", sizeBytes)

	return &models.UploadGrant{
		StorageKey: key,
		URL:        url,
		ExpiresIn:  int64(s.uploadTTL.Seconds()),
	}, nil
}

// ConfirmUpload verifies that the claimed object actually exists in the
// store, commits quota, and creates the active asset record. The check
// against the store is the trust boundary: everything the client declared
// before this point is advisory. The asset class is bound to the storage key
// prefix minted at issuance, so the ceiling and access policy applied here
// are the ones that were granted, regardless of what the caller declares.
//
// Confirming the same storage key twice returns the existing record without
// double-counting quota.
func (s *AssetService) ConfirmUpload(ctx context.Context, identity, storageKey, className,
	filename, contentType, title, description string) (*models.Asset, error) {

	class, ok := validation.ClassByName(classFromKey(storageKey))
	if !ok {
		return nil, fmt.Errorf("%w: storage key does not carry a known asset class", common.ErrValidation)
	}
	if className != class.Name {
		return nil, fmt.Errorf("%w: declared class %q does not match granted class %q",
			common.ErrValidation, className, class.Name)
	}
	if err := validation.ValidateMetadata(class, contentType, filename); err != nil {
		return nil, err
	}

	// Idempotency: a confirmed key returns its record unchanged.
	existing, err := s.repo.GetByStorageKey(ctx, storageKey)
	switch {
	case err == nil:
		if existing.Status == models.AssetStatusActive {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: asset for key is %s", common.ErrAssetNotActive, existing.Status)
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("%w: idempotency lookup: %v", common.ErrInfrastructure, err)
	}

	headCtx, cancel := context.WithTimeout(ctx, s.headTimeout)
	defer cancel()

	info, err := s.store.Head(headCtx, storageKey)
	if err != nil {
		if headCtx.Err() != nil {
			// The object may simply not have finished replicating; the
			// caller should retry rather than treat this as a rejection.
			return nil, fmt.Errorf("%w: existence check timed out", common.ErrInfrastructure)
		}
		return nil, err
	}
	if !info.Exists {
		return nil, fmt.Errorf("%w: no object at storage key", common.ErrObjectNotFound)
	}
	if info.Size == 0 {
		return nil, fmt.Errorf("%w: object at storage key is empty", common.ErrSizeMismatch)
	}
	if info.Size > class.SizeCeiling {
		return nil, fmt.Errorf("%w: actual size %d exceeds granted ceiling %d",
			common.ErrSizeMismatch, info.Size, class.SizeCeiling)
	}

	// Atomic increment-with-ceiling: racing confirmations for one identity
	// cannot jointly exceed a hard ceiling.
	if err := s.quota.Commit(ctx, identity, info.Size); err != nil {
		s.metrics.IncUploadsRejected("quota")
		return nil, err
	}

	asset := &models.Asset{
		ID:          s.newID(),
		OwnerID:     identity,
		Class:       class.Name,
		StorageKey:  storageKey,
		FileName:    filename,
		ContentType: contentType,
		SizeBytes:   info.Size,
		Title:       title,
		Description: description,
		Status:      models.AssetStatusActive,
		CreatedAt:   s.now().UTC(),
	}

	inserted, err := s.repo.Create(ctx, asset)
	if err != nil {
		if relErr := s.quota.Release(ctx, identity, info.Size); relErr != nil {
			s.logger.Error(ctx, "quota release failed after create error", "error", relErr)
		}
		return nil, fmt.Errorf("%w: create asset record: %v", common.ErrInfrastructure, err)
	}
	if !inserted {
		// Lost the race against a concurrent confirmation of the same key:
		// hand back the winner's record and give the quota back.
		if relErr := s.quota.Release(ctx, identity, info.Size); relErr != nil {
			s.logger.Error(ctx, "quota release failed after insert race", "error", relErr)
		}
		return s.repo.GetByStorageKey(ctx, storageKey)
	}

	s.metrics.IncUploadsConfirmed(class.Name)
	s.logger.Info(ctx, "upload confirmed",
		"identity", identity, "class", class.Name, "key", storageKey, "size", info.Size)

	return asset, nil
}

// GetAccessURL grants a read credential for an active asset owned by
// identity. The credential class comes from the asset-class policy table:
// videos only ever receive stream-class credentials, never download.
func (s *AssetService) GetAccessURL(ctx context.Context, identity, assetID string) (*models.AccessGrant, error) {
	asset, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != identity {
		return nil, fmt.Errorf("%w: asset belongs to another identity", common.ErrNotOwner)
	}
	if asset.Status != models.AssetStatusActive {
		return nil, fmt.Errorf("%w: asset is %s", common.ErrAssetNotActive, asset.Status)
	}

	class, ok := validation.ClassByName(asset.Class)
	if !ok {
		return nil, fmt.Errorf("%w: record carries unknown class %q", common.ErrInfrastructure, asset.Class)
	}
	policy := class.Access

	d := storage.Disposition{Inline: policy.Inline}
	if !policy.Inline {
		d.Filename = asset.FileName
	}

	url, err := s.store.MintDownloadURL(ctx, asset.StorageKey, policy.TTL, d)
	if err != nil {
		return nil, err
	}

	s.metrics.IncAccessGranted(string(policy.Class))

	return &models.AccessGrant{
		URL:       url,
		ExpiresIn: int64(policy.TTL.Seconds()),
		Class:     policy.Class,
	}, nil
}

// ListAssets returns the identity's active assets, newest first.
func (s *AssetService) ListAssets(ctx context.Context, identity string) ([]*models.Asset, error) {
	return s.repo.ListByOwner(ctx, identity)
}

// DeleteAsset removes the object from the store and soft-deletes the record.
// Ownership is enforced here as the last line of defense. The object-store
// delete runs first: when it fails, the record stays active so metadata
// never points at nothing while bytes persist unaccounted.
func (s *AssetService) DeleteAsset(ctx context.Context, identity, assetID string) error {
	asset, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.OwnerID != identity {
		return fmt.Errorf("%w: asset belongs to another identity", common.ErrNotOwner)
	}
	if asset.Status != models.AssetStatusActive {
		return fmt.Errorf("%w: asset is %s", common.ErrAssetNotActive, asset.Status)
	}

	if err := s.store.Delete(ctx, asset.StorageKey); err != nil {
		return err
	}

	if err := s.repo.MarkDeleted(ctx, asset.ID); err != nil {
		return err
	}

	s.metrics.IncAssetsDeleted(asset.Class)
	s.logger.Info(ctx, "asset deleted",
		"identity", identity, "asset", asset.ID, "key", asset.StorageKey)

	return nil
}
