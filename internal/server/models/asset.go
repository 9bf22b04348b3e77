// Package models defines server-side data models persisted in the database.
package models

import "time"

// AssetStatus tracks the lifecycle of an uploaded asset.
type AssetStatus string

const (
	// AssetStatusPending marks an asset whose bytes have not been verified yet.
	AssetStatusPending AssetStatus = "pending"
	// AssetStatusActive marks an asset whose existence in the object store
	// was independently verified at confirmation time.
	AssetStatusActive AssetStatus = "active"
	// AssetStatusDeleted marks a soft-deleted asset.
	AssetStatusDeleted AssetStatus = "deleted"
)

// Asset is the persisted metadata row for one confirmed upload.
// The bytes themselves live in object storage under StorageKey.
type Asset struct {
	// ID is the asset's identifier exposed to callers.
	ID string
	// OwnerID is the verified identity that uploaded the asset.
	OwnerID string
	// Class is the asset class name ("video", "resource", ...).
	Class string
	// StorageKey is the object-storage key (path) of the payload.
	// Unique, never reused, never mutated once the record exists.
	StorageKey string
	// FileName is the original filename as declared by the uploader.
	FileName string
	// ContentType is the declared (and credential-scoped) MIME type.
	ContentType string
	// SizeBytes is the size verified against the object store at confirmation.
	SizeBytes int64

	Title       string
	Description string

	Status    AssetStatus
	CreatedAt time.Time
}

// UploadGrant instructs the client to upload its bytes directly to the
// object store using a short-lived presigned URL.
type UploadGrant struct {
	// StorageKey is the exact key the credential is scoped to. The caller
	// passes it back when confirming the upload.
	StorageKey string
	// URL is the presigned PUT URL.
	URL string
	// ExpiresIn is the credential lifetime in seconds.
	ExpiresIn int64
}

// AccessClass distinguishes inline playback credentials from
// attachment-style download credentials.
type AccessClass string

const (
	AccessClassStream   AccessClass = "stream"
	AccessClassDownload AccessClass = "download"
)

// AccessGrant is a short-lived read credential for one asset.
type AccessGrant struct {
	// URL is the presigned GET URL.
	URL string
	// ExpiresIn is the credential lifetime in seconds.
	ExpiresIn int64
	// Class reports whether the credential is stream- or download-scoped.
	Class AccessClass
}
