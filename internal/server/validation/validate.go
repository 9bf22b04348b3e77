// Package validation decides whether a declared upload is acceptable.
// It is a pure function set over a closed table of asset classes: each class
// carries its size ceiling, its allowed content types and its access policy
// as data, so adding a class is a table change, not a code change.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/server/models"
)

const (
	mb = int64(1) << 20
)

// AccessPolicy describes the only kind of read credential an asset class may
// ever receive. Videos are streaming-only by product policy: they never get a
// download-class credential, and this table is the single place that encodes it.
type AccessPolicy struct {
	// Class is the credential class granted for the asset class.
	Class models.AccessClass
	// TTL is the read credential lifetime.
	TTL time.Duration
	// Inline selects the inline disposition; otherwise the credential carries
	// an attachment disposition with the original filename.
	Inline bool
}

// Class is one row of the asset-class table.
type Class struct {
	// Name is the wire name of the class ("video", "resource", ...).
	Name string
	// SizeCeiling is the maximum declared (and verified) size in bytes.
	SizeCeiling int64
	// AllowedTypes is the closed set of acceptable content types.
	AllowedTypes []string
	// Access is the read-credential policy for confirmed assets of this class.
	Access AccessPolicy
}

// classes is the closed enumeration. Order matters only for documentation.
var classes = []Class{
	{
		Name:        "video",
		SizeCeiling: 500 * mb,
		AllowedTypes: []string{
			"video/mp4", "video/webm", "video/ogg", "video/quicktime",
		},
		Access: AccessPolicy{Class: models.AccessClassStream, TTL: 120 * time.Minute, Inline: true},
	},
	{
		Name:        "resource",
		SizeCeiling: 50 * mb,
		AllowedTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/vnd.ms-powerpoint",
			"application/vnd.openxmlformats-officedocument.presentationml.presentation",
			"image/png", "image/jpeg", "image/gif",
			"text/plain", "text/csv",
		},
		Access: AccessPolicy{Class: models.AccessClassDownload, TTL: 60 * time.Minute, Inline: false},
	},
	{
		Name:        "thumbnail",
		SizeCeiling: 10 * mb,
		AllowedTypes: []string{
			"image/png", "image/jpeg", "image/webp", "image/gif",
		},
		Access: AccessPolicy{Class: models.AccessClassStream, TTL: 60 * time.Minute, Inline: true},
	},
	{
		Name:        "lesson-plan",
		SizeCeiling: 10 * mb,
		AllowedTypes: []string{
			"application/pdf",
		},
		Access: AccessPolicy{Class: models.AccessClassDownload, TTL: 60 * time.Minute, Inline: false},
	},
}

// blockedExtensions are rejected for every class regardless of the claimed
// content type, as defense in depth against type confusion.
var blockedExtensions = []string{
	".exe", ".bat", ".cmd", ".com", ".msi", ".dll",
	".sh", ".bash", ".ps1", ".jar", ".scr", ".vbs", ".pif",
}

// ClassByName resolves a class name against the table.
func ClassByName(name string) (Class, bool) {
	for _, c := range classes {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// Classes returns a copy of the asset-class table.
func Classes() []Class {
	out := make([]Class, len(classes))
	copy(out, classes)
	return out
}

// Validate checks a declared upload against the class table. On success it
// returns the matched class (carrying the granted size ceiling and the access
// policy). All rejections wrap common.ErrValidation with a specific reason.
// Filename is optional; when present its extension is screened.
func Validate(className, contentType string, sizeBytes int64, filename string) (Class, error) {
	class, ok := ClassByName(className)
	if !ok {
		return Class{}, fmt.Errorf("%w: unknown asset class %q", common.ErrValidation, className)
	}

	if sizeBytes <= 0 {
		return Class{}, fmt.Errorf("%w: declared size must be positive, got %d", common.ErrValidation, sizeBytes)
	}

	if sizeBytes > class.SizeCeiling {
		return Class{}, fmt.Errorf("%w: size exceeds ceiling (%d > %d bytes for class %q)",
			common.ErrValidation, sizeBytes, class.SizeCeiling, class.Name)
	}

	if !typeAllowed(class, contentType) {
		return Class{}, fmt.Errorf("%w: content type %q not allowed for class %q",
			common.ErrValidation, contentType, class.Name)
	}

	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		for _, blocked := range blockedExtensions {
			if ext == blocked {
				return Class{}, fmt.Errorf("%w: filename extension %q is not allowed", common.ErrValidation, ext)
			}
		}
	}

	return class, nil
}

// ValidateMetadata re-screens metadata supplied at confirmation time against
// the class table: the content type (when declared) must be in the class's
// allowed set, and the filename extension must not be blocked. The declared
// size is not checked here; the confirmer verifies the actual size against
// the object store.
func ValidateMetadata(class Class, contentType, filename string) error {
	if contentType != "" && !typeAllowed(class, contentType) {
		return fmt.Errorf("%w: content type %q not allowed for class %q",
			common.ErrValidation, contentType, class.Name)
	}
	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		for _, blocked := range blockedExtensions {
			if ext == blocked {
				return fmt.Errorf("%w: filename extension %q is not allowed", common.ErrValidation, ext)
			}
		}
	}
	return nil
}

func typeAllowed(class Class, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range class.AllowedTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}
