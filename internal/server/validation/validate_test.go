package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/server/models"
)

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name        string
		class       string
		contentType string
		size        int64
		filename    string
		wantReason  string // empty means accept
	}{
		// accepted
		{name: "video mp4", class: "video", contentType: "video/mp4", size: 100 * mb},
		{name: "video webm at ceiling", class: "video", contentType: "video/webm", size: 500 * mb},
		{name: "video quicktime", class: "video", contentType: "video/quicktime", size: 1},
		{name: "resource pdf", class: "resource", contentType: "application/pdf", size: 10 * mb, filename: "notes.pdf"},
		{name: "resource docx", class: "resource", contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", size: 1 * mb},
		{name: "resource csv", class: "resource", contentType: "text/csv", size: 1024, filename: "grades.csv"},
		{name: "resource png", class: "resource", contentType: "image/png", size: 2 * mb},
		{name: "thumbnail jpeg", class: "thumbnail", contentType: "image/jpeg", size: 1 * mb},
		{name: "thumbnail webp", class: "thumbnail", contentType: "image/webp", size: 10 * mb},
		{name: "lesson plan pdf", class: "lesson-plan", contentType: "application/pdf", size: 5 * mb},
		{name: "content type case insensitive", class: "video", contentType: "Video/MP4", size: 1 * mb},

		// rejected
		{name: "unknown class", class: "podcast", contentType: "audio/mpeg", size: 1 * mb, wantReason: "unknown asset class"},
		{name: "zero size", class: "video", contentType: "video/mp4", size: 0, wantReason: "must be positive"},
		{name: "negative size", class: "resource", contentType: "application/pdf", size: -1, wantReason: "must be positive"},
		{name: "video over ceiling", class: "video", contentType: "video/mp4", size: 600 * mb, wantReason: "size exceeds ceiling"},
		{name: "resource over ceiling", class: "resource", contentType: "application/pdf", size: 51 * mb, wantReason: "size exceeds ceiling"},
		{name: "thumbnail over ceiling", class: "thumbnail", contentType: "image/png", size: 11 * mb, wantReason: "size exceeds ceiling"},
		{name: "video with document type", class: "video", contentType: "application/pdf", size: 1 * mb, wantReason: "not allowed for class"},
		{name: "resource with video type", class: "resource", contentType: "video/mp4", size: 1 * mb, wantReason: "not allowed for class"},
		{name: "thumbnail with pdf", class: "thumbnail", contentType: "application/pdf", size: 1 * mb, wantReason: "not allowed for class"},
		{name: "lesson plan with png", class: "lesson-plan", contentType: "image/png", size: 1 * mb, wantReason: "not allowed for class"},
		{name: "executable despite pdf type", class: "resource", contentType: "application/pdf", size: 1 * mb, filename: "report.exe", wantReason: "extension"},
		{name: "shell script", class: "resource", contentType: "text/plain", size: 1024, filename: "setup.sh", wantReason: "extension"},
		{name: "batch file uppercase ext", class: "resource", contentType: "text/plain", size: 1024, filename: "run.BAT", wantReason: "extension"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			class, err := Validate(tc.class, tc.contentType, tc.size, tc.filename)
			if tc.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.class, class.Name)
				assert.Positive(t, class.SizeCeiling)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation), "must wrap ErrValidation, got %v", err)
			assert.Contains(t, err.Error(), tc.wantReason)
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	resource, ok := ClassByName("resource")
	require.True(t, ok)

	tests := []struct {
		name        string
		contentType string
		filename    string
		wantReason  string
	}{
		{name: "allowed type and name", contentType: "application/pdf", filename: "notes.pdf"},
		{name: "empty metadata accepted", contentType: "", filename: ""},
		{name: "filename without extension", contentType: "text/plain", filename: "README"},
		{name: "type outside class set", contentType: "video/mp4", filename: "clip.mp4", wantReason: "not allowed for class"},
		{name: "blocked extension", contentType: "application/pdf", filename: "payload.exe", wantReason: "extension"},
		{name: "blocked extension uppercase", contentType: "text/plain", filename: "run.PS1", wantReason: "extension"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMetadata(resource, tc.contentType, tc.filename)
			if tc.wantReason == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation), "must wrap ErrValidation, got %v", err)
			assert.Contains(t, err.Error(), tc.wantReason)
		})
	}
}

func TestValidate_NoSideEffectsOnCeilings(t *testing.T) {
	first, err := Validate("video", "video/mp4", 1, "")
	require.NoError(t, err)
	second, err := Validate("video", "video/mp4", 1, "")
	require.NoError(t, err)
	assert.Equal(t, first.SizeCeiling, second.SizeCeiling)
	assert.Equal(t, first.AllowedTypes, second.AllowedTypes)
}

func TestAccessPolicy_VideoIsStreamingOnly(t *testing.T) {
	for _, c := range Classes() {
		if c.Name == "video" {
			require.Equal(t, models.AccessClassStream, c.Access.Class)
			require.True(t, c.Access.Inline)
			require.Equal(t, 120*time.Minute, c.Access.TTL)
		}
	}
}

func TestAccessPolicy_Table(t *testing.T) {
	want := map[string]models.AccessClass{
		"video":       models.AccessClassStream,
		"resource":    models.AccessClassDownload,
		"thumbnail":   models.AccessClassStream,
		"lesson-plan": models.AccessClassDownload,
	}
	for _, c := range Classes() {
		assert.Equal(t, want[c.Name], c.Access.Class, "class %s", c.Name)
	}
}

func TestClassByName_Unknown(t *testing.T) {
	_, ok := ClassByName("archive")
	assert.False(t, ok)
}
