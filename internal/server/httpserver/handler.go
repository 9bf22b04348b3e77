package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/logging"
	"github.com/avelins/classmedia/internal/server/models"
	"github.com/avelins/classmedia/internal/server/services"
)

type assetHandler struct {
	svc    *services.AssetService
	logger logging.Logger
}

type requestUploadRequest struct {
	Class       string `json:"class" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
	FileName    string `json:"file_name"`
}

type uploadGrantResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
	ExpiresIn  int64  `json:"expires_in"`
}

func (h *assetHandler) requestUpload(c *gin.Context) {
	var req requestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	grant, err := h.svc.RequestUpload(c.Request.Context(), identity(c),
		req.Class, req.ContentType, req.SizeBytes, req.FileName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadGrantResponse{
		StorageKey: grant.StorageKey,
		URL:        grant.URL,
		ExpiresIn:  grant.ExpiresIn,
	})
}

type confirmUploadRequest struct {
	StorageKey  string `json:"storage_key" binding:"required"`
	Class       string `json:"class" binding:"required"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assetResponse struct {
	ID          string `json:"id"`
	Class       string `json:"class"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		ID:          a.ID,
		Class:       a.Class,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		Title:       a.Title,
		Description: a.Description,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *assetHandler) confirmUpload(c *gin.Context) {
	var req confirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	asset, err := h.svc.ConfirmUpload(c.Request.Context(), identity(c),
		req.StorageKey, req.Class, req.FileName, req.ContentType, req.Title, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

type accessGrantResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
	Class     string `json:"class"`
}

func (h *assetHandler) getAccess(c *gin.Context) {
	grant, err := h.svc.GetAccessURL(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accessGrantResponse{
		URL:       grant.URL,
		ExpiresIn: grant.ExpiresIn,
		Class:     string(grant.Class),
	})
}

func (h *assetHandler) listAssets(c *gin.Context) {
	assets, err := h.svc.ListAssets(c.Request.Context(), identity(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (h *assetHandler) deleteAsset(c *gin.Context) {
	if err := h.svc.DeleteAsset(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps service errors onto HTTP statuses with a stable
// machine-readable code. The message is the wrapped error text, which carries
// the specific reason; unexpected errors are logged and not echoed back.
func (h *assetHandler) respondError(c *gin.Context, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, common.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, common.ErrQuotaExceeded):
		status, code = http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, common.ErrObjectNotFound):
		status, code = http.StatusNotFound, "object_not_found"
	case errors.Is(err, common.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrSizeMismatch):
		status, code = http.StatusConflict, "size_mismatch"
	case errors.Is(err, common.ErrAssetNotActive):
		status, code = http.StatusConflict, "asset_not_active"
	case errors.Is(err, common.ErrNotOwner), errors.Is(err, common.ErrUnauthorized):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrInvalidToken):
		status, code = http.StatusUnauthorized, "unauthorized"
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": "infrastructure", "error": "upstream failure, retry later"})
		return
	}
	c.JSON(status, gin.H{"code": code, "error": err.Error()})
}
