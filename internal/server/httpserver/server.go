// Package httpserver exposes the service over HTTP using gin. All asset
// routes require a bearer token; /healthz and /metrics are open.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelins/classmedia/internal/logging"
	"github.com/avelins/classmedia/internal/server/metrics"
	"github.com/avelins/classmedia/internal/server/services"
)

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer builds the router and binds it to addr. secretKey verifies
// bearer tokens issued by the platform's auth service.
func NewServer(addr string, secretKey []byte, svc *services.AssetService, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	h := &assetHandler{svc: svc, logger: logger}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1", requireIdentity(secretKey))
	{
		api.POST("/uploads", h.requestUpload)
		api.POST("/uploads/confirm", h.confirmUpload)
		api.GET("/assets", h.listAssets)
		api.GET("/assets/:id/access", h.getAccess)
		api.DELETE("/assets/:id", h.deleteAsset)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run blocks serving requests until the listener fails or Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
