package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/logging"
)

// Server runs the HTTP endpoint with graceful shutdown.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	logger          logging.Logger
	engine          *gin.Engine
}

func NewServer(addr string, shutdownTimeout time.Duration, logger logging.Logger, handlers *Handlers) *Server {
	return &Server{
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		engine:          NewRouter(logger, handlers),
	}
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(logger logging.Logger, h *Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/addZone", h.addZone)
		api.POST("/getZone", h.getZone)
		api.POST("/getZones", h.getZones)
		api.POST("/deleteZone", h.deleteZone)
		api.POST("/setZoneInfo", h.setZoneInfo)

		api.POST("/addUser", h.addUser)
		api.POST("/getUser", h.getUser)
		api.POST("/getUsers", h.getUsers)
		api.POST("/setUserInfo", h.setUserInfo)
		api.POST("/resetUserApiKey", h.resetUserAPIKey)

		api.POST("/usage", h.computeUsage)

		api.POST("/initiateFileUpload", h.initiateFileUpload)
		api.POST("/finalizeFileUpload", h.finalizeFileUpload)
		api.POST("/findFile", h.findFile)
	}

	r.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

// Run serves until ctx is canceled, then drains in-flight requests within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info(ctx, "http server stopped")
	return <-errCh
}
