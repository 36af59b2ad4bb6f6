package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server serves /health and /metrics while a training session runs.
type Server struct {
	metrics   *Metrics
	logger    *slog.Logger
	startTime time.Time
	srv       *http.Server
}

// NewServer builds the HTTP server. It does not listen until Start.
func NewServer(addr string, m *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{metrics: m, logger: logger, startTime: time.Now()}
	s.srv = &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"service":        "neurocars",
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"generation":     s.metrics.lastGeneration.Load(),
			"restarts":       s.metrics.restartCount.Load(),
		})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

// Start launches the server and shuts it down when ctx ends. Non-blocking.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info("metrics server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
}

// Shutdown stops the server, waiting up to five seconds for open requests.
func (s *Server) Shutdown() {
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(shutCtx)
}
