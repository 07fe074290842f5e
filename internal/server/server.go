// Package server wires configuration, logging, metrics, the provider
// session, and the HTTP surface into one runnable service.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/adapter"
	"github.com/tabpilot/tabpilot/internal/api"
	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/config"
	"github.com/tabpilot/tabpilot/internal/interaction"
	"github.com/tabpilot/tabpilot/internal/logging"
	"github.com/tabpilot/tabpilot/internal/middleware"
	"github.com/tabpilot/tabpilot/internal/monitoring"
	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/internal/version"
)

// Server is the assembled service.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics
	session *session.Session
	http    *http.Server
	router  *gin.Engine
}

// New assembles the service from cfg. The browser itself launches
// lazily on the first chat request, not here.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	prov, err := adapter.Lookup(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.New()

	launch := func() (browser.Page, func() error, error) {
		h, err := browser.Launch(browser.Options{
			Headless:   cfg.Browser.Headless,
			UseProfile: cfg.Browser.UseProfile,
			ProfileDir: cfg.Browser.ProfileDir,
			UserAgent:  cfg.Browser.UserAgent,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Close, nil
	}

	icfg := interaction.DefaultConfig(prov.Timeouts())
	if cfg.Provider.PollIntervalSeconds > 0 {
		icfg.PollInterval = time.Duration(cfg.Provider.PollIntervalSeconds) * time.Second
	}
	if cfg.Provider.LoadTimeoutSeconds > 0 {
		icfg.LoadTimeout = time.Duration(cfg.Provider.LoadTimeoutSeconds) * time.Second
	}
	if cfg.Provider.ResponseTimeoutSeconds > 0 {
		icfg.ResponseTimeout = time.Duration(cfg.Provider.ResponseTimeoutSeconds) * time.Second
	}

	sess := session.New(prov, launch, icfg, metrics, log)
	handlers := api.NewHandlers(sess, cfg.Provider.ModelID, cfg.Server.Stream, version.Version, log)

	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		session: sess,
	}
	s.router = s.buildRouter(handlers)
	s.http = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) buildRouter(h *api.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(
			float64(s.cfg.RateLimit.RequestsPerSecond),
			s.cfg.RateLimit.Burst,
		)
		router.Use(rl.Middleware())
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/models", h.Models)
	router.POST("/chat/completions", h.ChatCompletions)
	router.POST("/chat", h.SimpleChat)
	router.POST("/restart", h.RestartSession)

	// OpenAI clients default to a /v1 prefix; both spellings work.
	v1 := router.Group("/v1")
	{
		v1.GET("", h.Root)
		v1.GET("/health", h.Health)
		v1.GET("/models", h.Models)
		v1.POST("/chat/completions", h.ChatCompletions)
	}

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.NoRoute(h.NotFound)
	return router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
}

// Router exposes the handler chain, primarily for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("HTTP server starting",
		zap.String("addr", s.Addr()),
		zap.String("provider", s.session.Provider()),
		zap.String("model", s.cfg.Provider.ModelID),
	)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains HTTP connections and closes the browser session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if cerr := s.session.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.log.Info("Server stopped")
	return err
}
