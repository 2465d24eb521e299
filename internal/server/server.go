// Package server wires the slideshow page, the live router and the HTTP
// endpoints around them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gabrielmiguelok/slidedeck/client"
	"github.com/gabrielmiguelok/slidedeck/internal/config"
	"github.com/gabrielmiguelok/slidedeck/internal/site"
	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/health"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
	"github.com/gabrielmiguelok/slidedeck/pkg/router"
	"github.com/gabrielmiguelok/slidedeck/pkg/shutdown"
	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
)

// Server serves the slideshow.
type Server struct {
	cfg     config.Config
	logger  logging.Logger
	version string

	content *site.Content
	live    *router.Router
	health  *health.Checker
	router  chi.Router
}

// New builds a server from a validated configuration.
func New(cfg config.Config, logger logging.Logger, version string) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		version: version,
		content: site.NewContent(cfg.Site.ContentDir),
	}

	s.live = router.New(
		router.WithConfig(cfg.Server),
		router.WithLogger(logger),
	)
	s.live.Live("/", func() core.Component {
		return site.NewPage(cfg.Site, s.content)
	})

	s.health = health.NewChecker(version)
	s.health.AddCriticalCheck("content", health.DirCheck(cfg.Site.ContentDir), time.Second)
	s.health.AddCheck("live_sockets",
		health.CapacityCheck(s.live.Sockets().Count, cfg.Server.MaxConnections), time.Second)

	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(propagateRequestID)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Handle("/_live/*", http.StripPrefix("/_live/", client.Handler()))

	r.Method(http.MethodGet, "/healthz", s.health.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", s.health.ReadinessHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(s.corsOptions()))
		r.Get("/sections", s.handleSections)
	})

	// GET renders the page; a WebSocket upgrade on the same path goes live.
	r.Method(http.MethodGet, "/", s.live)

	return r
}

func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedOrigins: s.cfg.Server.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", logging.RequestIDHeader},
		ExposedHeaders: []string{logging.RequestIDHeader},
		MaxAge:         300,
	}
	switch {
	case s.cfg.Server.Security.InsecureDevMode:
		opts.AllowedOrigins = []string{"*"}
	case len(opts.AllowedOrigins) == 0:
		// Same origin only. cors treats an empty list as "*".
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return opts
}

// propagateRequestID hands the id chosen by middleware.RequestID to the
// request logger.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(logging.RequestIDHeader) == "" {
			if id := middleware.GetReqID(r.Context()); id != "" {
				r.Header.Set(logging.RequestIDHeader, id)
			}
		}
		next.ServeHTTP(w, r)
	})
}

type sectionInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type sectionsResponse struct {
	Title    string        `json:"title"`
	Default  string        `json:"default"`
	Sections []sectionInfo `json:"sections"`
}

// handleSections lists the configured sections in navigation order.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	names := s.cfg.Site.Names()
	resp := sectionsResponse{
		Title:    s.cfg.Site.Title,
		Default:  slides.Normalize(s.cfg.Site.Default).String(),
		Sections: make([]sectionInfo, 0, len(names)),
	}
	for i, sec := range s.cfg.Site.Sections {
		resp.Sections = append(resp.Sections, sectionInfo{
			Name:  names[i].String(),
			ID:    sec.ID,
			Title: sec.Title,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.L(r.Context()).Warn("writing sections response", logging.Err(err))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Live returns the live component router.
func (s *Server) Live() *router.Router {
	return s.live
}

// Run serves on the configured address until ctx is done or a shutdown
// signal arrives, then drains HTTP requests and live sockets.
func (s *Server) Run(ctx context.Context) error {
	timeouts := s.cfg.Server.Timeouts

	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go s.live.RunCleanup(cleanupCtx, cleanupInterval(timeouts.SessionCleanup))

	sd := shutdown.DefaultConfig()
	sd.Timeout = timeouts.GracefulShutdown
	sd.Logger = s.logger
	handler := shutdown.NewHandler(sd)
	handler.RegisterFunc("http", shutdown.PriorityHTTP, srv.Shutdown)
	handler.RegisterFunc("live", shutdown.PriorityLive, s.live.Shutdown)
	handler.RegisterFunc("cleanup", shutdown.PriorityLast, func(context.Context) error {
		stopCleanup()
		return nil
	})

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("slidedeck listening",
			logging.String("address", srv.Addr),
			logging.Int("sections", len(s.cfg.Site.Sections)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("listening on %s: %w", srv.Addr, err)
			return
		}
		serveErr <- nil
	}()

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// A failed listener ends the wait as well.
		select {
		case err := <-serveErr:
			serveErr <- err
			cancel()
		case <-waitCtx.Done():
		}
	}()

	if err := handler.Wait(waitCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("slidedeck stopped")

	return <-serveErr
}

// cleanupInterval checks idle sockets a few times per TTL.
func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	if iv := ttl / 4; iv > time.Second {
		return iv
	}
	return time.Second
}
