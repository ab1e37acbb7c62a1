// Package api exposes the honeypot over HTTP: the engage/analyze endpoints
// the message gateway calls, read-only session and profile views for
// operators, and a websocket feed that streams engagement events to the
// dashboard.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/honeypot-labs/cipher/pkg/config"
	"github.com/honeypot-labs/cipher/pkg/database"
	"github.com/honeypot-labs/cipher/pkg/detection"
	"github.com/honeypot-labs/cipher/pkg/engagement"
	"github.com/honeypot-labs/cipher/pkg/profile"
	"github.com/honeypot-labs/cipher/pkg/session"
)

// readHeaderTimeout bounds how long a client may take to send request
// headers before the connection is dropped.
const readHeaderTimeout = 10 * time.Second

// Engager runs one conversation turn. Implemented by engagement.Controller.
type Engager interface {
	ProcessMessage(ctx context.Context, sessionID string, incoming engagement.Message, history []engagement.Message) (*engagement.TurnResult, error)
}

// Detector scores a single message. Implemented by detection.Engine.
type Detector interface {
	Detect(text string, previousScore float64) detection.Signal
}

// Server wires the HTTP surface to the engagement pipeline.
type Server struct {
	cfg      *config.Config
	engager  Engager
	detector Detector
	sessions session.Store
	profiles profile.Store
	db       *database.Client // nil when profiles live in memory
	hub      *WSHub
	http     *http.Server
}

// NewServer builds the server and its underlying http.Server. Start and
// Shutdown manage the listener lifecycle.
func NewServer(cfg *config.Config, engager Engager, detector Detector, sessions session.Store, profiles profile.Store, db *database.Client, hub *WSHub) *Server {
	s := &Server{
		cfg:      cfg,
		engager:  engager,
		detector: detector,
		sessions: sessions,
		profiles: profiles,
		db:       db,
		hub:      hub,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Router assembles the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(), recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/ws/live", apiKeyAuth(s.cfg.APIKey), s.handleLiveFeed)

	v1 := r.Group("/api/v1")
	v1.GET("/feature-flags", s.handleFeatureFlags)

	authed := v1.Group("", apiKeyAuth(s.cfg.APIKey))
	authed.POST("/engage", s.handleEngage)
	authed.POST("/analyze", s.handleAnalyze)
	authed.GET("/engage/:id", s.handleGetSession)
	authed.GET("/profile/:sender", s.handleGetProfile)
	authed.GET("/profiles", s.handleListProfiles)

	return r
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	if s.cfg.APIKey == "" {
		slog.Warn("API_KEY is empty; authentication is disabled")
	}
	slog.Info("HTTP server listening", "addr", s.http.Addr)

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
