package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"urban-void/internal/render"
)

// ServerConfig holds the settings NewServer needs beyond the engine
type ServerConfig struct {
	CORSOrigins []string
	BroadcastHz int
	MinimapSize int

	// RateLimit overrides DefaultRateLimitConfig when set
	RateLimit *RateLimitConfig
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	broadcastHz int

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine EngineInterface, cfg ServerConfig) *Server {
	rateCfg := DefaultRateLimitConfig
	if cfg.RateLimit != nil {
		rateCfg = *cfg.RateLimit
	}

	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, cfg.CORSOrigins),
		rateLimiter: NewIPRateLimiter(rateCfg),
		broadcastHz: cfg.BroadcastHz,
	}

	var minimap *render.Minimap
	if cfg.MinimapSize > 0 {
		minimap = render.NewMinimap(cfg.MinimapSize, engine.Boundary())
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Minimap:     minimap,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
// It blocks until Shutdown and then returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.broadcastHz)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🛰️ Live state: ws://localhost%s/ws (add ?codec=msgpack for binary frames)", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(engine, api.ServerConfig{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub, mainly for tests that run it directly
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// stops the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.Stop()
	return err
}

// Stop performs shutdown of background workers. Safe to call more than once.
func (s *Server) Stop() {
	s.wsHub.Stop()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
