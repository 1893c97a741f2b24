package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/game"
	"urban-void/internal/render"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	ObservableState() map[string]game.VoidView
	Leaderboard() []game.Standing
	Status() game.MatchStatus
	Result() (game.MatchResult, bool)
	PlayerFocus() (game.FollowTarget, bool)
	ActiveConsumables() []game.ConsumableView
	Boundary() float64

	Start() bool
	Reset()
	ReturnToMenu() bool
	SetPlayerAimPoint(p r2.Vec)
	ClearPlayerAim()
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: engine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the match engine (required)
	Engine EngineInterface

	// Minimap renders /api/minimap.png. If nil, a 256px minimap of the
	// engine's arena is created.
	Minimap *render.Minimap

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil. If both are nil,
	// uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the dependencies of the route handlers.
type routerHandlers struct {
	engine  EngineInterface
	minimap *render.Minimap
}

// NewRouter constructs the HTTP router with all middleware and routes.
// It opens no listeners, so it is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	minimap := cfg.Minimap
	if minimap == nil {
		minimap = render.NewMinimap(256, cfg.Engine.Boundary())
	}
	h := &routerHandlers{engine: cfg.Engine, minimap: minimap}

	r.Route("/api", func(r chi.Router) {
		// Read-only presentation
		r.Get("/state", h.handleGetState)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/result", h.handleGetResult)
		r.Get("/consumables", h.handleGetConsumables)
		r.Get("/minimap.png", h.handleGetMinimap)

		// Match control
		r.Post("/match/start", h.handleMatchStart)
		r.Post("/match/reset", h.handleMatchReset)
		r.Post("/match/menu", h.handleMatchMenu)

		// Player input
		r.Post("/player/aim", h.handlePlayerAim)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}

// requestMetrics records latency and status per route pattern
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
