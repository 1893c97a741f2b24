package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/game"
	"urban-void/internal/render"
)

// StateDocument is the presentation snapshot served over HTTP and pushed
// over WebSocket.
type StateDocument struct {
	Status      game.MatchStatus   `json:"status" msgpack:"status"`
	Voids       []game.VoidView    `json:"voids" msgpack:"voids"`
	Leaderboard []game.Standing    `json:"leaderboard" msgpack:"leaderboard"`
	Focus       *game.FollowTarget `json:"focus,omitempty" msgpack:"focus,omitempty"`
}

// buildState assembles a StateDocument with voids ordered by id
func buildState(engine EngineInterface) StateDocument {
	views := engine.ObservableState()
	voids := make([]game.VoidView, 0, len(views))
	for _, v := range views {
		voids = append(voids, v)
	}
	sort.Slice(voids, func(i, j int) bool { return voids[i].ID < voids[j].ID })

	doc := StateDocument{
		Status:      engine.Status(),
		Voids:       voids,
		Leaderboard: engine.Leaderboard(),
	}
	if focus, ok := engine.PlayerFocus(); ok {
		doc.Focus = &focus
	}
	return doc
}

// aimRequest is the body of POST /api/player/aim and of WebSocket aim commands
type aimRequest struct {
	X     *float64 `json:"x" msgpack:"x"`
	Z     *float64 `json:"z" msgpack:"z"`
	Clear bool     `json:"clear" msgpack:"clear"`
}

// apply forwards the request to the engine. Returns false if neither a
// finite point nor a clear was given.
func (req aimRequest) apply(engine EngineInterface) bool {
	if req.Clear {
		engine.ClearPlayerAim()
		return true
	}
	if req.X == nil || req.Z == nil {
		return false
	}
	x, z := *req.X, *req.Z
	if math.IsNaN(x) || math.IsNaN(z) || math.IsInf(x, 0) || math.IsInf(z, 0) {
		return false
	}
	engine.SetPlayerAimPoint(r2.Vec{X: x, Y: z})
	return true
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, buildState(h.engine))
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Leaderboard())
}

func (h *routerHandlers) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.engine.Result()
	if !ok {
		writeError(w, "No finished match", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

func (h *routerHandlers) handleGetConsumables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.ActiveConsumables())
}

func (h *routerHandlers) handleGetMinimap(w http.ResponseWriter, r *http.Request) {
	doc := buildState(h.engine)
	frame := render.Frame{Voids: doc.Voids, Consumables: h.engine.ActiveConsumables()}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.minimap.EncodePNG(w, frame); err != nil {
		log.Printf("❌ Minimap encode failed: %v", err)
	}
}

func (h *routerHandlers) handleMatchStart(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Start() {
		writeError(w, "Match can only start from the menu", http.StatusConflict)
		return
	}
	log.Println("🕳️ Match start requested via API")
	writeJSON(w, h.engine.Status())
}

func (h *routerHandlers) handleMatchReset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	writeJSON(w, h.engine.Status())
}

func (h *routerHandlers) handleMatchMenu(w http.ResponseWriter, r *http.Request) {
	if !h.engine.ReturnToMenu() {
		writeError(w, "Match is not over", http.StatusConflict)
		return
	}
	writeJSON(w, h.engine.Status())
}

func (h *routerHandlers) handlePlayerAim(w http.ResponseWriter, r *http.Request) {
	var req aimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !req.apply(h.engine) {
		writeError(w, "x and z must be finite numbers", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
