package game

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/telemetry"
)

// WorldSource supplies the objects placed in the arena when a match starts
type WorldSource interface {
	Generate(rng *rand.Rand) []ConsumableSpec
}

// EngineConfig holds per-match settings
type EngineConfig struct {
	Boundary      float64    // Arena half-extent on x and z
	MatchDuration int        // Seconds
	PublishEvery  int        // Ticks between observable position refreshes
	Seed          int64      // 0 picks a time-based seed
	Roster        []VoidSpec // Voids spawned by Start
	World         WorldSource
}

// DefaultRoster is one player at the origin and three bots around it
func DefaultRoster() []VoidSpec {
	return []VoidSpec{
		{ID: "player-1", Name: "YOU", Color: "#ff0088", IsPlayer: true},
		{ID: "ai-1", Name: "Bot Alpha", Color: "#0088ff", Position: r2.Vec{X: 30, Y: 30}},
		{ID: "ai-2", Name: "Bot Beta", Color: "#00ff88", Position: r2.Vec{X: -30, Y: -30}},
		{ID: "ai-3", Name: "Bot Gamma", Color: "#ffaa00", Position: r2.Vec{X: 30, Y: -30}},
	}
}

// DefaultEngineConfig returns the standard match settings with no world source
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Boundary:      DefaultBoundary,
		MatchDuration: DefaultMatchDuration,
		PublishEvery:  DefaultPublishEvery,
		Roster:        DefaultRoster(),
	}
}

// MatchStatus summarizes the engine for presentation
type MatchStatus struct {
	MatchID           string `json:"matchId,omitempty" msgpack:"matchId,omitempty"`
	Phase             string `json:"phase" msgpack:"phase"`
	TimeLeft          int    `json:"timeLeft" msgpack:"timeLeft"`
	Duration          int    `json:"duration" msgpack:"duration"`
	Tick              uint64 `json:"tick" msgpack:"tick"`
	Voids             int    `json:"voids" msgpack:"voids"`
	ActiveConsumables int    `json:"activeConsumables" msgpack:"activeConsumables"`
	Consumed          int    `json:"consumed" msgpack:"consumed"`
}

// FollowTarget is the point and size a camera tracks
type FollowTarget struct {
	X      float64 `json:"x" msgpack:"x"`
	Z      float64 `json:"z" msgpack:"z"`
	Radius float64 `json:"radius" msgpack:"radius"`
}

type pullCommand struct {
	id    string
	force r2.Vec
}

type subscriber struct {
	id uint64
	fn func(GrowthEvent)
}

// Engine runs one arena: voids, objects, the match clock and the
// observable state. All methods are safe for concurrent use.
type Engine struct {
	mu  sync.RWMutex
	cfg EngineConfig

	registry   *Registry
	observable *ObservableState
	clock      *MatchClock

	voids    map[string]*Void
	order    []*Void // Spawn order; voids step in this order every tick
	playerID string
	aim      r2.Vec
	hasAim   bool

	consumables   map[string]*Consumable
	active        []*Consumable // Not yet consumed, spawn order
	consumedCount int

	queue       growthQueue
	pullHandler func(id string, force r2.Vec)
	pulls       []pullCommand

	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   uint64

	// Reused per-tick snapshot buffers
	perception []RegistryEntry
	contact    []RegistryEntry

	rng       *rand.Rand
	seed      int64
	tickCount uint64
	matchID   string
	result    *MatchResult

	eventLog *EventLog
}

// NewEngine creates an engine in MENU. Zero config fields take defaults.
func NewEngine(cfg EngineConfig) *Engine {
	if !(cfg.Boundary > 0) || math.IsInf(cfg.Boundary, 0) {
		cfg.Boundary = DefaultBoundary
	}
	if cfg.MatchDuration <= 0 {
		cfg.MatchDuration = DefaultMatchDuration
	}
	if cfg.PublishEvery <= 0 {
		cfg.PublishEvery = DefaultPublishEvery
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		cfg:         cfg,
		registry:    NewRegistry(len(cfg.Roster)),
		observable:  NewObservableState(),
		clock:       NewMatchClock(cfg.MatchDuration),
		voids:       make(map[string]*Void),
		consumables: make(map[string]*Consumable),
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
	}
}

// SetEventLog attaches a match journal. Nil detaches it.
func (e *Engine) SetEventLog(el *EventLog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eventLog = el
}

// SetPullHandler hands gravity-well forces to an external physics system
// instead of the built-in drift. The handler runs after the tick releases the
// engine lock and reports positions back through MoveConsumable.
func (e *Engine) SetPullHandler(fn func(id string, force r2.Vec)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pullHandler = fn
}

// ============================================================================
// Spawning
// ============================================================================

// SpawnVoid adds a void. Duplicate ids, a second player and non-finite
// positions are rejected.
func (e *Engine) SpawnVoid(spec VoidSpec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spawnVoidLocked(spec)
}

func (e *Engine) spawnVoidLocked(spec VoidSpec) bool {
	if spec.ID == "" || !finiteVec(spec.Position) {
		return false
	}
	if _, exists := e.voids[spec.ID]; exists {
		return false
	}
	if spec.IsPlayer && e.playerID != "" {
		log.Printf("⚠️ Rejected second player void %s (player is %s)", spec.ID, e.playerID)
		return false
	}

	v := NewVoid(spec)
	e.voids[v.ID] = v
	e.order = append(e.order, v)
	if v.IsPlayer() {
		e.playerID = v.ID
	}
	e.registry.Upsert(v.ID, v.Position, v.Radius, v.IsPlayer())
	e.observable.Register(v.View())

	e.eventLog.EmitSimple(EventTypeVoidSpawn, e.tickCount, e.matchID, VoidSpawnPayload{
		VoidID:   v.ID,
		Name:     v.Name,
		IsPlayer: v.IsPlayer(),
		X:        v.Position.X,
		Z:        v.Position.Y,
	})
	return true
}

// RemoveVoid destroys a void. Unknown ids are ignored.
func (e *Engine) RemoveVoid(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.voids[id]; !ok {
		return false
	}
	delete(e.voids, id)
	n := 0
	for _, v := range e.order {
		if v.ID != id {
			e.order[n] = v
			n++
		}
	}
	clear(e.order[n:])
	e.order = e.order[:n]

	if id == e.playerID {
		e.playerID = ""
		e.hasAim = false
	}
	e.registry.Remove(id)
	e.observable.Remove(id)
	return true
}

// SpawnConsumable places an object. Duplicate ids, non-positive sizes,
// negative values and non-finite numbers are rejected.
func (e *Engine) SpawnConsumable(spec ConsumableSpec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spawnConsumableLocked(spec)
}

func (e *Engine) spawnConsumableLocked(spec ConsumableSpec) bool {
	if spec.ID == "" || !finiteVec(spec.Position) {
		return false
	}
	if !(spec.Size > 0) || math.IsInf(spec.Size, 0) || !(spec.Value >= 0) || math.IsInf(spec.Value, 0) {
		return false
	}
	if _, exists := e.consumables[spec.ID]; exists {
		return false
	}

	c := NewConsumable(spec)
	e.consumables[c.ID] = c
	e.active = append(e.active, c)
	return true
}

// MoveConsumable sets the position of a live object, as reported by an
// external physics system.
func (e *Engine) MoveConsumable(id string, pos r2.Vec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.consumables[id]
	if !ok || c.Consumed() || !finiteVec(pos) {
		return false
	}
	c.Position = pos
	return true
}

// ============================================================================
// Input
// ============================================================================

// SetPlayerAimPoint sets the point the player void steers toward
func (e *Engine) SetPlayerAimPoint(p r2.Vec) {
	if !finiteVec(p) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aim = p
	e.hasAim = true
}

// ClearPlayerAim stops player steering; the void coasts to a halt
func (e *Engine) ClearPlayerAim() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hasAim = false
}

// SubscribeGrowthEvents registers fn for every applied growth event. fn runs
// on the ticking goroutine after the engine lock is released. The returned
// function unsubscribes and is safe to call more than once.
func (e *Engine) SubscribeGrowthEvents(fn func(GrowthEvent)) func() {
	if fn == nil {
		return func() {}
	}
	e.subMu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})
	e.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			for i, s := range e.subscribers {
				if s.id == id {
					e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// ============================================================================
// Simulation
// ============================================================================

// Tick advances the match by dt seconds. It does nothing outside PLAYING.
//
// Every void moves and writes its new position to the registry first; the
// consumption pass then reads one snapshot of those positions, so all objects
// see the same current-tick state. Growth raised by the pass is applied after
// it finishes.
func (e *Engine) Tick(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	start := time.Now()

	e.mu.Lock()
	if !e.clock.Playing() {
		e.mu.Unlock()
		return
	}
	e.tickCount++

	var aim *r2.Vec
	if e.hasAim {
		p := e.aim
		aim = &p
	}

	e.perception = e.registry.SnapshotInto(e.perception)
	for _, v := range e.order {
		var input *r2.Vec
		if v.IsPlayer() {
			input = aim
		}
		v.Step(dt, input, e.perception, e.rng, e.cfg.Boundary)
		e.registry.Upsert(v.ID, v.Position, v.Radius, v.IsPlayer())
	}

	e.contact = e.registry.SnapshotInto(e.contact)
	e.resolveConsumables(e.contact, dt)
	applied := e.applyGrowth()

	if e.tickCount%uint64(e.cfg.PublishEvery) == 0 {
		e.publishAll()
	}

	var pulls []pullCommand
	handler := e.pullHandler
	if handler != nil && len(e.pulls) > 0 {
		pulls = append(pulls, e.pulls...)
	}
	voids, active := len(e.order), len(e.active)
	e.mu.Unlock()

	for _, p := range pulls {
		handler(p.id, p.force)
	}
	e.dispatch(applied)

	telemetry.RecordTick(time.Since(start))
	telemetry.RecordGrowth(len(applied))
	telemetry.SetVoids(voids)
	telemetry.SetActiveConsumables(active)
}

// resolveConsumables tests every live object against the contact snapshot,
// queues growth for swallowed objects and compacts the active list in place.
func (e *Engine) resolveConsumables(entries []RegistryEntry, dt float64) {
	e.pulls = e.pulls[:0]
	n := 0
	for _, c := range e.active {
		in := c.Interact(entries)
		if in.ConsumedBy != "" {
			e.queue.push(GrowthEvent{
				VoidID:   in.ConsumedBy,
				ObjectID: c.ID,
				Value:    c.Value,
				Size:     c.Size,
				Tick:     e.tickCount,
			})
			e.consumedCount++
			telemetry.RecordConsumed(in.ConsumedBy == e.playerID)
			e.eventLog.EmitSimple(EventTypeConsume, e.tickCount, e.matchID, ConsumePayload{
				VoidID:   in.ConsumedBy,
				ObjectID: c.ID,
				Kind:     c.Kind.String(),
				Value:    c.Value,
				Size:     c.Size,
			})
			continue
		}

		if e.pullHandler != nil {
			if in.Pulled {
				e.pulls = append(e.pulls, pullCommand{id: c.ID, force: in.Pull})
			}
		} else if in.Pulled || c.Velocity != (r2.Vec{}) {
			c.Drift(in.Pull, dt)
		}
		e.active[n] = c
		n++
	}
	clear(e.active[n:])
	e.active = e.active[:n]
}

// applyGrowth drains the queue. Events naming an unknown void are dropped;
// every other event is delivered even when it leaves the void unchanged.
func (e *Engine) applyGrowth() []GrowthEvent {
	var applied []GrowthEvent
	e.queue.drain(func(ev GrowthEvent) {
		v, ok := e.voids[ev.VoidID]
		if !ok {
			return
		}
		if v.ApplyGrowth(ev.Value, ev.Size) {
			e.registry.Upsert(v.ID, v.Position, v.Radius, v.IsPlayer())
			e.observable.Publish(v.ID, v.Position.X, v.Position.Y, v.Radius, v.Score)
		}
		applied = append(applied, ev)
	})
	return applied
}

func (e *Engine) publishAll() {
	for _, v := range e.order {
		e.observable.Publish(v.ID, v.Position.X, v.Position.Y, v.Radius, v.Score)
	}
}

func (e *Engine) dispatch(events []GrowthEvent) {
	if len(events) == 0 {
		return
	}
	e.subMu.Lock()
	subs := make([]subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	e.subMu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}

// ============================================================================
// Match lifecycle
// ============================================================================

// Start begins a match from MENU: it clears the arena, assigns a new match
// id, spawns the roster and asks the world source for objects.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.clock.Phase() != PhaseMenu {
		e.mu.Unlock()
		return false
	}

	e.resetLocked()
	e.matchID = uuid.NewString()
	for _, spec := range e.cfg.Roster {
		e.spawnVoidLocked(spec)
	}
	if e.cfg.World != nil {
		for _, spec := range e.cfg.World.Generate(e.rng) {
			e.spawnConsumableLocked(spec)
		}
	}
	e.clock.Start()

	matchID := e.matchID
	voids, objects := len(e.order), len(e.active)
	e.eventLog.EmitSimple(EventTypeMatchStart, e.tickCount, matchID, MatchStartPayload{
		Duration:    e.clock.Duration(),
		Voids:       voids,
		Consumables: objects,
		Seed:        e.seed,
	})
	e.mu.Unlock()

	log.Printf("🕳️ Match %s started: %d voids, %d objects, %ds", matchID, voids, objects, e.cfg.MatchDuration)
	telemetry.RecordPhase(PhasePlaying.String())
	telemetry.SetTimeLeft(e.cfg.MatchDuration)
	return true
}

// DecrementClock removes one second from the countdown. It returns true on
// the call that ends the match, after the result has been finalized.
func (e *Engine) DecrementClock() bool {
	e.mu.Lock()
	wasPlaying := e.clock.Playing()
	ended := e.clock.DecrementOnce()
	left := e.clock.TimeLeft()
	var result MatchResult
	if ended {
		result = e.finalizeLocked()
	}
	e.mu.Unlock()

	if wasPlaying {
		telemetry.SetTimeLeft(left)
	}
	if ended {
		telemetry.RecordPhase(PhaseGameOver.String())
		if result.Winner != nil {
			log.Printf("🏁 Match %s over: %s wins with %d", result.MatchID, result.Winner.Name, result.Winner.Score)
		} else {
			log.Printf("🏁 Match %s over with no voids", result.MatchID)
		}
	}
	return ended
}

// finalizeLocked publishes every void once and freezes the standings
func (e *Engine) finalizeLocked() MatchResult {
	e.publishAll()
	result := newMatchResult(e.matchID, e.clock.Duration(), e.observable.Leaderboard(), time.Now())
	e.result = &result

	e.eventLog.EmitSimple(EventTypeGameOver, e.tickCount, e.matchID, GameOverPayload{
		Standings: result.Standings,
		PlayerWon: result.PlayerWon,
	})
	return result
}

// ReturnToMenu moves a finished match back to MENU. The last standings stay
// visible until the next Start or Reset.
func (e *Engine) ReturnToMenu() bool {
	e.mu.Lock()
	ok := e.clock.ReturnToMenu()
	if ok {
		e.eventLog.EmitSimple(EventTypeMenu, e.tickCount, e.matchID, nil)
	}
	e.mu.Unlock()

	if ok {
		telemetry.RecordPhase(PhaseMenu.String())
	}
	return ok
}

// Reset clears every void, object and the observable state and returns the
// clock to MENU with a full countdown. It is atomic with respect to Tick.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.eventLog.EmitSimple(EventTypeReset, e.tickCount, e.matchID, nil)
	e.resetLocked()
	e.mu.Unlock()

	log.Println("🔄 Arena reset")
	telemetry.RecordPhase(PhaseMenu.String())
	telemetry.SetVoids(0)
	telemetry.SetActiveConsumables(0)
}

func (e *Engine) resetLocked() {
	e.registry.Clear()
	e.observable.Clear()
	clear(e.voids)
	clear(e.order)
	e.order = e.order[:0]
	e.playerID = ""
	e.hasAim = false
	clear(e.consumables)
	clear(e.active)
	e.active = e.active[:0]
	e.consumedCount = 0
	e.queue.reset()
	e.pulls = e.pulls[:0]
	e.clock.Reset()
	e.tickCount = 0
	e.matchID = ""
	e.result = nil
}

// ============================================================================
// Queries
// ============================================================================

// ObservableState returns a copy of the presentation state keyed by void id
func (e *Engine) ObservableState() map[string]VoidView {
	return e.observable.Snapshot()
}

// Observable exposes the live presentation state for readers that poll it
func (e *Engine) Observable() *ObservableState {
	return e.observable
}

// Leaderboard ranks the voids by published score
func (e *Engine) Leaderboard() []Standing {
	return e.observable.Leaderboard()
}

// Result returns the standings of the last finished match
func (e *Engine) Result() (MatchResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.result == nil {
		return MatchResult{}, false
	}
	return *e.result, true
}

// Status summarizes the clock and arena
func (e *Engine) Status() MatchStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return MatchStatus{
		MatchID:           e.matchID,
		Phase:             e.clock.Phase().String(),
		TimeLeft:          e.clock.TimeLeft(),
		Duration:          e.clock.Duration(),
		Tick:              e.tickCount,
		Voids:             len(e.order),
		ActiveConsumables: len(e.active),
		Consumed:          e.consumedCount,
	}
}

// Phase returns the current match phase
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Phase()
}

// TimeLeft returns the countdown in seconds
func (e *Engine) TimeLeft() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.TimeLeft()
}

// MatchID returns the id assigned by the last Start
func (e *Engine) MatchID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matchID
}

// Boundary returns the arena half-extent
func (e *Engine) Boundary() float64 {
	return e.cfg.Boundary
}

// Void returns the live state of a void, fresher than the observable copy
func (e *Engine) Void(id string) (VoidView, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.voids[id]
	if !ok {
		return VoidView{}, false
	}
	return v.View(), true
}

// PlayerFocus returns what the camera should follow
func (e *Engine) PlayerFocus() (FollowTarget, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.voids[e.playerID]
	if !ok {
		return FollowTarget{}, false
	}
	return FollowTarget{X: v.Position.X, Z: v.Position.Y, Radius: v.Radius}, true
}

// Consumable returns an object by id, including consumed ones
func (e *Engine) Consumable(id string) (ConsumableView, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.consumables[id]
	if !ok {
		return ConsumableView{}, false
	}
	return c.View(), true
}

// ActiveConsumables returns every object not yet consumed, in spawn order
func (e *Engine) ActiveConsumables() []ConsumableView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ConsumableView, len(e.active))
	for i, c := range e.active {
		out[i] = c.View()
	}
	return out
}

// EventLogStats returns journal counters, zero when no journal is attached
func (e *Engine) EventLogStats() EventLogStats {
	e.mu.RLock()
	el := e.eventLog
	e.mu.RUnlock()
	return el.Stats()
}

func finiteVec(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
