// Package config provides centralized configuration management.
//
// Values come from three layers, later layers winning: typed defaults, an
// optional YAML file named by VOID_CONFIG, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"urban-void/internal/world"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	TickRate     int   `yaml:"tick_rate"`     // Ticks per second
	PublishEvery int   `yaml:"publish_every"` // Ticks between observable position refreshes
	Seed         int64 `yaml:"seed"`          // 0 picks a time-based seed
}

// DefaultSimulation returns 60 TPS with a ~10 Hz observable refresh.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:     60,
		PublishEvery: 6,
	}
}

func (c *SimulationConfig) applyEnv() {
	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		c.TickRate = v
	}
	if v := getEnvInt("PUBLISH_EVERY", 0); v > 0 {
		c.PublishEvery = v
	}
	if v := getEnvInt64("SIM_SEED", 0); v != 0 {
		c.Seed = v
	}
}

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// RosterEntry is one void spawned at match start.
type RosterEntry struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Color  string  `yaml:"color"`
	Player bool    `yaml:"player"`
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
}

// MatchConfig holds match rules.
type MatchConfig struct {
	Duration  int           `yaml:"duration"`   // Seconds
	AutoStart bool          `yaml:"auto_start"` // Start a match when the server boots
	Roster    []RosterEntry `yaml:"roster"`
}

// DefaultMatch returns a two-minute match with one player and three bots.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		Duration: 120,
		Roster: []RosterEntry{
			{ID: "player-1", Name: "YOU", Color: "#ff0088", Player: true},
			{ID: "ai-1", Name: "Bot Alpha", Color: "#0088ff", X: 30, Z: 30},
			{ID: "ai-2", Name: "Bot Beta", Color: "#00ff88", X: -30, Z: -30},
			{ID: "ai-3", Name: "Bot Gamma", Color: "#ffaa00", X: 30, Z: -30},
		},
	}
}

func (c *MatchConfig) applyEnv() {
	if v := getEnvInt("MATCH_DURATION", 0); v > 0 {
		c.Duration = v
	}
	if v, ok := getEnvBool("AUTO_START"); ok {
		c.AutoStart = v
	}
}

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the playfield bounds and the city layout.
type ArenaConfig struct {
	Boundary    float64          `yaml:"boundary"`     // Half-extent on x and z
	CityEnabled bool             `yaml:"city_enabled"` // Generate the city at match start
	City        world.CityConfig `yaml:"city"`
}

// DefaultArena returns the standard 190x190 arena with a generated city.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		Boundary:    95,
		CityEnabled: true,
		City:        world.DefaultCity(),
	}
}

func (c *ArenaConfig) applyEnv() {
	if v := getEnvFloat("ARENA_BOUNDARY", 0); v > 0 {
		c.Boundary = v
	}
	if v, ok := getEnvBool("CITY_ENABLED"); ok {
		c.CityEnabled = v
	}
	if v := getEnvInt("CITY_CARS", -1); v >= 0 {
		c.City.Cars = v
	}
	if v := getEnvInt("CITY_DEBRIS", -1); v >= 0 {
		c.City.Debris = v
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	BroadcastHz int      `yaml:"broadcast_hz"` // WebSocket frame rate
	MinimapSize int      `yaml:"minimap_size"` // Pixels
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
		},
		BroadcastHz: 10,
		MinimapSize: 256,
	}
}

func (c *ServerConfig) applyEnv() {
	if v := getEnvInt("PORT", 0); v > 0 {
		c.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := getEnvInt("WS_BROADCAST_HZ", 0); v > 0 {
		c.BroadcastHz = v
	}
	if v := getEnvInt("MINIMAP_SIZE", 0); v > 0 {
		c.MinimapSize = v
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig configures the debug server (pprof, metrics, health).
type ObservabilityConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddr    string `yaml:"listen_addr"` // Localhost unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string `yaml:"basic_auth_user"`
	BasicAuthPass string `yaml:"basic_auth_pass"`
}

// DefaultObservability binds the debug server to localhost.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

func (c *ObservabilityConfig) applyEnv() {
	if v, ok := getEnvBool("DEBUG_ENABLED"); ok {
		c.Enabled = v
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("DEBUG_USER"); v != "" {
		c.BasicAuthUser = v
		c.BasicAuthPass = os.Getenv("DEBUG_PASS")
	}
}

// =============================================================================
// JOURNAL CONFIGURATION
// =============================================================================

// JournalConfig controls the match event journal.
type JournalConfig struct {
	Path            string `yaml:"path"` // Empty keeps the journal in memory
	MaxEventsPerSec int    `yaml:"max_events_per_sec"`
}

// DefaultJournal keeps events in memory only.
func DefaultJournal() JournalConfig {
	return JournalConfig{MaxEventsPerSec: 5000}
}

func (c *JournalConfig) applyEnv() {
	if v := os.Getenv("EVENT_LOG_PATH"); v != "" {
		c.Path = v
	}
	if v := getEnvInt("EVENT_LOG_RATE", 0); v > 0 {
		c.MaxEventsPerSec = v
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation    SimulationConfig    `yaml:"simulation"`
	Match         MatchConfig         `yaml:"match"`
	Arena         ArenaConfig         `yaml:"arena"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
	Journal       JournalConfig       `yaml:"journal"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Simulation:    DefaultSimulation(),
		Match:         DefaultMatch(),
		Arena:         DefaultArena(),
		Server:        DefaultServer(),
		Observability: DefaultObservability(),
		Journal:       DefaultJournal(),
	}
}

// Load builds the configuration from defaults, the VOID_CONFIG file when set,
// and environment overrides, then validates it.
func Load() (AppConfig, error) {
	cfg := Default()
	if path := os.Getenv("VOID_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values; lists are replaced whole.
func LoadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment overrides to every section.
func (c *AppConfig) ApplyEnv() {
	c.Simulation.applyEnv()
	c.Match.applyEnv()
	c.Arena.applyEnv()
	c.Server.applyEnv()
	c.Observability.applyEnv()
	c.Journal.applyEnv()
}

// Validate reports the first setting the engine or server cannot run with.
func (c AppConfig) Validate() error {
	switch {
	case c.Simulation.TickRate < 1 || c.Simulation.TickRate > 1000:
		return fmt.Errorf("%w: simulation.tick_rate %d not in [1, 1000]", ErrInvalidConfig, c.Simulation.TickRate)
	case c.Simulation.PublishEvery < 1:
		return fmt.Errorf("%w: simulation.publish_every must be positive", ErrInvalidConfig)
	case c.Match.Duration < 1:
		return fmt.Errorf("%w: match.duration must be positive", ErrInvalidConfig)
	case !(c.Arena.Boundary > 0):
		return fmt.Errorf("%w: arena.boundary must be positive", ErrInvalidConfig)
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	case c.Server.BroadcastHz < 1:
		return fmt.Errorf("%w: server.broadcast_hz must be positive", ErrInvalidConfig)
	case c.Journal.MaxEventsPerSec < 0:
		return fmt.Errorf("%w: journal.max_events_per_sec is negative", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Match.Roster))
	players := 0
	for i, r := range c.Match.Roster {
		if r.ID == "" {
			return fmt.Errorf("%w: match.roster[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: match.roster id %q is repeated", ErrInvalidConfig, r.ID)
		}
		seen[r.ID] = true
		if r.Player {
			players++
		}
	}
	if players > 1 {
		return fmt.Errorf("%w: match.roster has %d players, at most one allowed", ErrInvalidConfig, players)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvBool reports the parsed value and whether the variable was set to a
// recognizable boolean.
func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
