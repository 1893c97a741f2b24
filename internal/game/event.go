package game

import (
	"encoding/json"
	"time"
)

// EventType classifies match journal entries
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeMatchStart
	EventTypeVoidSpawn
	EventTypeConsume
	EventTypeGameOver
	EventTypeMenu
	EventTypeReset
)

// EventVersion is bumped when a payload changes shape
const EventVersion uint8 = 1

// Event is one journal line
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	MatchID   string          `json:"matchId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (t EventType) String() string {
	switch t {
	case EventTypeMatchStart:
		return "match_start"
	case EventTypeVoidSpawn:
		return "void_spawn"
	case EventTypeConsume:
		return "consume"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeMenu:
		return "menu"
	case EventTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// MatchStartPayload is written when a match begins
type MatchStartPayload struct {
	Duration    int   `json:"duration"`
	Voids       int   `json:"voids"`
	Consumables int   `json:"consumables"`
	Seed        int64 `json:"seed"`
}

// VoidSpawnPayload is written for every spawned void
type VoidSpawnPayload struct {
	VoidID   string  `json:"voidId"`
	Name     string  `json:"name"`
	IsPlayer bool    `json:"isPlayer"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
}

// ConsumePayload is written when a void swallows an object
type ConsumePayload struct {
	VoidID   string  `json:"voidId"`
	ObjectID string  `json:"objectId"`
	Kind     string  `json:"kind"`
	Value    float64 `json:"value"`
	Size     float64 `json:"size"`
}

// GameOverPayload carries the final standings
type GameOverPayload struct {
	Standings []Standing `json:"standings"`
	PlayerWon bool       `json:"playerWon"`
}

// EncodePayload marshals a payload, returning nil when it cannot be encoded
func EncodePayload(payload any) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType EventType, tickNum uint64, matchID string, payload any) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		MatchID:   matchID,
		Payload:   EncodePayload(payload),
	}
}
