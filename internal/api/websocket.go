package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"

	"urban-void/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// MaxWSInputPerSec caps steering commands per connection
	MaxWSInputPerSec = 120

	wsWriteTimeout = 5 * time.Second
	wsReadLimit    = 4096
)

// Codec selects how frames are encoded for a client
type Codec int

const (
	CodecJSON    Codec = iota // Text frames
	CodecMsgpack              // Binary frames
)

// ParseCodec maps the ?codec= query value. Anything unknown is JSON.
func ParseCodec(s string) Codec {
	if s == "msgpack" {
		return CodecMsgpack
	}
	return CodecJSON
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

// Envelope wraps every server-to-client frame
type Envelope struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// clientMessage is a client-to-server command
type clientMessage struct {
	Type  string   `json:"type" msgpack:"type"`
	X     *float64 `json:"x" msgpack:"x"`
	Z     *float64 `json:"z" msgpack:"z"`
	Clear bool     `json:"clear" msgpack:"clear"`
}

// encodedFrame carries one envelope in both wire formats so each is
// encoded once per broadcast, not once per client.
type encodedFrame struct {
	text   []byte
	binary []byte
}

func encodeFrame(event string, data interface{}) (encodedFrame, error) {
	env := Envelope{Event: event, Data: data}
	text, err := json.Marshal(env)
	if err != nil {
		return encodedFrame{}, err
	}
	binary, err := msgpack.Marshal(env)
	if err != nil {
		return encodedFrame{}, err
	}
	return encodedFrame{text: text, binary: binary}, nil
}

// wsClient tracks a WebSocket connection with its source IP and codec
type wsClient struct {
	conn  *websocket.Conn
	ip    string
	codec Codec
}

func (c *wsClient) write(f encodedFrame) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if c.codec == CodecMsgpack {
		return c.conn.WriteMessage(websocket.BinaryMessage, f.binary)
	}
	return c.conn.WriteMessage(websocket.TextMessage, f.text)
}

// WebSocketHub manages all WebSocket connections with DoS protection.
// Only the Run goroutine writes to connections.
type WebSocketHub struct {
	engine EngineInterface

	clients    map[*websocket.Conn]*wsClient
	broadcast  chan encodedFrame
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	origins  []string

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a hub that forwards steering commands to engine.
// Origins extends the always-allowed loopback origins.
func NewWebSocketHub(engine EngineInterface, origins []string) *WebSocketHub {
	h := &WebSocketHub{
		engine:     engine,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan encodedFrame, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		origins:    origins,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:   make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if IsAllowedOrigin(origin, h.origins) {
		return true
	}

	// Log rejected origin for security monitoring
	log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
	RecordConnectionRejected("origin")
	return false
}

// Run starts the hub. It returns after Stop, closing every connection.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s using %s (%d total)", client.ip, client.codec, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			if h.drop(conn) {
				count := h.ClientCount()
				log.Printf("📱 Client disconnected (%d remaining)", count)
				UpdateWSConnections(count)
			}

		case frame := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn, client := range h.clients {
				if err := client.write(frame); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range failed {
				h.drop(conn)
			}
			if len(failed) > 0 {
				UpdateWSConnections(h.ClientCount())
			}
			IncrementWSMessages()

		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return
		}
	}
}

// drop removes a connection and frees its IP slot
func (h *WebSocketHub) drop(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[conn]
	if !ok {
		return false
	}
	h.wsLimiter.Release(client.ip)
	delete(h.clients, conn)
	conn.Close()
	return true
}

// Stop ends Run and the broadcast loop. Safe to call more than once.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends an event to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		log.Printf("❌ WebSocket encode failed for %s: %v", event, err)
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes match state at hz frames per second until Stop.
// A "match:result" frame follows the state frame when a match ends.
func (h *WebSocketHub) StartBroadcastLoop(hz int) {
	if hz <= 0 {
		hz = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))

	go func() {
		defer ticker.Stop()
		lastPhase := ""
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if h.ClientCount() == 0 {
				continue
			}

			doc := buildState(h.engine)
			h.Broadcast("match:state", doc)

			phase := doc.Status.Phase
			if phase == game.PhaseGameOver.String() && lastPhase != phase {
				if result, ok := h.engine.Result(); ok {
					h.Broadcast("match:result", result)
				}
			}
			lastPhase = phase
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	// Check total connection limit
	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}
	conn.SetReadLimit(wsReadLimit)

	client := &wsClient{conn: conn, ip: ip, codec: ParseCodec(r.URL.Query().Get("codec"))}
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(client)
}

// readLoop applies steering commands until the connection fails
func (h *WebSocketHub) readLoop(client *wsClient) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.stopChan:
		}
	}()

	limiter := rate.NewLimiter(MaxWSInputPerSec, MaxWSInputPerSec)
	for {
		kind, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			continue
		}

		msg, err := decodeClientMessage(kind, data)
		if err != nil {
			RecordWSInput("invalid")
			continue
		}
		h.handleCommand(msg)
	}
}

func decodeClientMessage(kind int, data []byte) (clientMessage, error) {
	var msg clientMessage
	if kind == websocket.BinaryMessage {
		return msg, msgpack.Unmarshal(data, &msg)
	}
	return msg, json.Unmarshal(data, &msg)
}

func (h *WebSocketHub) handleCommand(msg clientMessage) {
	switch msg.Type {
	case "aim":
		if (aimRequest{X: msg.X, Z: msg.Z, Clear: msg.Clear}).apply(h.engine) {
			RecordWSInput("aim")
			return
		}
		RecordWSInput("invalid")
	case "clear_aim":
		h.engine.ClearPlayerAim()
		RecordWSInput("clear_aim")
	default:
		RecordWSInput("unknown")
	}
}
