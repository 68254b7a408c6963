package server

import (
	"encoding/json"
	"image"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/interact"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// clientMessage is one inbound WebSocket message. The UI declares its
// surface size, then registers its interactive targets; targets may be
// moved while registered and the new bounds take effect on the next
// frame.
type clientMessage struct {
	Type string `json:"type"` // surface, register, move, unregister
	ID   string `json:"id,omitempty"`

	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	ActivationRadius float64 `json:"activation_radius,omitempty"`
	HoldMs           int     `json:"hold_ms,omitempty"`
	RequireHold      bool    `json:"require_hold,omitempty"`
}

// Event is one outbound WebSocket message.
type Event struct {
	Type      string                     `json:"type"`
	Target    string                     `json:"target,omitempty"`
	Hand      *detector.HandObservation  `json:"hand,omitempty"`
	Seconds   int                        `json:"seconds,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Hands     []detector.HandObservation `json:"hands,omitempty"`
	Faces     []detector.FaceObservation `json:"faces,omitempty"`
	Timestamp int64                      `json:"timestamp,omitempty"`
}

// wsClient is one connected UI with its registered targets. Target
// bounds live here so a move message relocates the target without
// re-registering it.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	bounds map[string]image.Rectangle
}

func (c *wsClient) send(e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// InteractionHandler is the WebSocket endpoint through which the booth
// UI registers its virtual targets and receives interaction events,
// countdown updates and enriched detection frames.
type InteractionHandler struct {
	engine  *interact.Engine
	mu      sync.RWMutex
	clients map[*websocket.Conn]*wsClient
}

// NewInteractionHandler creates a new InteractionHandler bound to the
// given engine.
func NewInteractionHandler(engine *interact.Engine) *InteractionHandler {
	return &InteractionHandler{
		engine:  engine,
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// ServeHTTP handles WebSocket upgrade requests and runs the per-client
// read loop until the connection drops.
func (h *InteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{
		conn:   conn,
		bounds: make(map[string]image.Rectangle),
	}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()

		// Targets die with their connection.
		client.mu.Lock()
		ids := make([]string, 0, len(client.bounds))
		for id := range client.bounds {
			ids = append(ids, id)
		}
		client.mu.Unlock()
		for _, id := range ids {
			h.engine.Registry().Unregister(id)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.send(Event{Type: "error", Message: "invalid message"})
			continue
		}
		h.handleMessage(client, &msg)
	}
}

// handleMessage applies one client message to the engine.
func (h *InteractionHandler) handleMessage(c *wsClient, msg *clientMessage) {
	switch msg.Type {
	case "surface":
		if msg.Width > 0 && msg.Height > 0 {
			h.engine.SetSurfaceSize(msg.Width, msg.Height)
		}

	case "register":
		rect := image.Rect(msg.X, msg.Y, msg.X+msg.Width, msg.Y+msg.Height)
		c.mu.Lock()
		c.bounds[msg.ID] = rect
		c.mu.Unlock()

		id := msg.ID
		bounds := func() image.Rectangle {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.bounds[id]
		}
		config := interact.TargetConfig{
			ActivationRadius: msg.ActivationRadius,
			HoldDuration:     time.Duration(msg.HoldMs) * time.Millisecond,
			RequireHold:      msg.RequireHold,
		}
		if err := h.engine.Registry().Register(id, bounds, config); err != nil {
			c.mu.Lock()
			delete(c.bounds, id)
			c.mu.Unlock()
			c.send(Event{Type: "error", Target: id, Message: err.Error()})
		}

	case "move":
		c.mu.Lock()
		if _, ok := c.bounds[msg.ID]; ok {
			c.bounds[msg.ID] = image.Rect(msg.X, msg.Y, msg.X+msg.Width, msg.Y+msg.Height)
		}
		c.mu.Unlock()

	case "unregister":
		c.mu.Lock()
		_, ok := c.bounds[msg.ID]
		delete(c.bounds, msg.ID)
		c.mu.Unlock()
		if ok {
			h.engine.Registry().Unregister(msg.ID)
		}

	default:
		c.send(Event{Type: "error", Message: "unknown message type"})
	}
}

// Broadcast sends an event to every connected client.
func (h *InteractionHandler) Broadcast(e Event) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.send(e)
	}
}

// PublishFrame broadcasts one processed detection frame, with hands
// already annotated with their classified gestures.
func (h *InteractionHandler) PublishFrame(frame *interact.Frame) {
	h.mu.RLock()
	empty := len(h.clients) == 0
	h.mu.RUnlock()
	if empty {
		return
	}

	h.Broadcast(Event{
		Type:      "frame",
		Hands:     frame.Hands,
		Faces:     frame.Faces,
		Timestamp: frame.Timestamp.UnixMilli(),
	})
}

// ClientCount returns the number of connected clients.
func (h *InteractionHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
