package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/interact"
)

// newInteractionServer builds an engine whose registry events broadcast
// through the server's interaction handler, the way the booth wires
// them at startup.
func newInteractionServer(t *testing.T) (*httptest.Server, *interact.Engine, *InteractionHandler) {
	t.Helper()

	var hub *InteractionHandler
	events := interact.Events{
		HoverEnter: func(id string, hand *detector.HandObservation) {
			hub.Broadcast(Event{Type: "hover_enter", Target: id, Hand: hand})
		},
		HoverLeave: func(id string, hand *detector.HandObservation) {
			hub.Broadcast(Event{Type: "hover_leave", Target: id})
		},
		Press: func(id string, hand *detector.HandObservation) {
			hub.Broadcast(Event{Type: "press", Target: id, Hand: hand})
		},
		Release: func(id string, hand *detector.HandObservation) {
			hub.Broadcast(Event{Type: "release", Target: id})
		},
	}

	engine := interact.NewEngine(
		interact.NewRegistry(events),
		interact.NewHoldTimer(interact.DefaultHoldTimerConfig()),
	)
	engine.SetSourceSize(400, 400)

	srv := New(Config{Engine: engine})
	hub = srv.Interactions()
	if hub == nil {
		t.Fatal("expected interaction handler")
	}

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, engine, hub
}

// dialInteract opens a WebSocket connection to the interaction endpoint.
func dialInteract(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/interact"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

// waitForTarget polls until the registry knows the target, since
// registration happens on the connection's read goroutine.
func waitForTarget(t *testing.T, engine *interact.Engine, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := engine.Registry().State(id); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("target %q never registered", id)
}

// readEvent reads messages until one of the wanted type arrives.
func readEvent(t *testing.T, conn *websocket.Conn, wantType string) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q event: %v", wantType, err)
		}
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if e.Type == wantType {
			return e
		}
	}
}

func TestInteraction_RegisterAndPress(t *testing.T) {
	ts, engine, _ := newInteractionServer(t)
	conn := dialInteract(t, ts)

	sendMessage(t, conn, clientMessage{Type: "surface", Width: 400, Height: 400})
	sendMessage(t, conn, clientMessage{
		Type: "register", ID: "shutter",
		X: 180, Y: 180, Width: 40, Height: 40,
	})
	waitForTarget(t, engine, "shutter")

	// A hand whose index fingertip maps onto the target center. The
	// surface is square like the source, so only mirroring applies.
	hand := detector.MoveTo(detector.OpenHand(), 0.5, 0.5)
	engine.ProcessFrame(&interact.Frame{
		Hands:     []detector.HandObservation{hand},
		Timestamp: time.Now(),
	})

	e := readEvent(t, conn, "press")
	if e.Target != "shutter" {
		t.Errorf("press target = %q, want shutter", e.Target)
	}
	if e.Hand == nil {
		t.Error("press event carries no hand payload")
	}
}

func TestInteraction_MoveRelocatesTarget(t *testing.T) {
	ts, engine, _ := newInteractionServer(t)
	conn := dialInteract(t, ts)

	sendMessage(t, conn, clientMessage{Type: "surface", Width: 400, Height: 400})
	sendMessage(t, conn, clientMessage{
		Type: "register", ID: "btn",
		X: 0, Y: 0, Width: 40, Height: 40,
	})
	waitForTarget(t, engine, "btn")

	sendMessage(t, conn, clientMessage{Type: "move", ID: "btn", X: 180, Y: 180, Width: 40, Height: 40})

	// The move lands asynchronously; keep processing frames at the new
	// location until the hover registers.
	hand := detector.MoveTo(detector.OpenHand(), 0.5, 0.5)
	deadline := time.Now().Add(2 * time.Second)
	hovered := false
	for time.Now().Before(deadline) {
		engine.ProcessFrame(&interact.Frame{
			Hands:     []detector.HandObservation{hand},
			Timestamp: time.Now(),
		})
		if state, ok := engine.Registry().State("btn"); ok && state.Hovered {
			hovered = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !hovered {
		t.Error("target never hovered at its moved position")
	}
}

func TestInteraction_DuplicateRegisterRejected(t *testing.T) {
	ts, engine, _ := newInteractionServer(t)
	conn := dialInteract(t, ts)

	sendMessage(t, conn, clientMessage{Type: "register", ID: "dup", X: 0, Y: 0, Width: 10, Height: 10})
	waitForTarget(t, engine, "dup")
	sendMessage(t, conn, clientMessage{Type: "register", ID: "dup", X: 0, Y: 0, Width: 10, Height: 10})

	e := readEvent(t, conn, "error")
	if e.Target != "dup" {
		t.Errorf("error target = %q, want dup", e.Target)
	}
}

func TestInteraction_DisconnectUnregistersTargets(t *testing.T) {
	ts, engine, _ := newInteractionServer(t)
	conn := dialInteract(t, ts)

	sendMessage(t, conn, clientMessage{Type: "register", ID: "gone", X: 0, Y: 0, Width: 10, Height: 10})
	waitForTarget(t, engine, "gone")

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := engine.Registry().State("gone"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("target survived its connection")
}

func TestInteraction_PublishFrame(t *testing.T) {
	ts, engine, hub := newInteractionServer(t)
	conn := dialInteract(t, ts)

	// Wait until the server has recorded the client.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() == 0 {
		t.Fatal("client never connected")
	}

	// Processing annotates the hands, then the pipeline publishes the
	// enriched frame.
	frame := &interact.Frame{
		Hands:     []detector.HandObservation{detector.PeaceHand()},
		Timestamp: time.Now(),
	}
	engine.ProcessFrame(frame)
	hub.PublishFrame(frame)

	e := readEvent(t, conn, "frame")
	if len(e.Hands) != 1 {
		t.Fatalf("frame event hands = %d, want 1", len(e.Hands))
	}
	if e.Hands[0].Gesture != "peace" {
		t.Errorf("hand gesture = %q, want peace", e.Hands[0].Gesture)
	}
	if e.Timestamp == 0 {
		t.Error("frame event missing timestamp")
	}
}
