package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/eccker/photoboth/internal/app"
	"github.com/eccker/photoboth/internal/capture"
	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/gesture"
	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/server"
	"github.com/eccker/photoboth/internal/store"
)

// booth is a fully wired in-process photobooth for end-to-end tests.
type booth struct {
	store    *store.Store
	app      *app.App
	server   *httptest.Server
	captured chan *store.Capture
}

// newBooth builds the booth the way cmd/photoboth wires it: mock
// camera frames that keep motion detection firing, a mock detector
// holding a peace sign on the target, and the registry events fanned
// out over the interaction WebSocket.
func newBooth(t *testing.T) *booth {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	application, err := app.New(app.Config{
		Store:        s,
		PluginDir:    filepath.Join(tmpDir, "plugins"),
		PhotoDir:     filepath.Join(tmpDir, "photos"),
		MotionThresh: 0.05,
		HoldTimer: interact.HoldTimerConfig{
			Symbol:   gesture.Peace,
			Duration: 100 * time.Millisecond,
			Cooldown: 10 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	// Alternating dark and light frames so motion never settles.
	dark := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { dark.Close() })
	light := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { light.Close() })
	light.SetTo(gocv.NewScalar(255, 255, 255, 0))
	application.SetCamera(capture.NewMockCamera([]*gocv.Mat{&dark, &light}, true))

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandObservation{
		detector.MoveTo(detector.PeaceHand(), 0.5, 0.5),
	})
	application.SetDetector(mock)

	srv := server.New(server.Config{
		PhotoDir: filepath.Join(tmpDir, "photos"),
		Store:    s,
		Engine:   application.Engine(),
		Capture:  application.CaptureNow,
	})

	hub := srv.Interactions()
	application.OnInteraction(func(kind, targetID string, hand *detector.HandObservation) {
		hub.Broadcast(server.Event{Type: kind, Target: targetID, Hand: hand})
	})
	application.OnCountdown(func(seconds int) {
		hub.Broadcast(server.Event{Type: "countdown", Seconds: seconds})
	})
	application.OnFrame(hub.PublishFrame)

	captured := make(chan *store.Capture, 4)
	application.OnCapture(func(c *store.Capture) {
		select {
		case captured <- c:
		default:
		}
	})

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &booth{store: s, app: application, server: ts, captured: captured}
}

func (b *booth) dialInteract(t *testing.T) *websocket.Conn {
	t.Helper()
	url := strings.Replace(b.server.URL, "http://", "ws://", 1) + "/api/interact"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestE2E_GestureCaptureWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	b := newBooth(t)
	client := b.server.Client()

	// 1. Start a session over the API
	var session struct {
		ID string `json:"id"`
	}
	resp, err := client.Post(
		b.server.URL+"/api/sessions",
		"application/json",
		bytes.NewBufferString(`{"name": "graduation"}`),
	)
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	json.NewDecoder(resp.Body).Decode(&session)
	resp.Body.Close()

	b.app.SetSessionID(session.ID)

	// 2. Run the pipeline until the sustained peace sign captures
	if err := b.app.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer b.app.Stop()

	var shot *store.Capture
	select {
	case shot = <-b.captured:
	case <-time.After(5 * time.Second):
		t.Fatal("gesture hold never produced a capture")
	}

	if shot.Gesture != "peace" {
		t.Errorf("capture gesture = %q, want peace", shot.Gesture)
	}
	if shot.SessionID != session.ID {
		t.Errorf("capture session = %q, want %q", shot.SessionID, session.ID)
	}

	// 3. The capture is visible over the API
	resp, err = client.Get(b.server.URL + "/api/sessions/" + session.ID + "/captures")
	if err != nil {
		t.Fatalf("list session captures error = %v", err)
	}
	var listed struct {
		Captures []struct {
			ID      string `json:"id"`
			Trigger string `json:"trigger"`
		} `json:"captures"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Captures) == 0 {
		t.Fatal("session has no captures via API")
	}
	if listed.Captures[0].Trigger != "gesture" {
		t.Errorf("capture trigger = %q, want gesture", listed.Captures[0].Trigger)
	}

	// 4. The photo file is served from the gallery endpoint
	resp, err = client.Get(b.server.URL + "/photos/" + filepath.Base(shot.Path))
	if err != nil {
		t.Fatalf("fetch photo error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("fetch photo status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 5. Ending the session twice fails the second time
	resp, _ = client.Post(b.server.URL+"/api/sessions/"+session.ID+"/end", "application/json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("end session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp, _ = client.Post(b.server.URL+"/api/sessions/"+session.ID+"/end", "application/json", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second end status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestE2E_TargetPressOverWebSocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	b := newBooth(t)
	conn := b.dialInteract(t)

	send := func(msg map[string]interface{}) {
		data, _ := json.Marshal(msg)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			t.Fatalf("write message: %v", err)
		}
	}

	// The UI declares its surface and one button centered where the
	// mirrored peace hand's index fingertip lands.
	send(map[string]interface{}{"type": "surface", "width": 400, "height": 400})
	send(map[string]interface{}{
		"type": "register", "id": "print-btn",
		"x": 180, "y": 180, "width": 40, "height": 40,
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := b.app.Engine().Registry().State("print-btn"); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := b.app.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer b.app.Stop()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for press event: %v", err)
		}
		var e server.Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if e.Type == "press" {
			if e.Target != "print-btn" {
				t.Errorf("press target = %q, want print-btn", e.Target)
			}
			return
		}
	}
}

func TestE2E_ManualCapture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	b := newBooth(t)
	client := b.server.Client()

	// The camera must be open; the pipeline is not needed.
	if err := b.app.Camera().Open(); err != nil {
		t.Fatalf("open camera: %v", err)
	}
	defer b.app.Camera().Close()

	resp, err := client.Post(b.server.URL+"/api/capture", "application/json", nil)
	if err != nil {
		t.Fatalf("manual capture error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("manual capture status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)

	c, err := b.store.Captures().GetByID(created.ID)
	if err != nil {
		t.Fatalf("capture not recorded: %v", err)
	}
	if c.Trigger != store.TriggerManual {
		t.Errorf("trigger = %q, want manual", c.Trigger)
	}
}
