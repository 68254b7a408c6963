// Package app wires the photobooth together: the camera pipeline, the
// interaction engine, snapshotting, persistence and post-capture
// plugins.
package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eccker/photoboth/internal/capture"
	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/plugin"
	"github.com/eccker/photoboth/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nobody is in front of the booth.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active interaction.
	ActiveFPS = 15
	// IdleTimeoutMs is how long without motion before dropping back to idle.
	IdleTimeoutMs = 2000
	// PluginTimeout bounds each post-capture plugin invocation.
	PluginTimeout = 5 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	PluginDir    string
	PhotoDir     string
	CameraID     int
	MotionThresh float64

	// HoldTimer configures the hold-a-gesture-to-capture trigger.
	// Zero fields select the defaults (peace, 3s hold, 2s cooldown).
	HoldTimer interact.HoldTimerConfig
}

// App is the booth orchestrator. It owns the detection pipeline and
// turns completed gesture holds into saved, recorded and fanned-out
// captures.
type App struct {
	config      Config
	camera      capture.Camera
	motion      *capture.MotionDetector
	detector    detector.Detector
	engine      *interact.Engine
	snapshotter *capture.Snapshotter
	pluginMgr   *plugin.Manager
	pluginExec  *plugin.Executor

	mu        sync.RWMutex
	enabled   bool
	sessionID string
	stopCh    chan struct{}

	// Wired by the host before Start.
	onInteraction func(kind, targetID string, hand *detector.HandObservation)
	onCountdown   func(seconds int)
	onCancel      func()
	onCapture     func(c *store.Capture)
	onFrame       func(frame *interact.Frame)

	// Set by the hold timer callback, consumed by the pipeline while
	// the triggering frame is still in hand.
	armed bool
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	snapshotter, err := capture.NewSnapshotter(config.PhotoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare photo directory: %w", err)
	}

	a := &App{
		config:      config,
		camera:      capture.NewCamera(config.CameraID),
		motion:      capture.NewMotionDetector(motionThreshold),
		snapshotter: snapshotter,
		pluginMgr:   plugin.NewManager(config.PluginDir),
		pluginExec:  plugin.NewExecutor(PluginTimeout),
		enabled:     true,
	}

	registry := interact.NewRegistry(interact.Events{
		HoverEnter: func(id string, hand *detector.HandObservation) {
			a.notifyInteraction("hover_enter", id, hand)
		},
		HoverLeave: func(id string, hand *detector.HandObservation) {
			a.notifyInteraction("hover_leave", id, hand)
		},
		Press: func(id string, hand *detector.HandObservation) {
			a.notifyInteraction("press", id, hand)
		},
		Release: func(id string, hand *detector.HandObservation) {
			a.notifyInteraction("release", id, hand)
		},
	})

	timer := interact.NewHoldTimer(config.HoldTimer)
	timer.OnCountdown(func(seconds int) {
		a.mu.RLock()
		fn := a.onCountdown
		a.mu.RUnlock()
		if fn != nil {
			fn(seconds)
		}
	})
	timer.OnCancel(func() {
		a.mu.RLock()
		fn := a.onCancel
		a.mu.RUnlock()
		if fn != nil {
			fn()
		}
	})
	timer.OnArmed(func() {
		// The capture itself happens in the pipeline, which still
		// holds the frame that completed the hold.
		a.mu.Lock()
		a.armed = true
		a.mu.Unlock()
	})

	a.engine = interact.NewEngine(registry, timer)

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// notifyInteraction forwards one registry event to the host callback.
func (a *App) notifyInteraction(kind, targetID string, hand *detector.HandObservation) {
	a.mu.RLock()
	fn := a.onInteraction
	a.mu.RUnlock()
	if fn != nil {
		fn(kind, targetID, hand)
	}
}

// OnInteraction sets the callback for target hover/press/release events.
func (a *App) OnInteraction(fn func(kind, targetID string, hand *detector.HandObservation)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onInteraction = fn
}

// OnCountdown sets the callback for capture countdown updates.
func (a *App) OnCountdown(fn func(seconds int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCountdown = fn
}

// OnCountdownCancel sets the callback fired when a countdown is abandoned.
func (a *App) OnCountdownCancel(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCancel = fn
}

// OnCapture sets the callback fired after each saved capture.
func (a *App) OnCapture(fn func(c *store.Capture)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCapture = fn
}

// OnFrame sets the callback fired with each processed detection frame.
func (a *App) OnFrame(fn func(frame *interact.Frame)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFrame = fn
}

// SetEnabled enables or disables the detection pipeline.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetSessionID assigns the session new captures are recorded under.
// An empty id records captures outside any session.
func (a *App) SetSessionID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = id
}

// SessionID returns the active session id.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	width, height := a.camera.FrameSize()
	a.engine.SetSourceSize(width, height)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// CaptureNow takes a photo immediately, bypassing the gesture trigger.
func (a *App) CaptureNow() (*store.Capture, error) {
	a.mu.RLock()
	camera := a.camera
	a.mu.RUnlock()

	frame, err := camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	defer frame.Close()

	return a.saveCapture(frame, "", store.TriggerManual)
}

// Engine returns the interaction engine.
func (a *App) Engine() *interact.Engine {
	return a.engine
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Snapshotter returns the snapshotter instance.
func (a *App) Snapshotter() *capture.Snapshotter {
	return a.snapshotter
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// watchedGesture returns the configured capture gesture name.
func (a *App) watchedGesture() string {
	symbol := a.config.HoldTimer.Symbol
	if symbol == "" {
		symbol = interact.DefaultHoldTimerConfig().Symbol
	}
	return string(symbol)
}

// runPlugins invokes every plugin subscribed to the capture event.
// Plugin failures are logged, never propagated: a broken printer must
// not take the booth down.
func (a *App) runPlugins(c *store.Capture) {
	plugins := a.pluginMgr.ListForEvent("capture")
	if len(plugins) == 0 {
		return
	}

	req := &plugin.Request{
		Event:     "capture",
		CaptureID: c.ID,
		SessionID: c.SessionID,
		Gesture:   c.Gesture,
		Path:      c.Path,
		Width:     c.Width,
		Height:    c.Height,
	}

	for _, p := range plugins {
		resp, err := a.pluginExec.Execute(p, req)
		if err != nil {
			log.Printf("Plugin %s failed: %v", p.Manifest.Name, err)
			continue
		}
		if !resp.Success {
			log.Printf("Plugin %s reported error: %s", p.Manifest.Name, resp.Error)
		}
	}
}
