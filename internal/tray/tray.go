// Package tray provides the system tray interface for the photobooth.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(enabled bool)
	onCapture func()
	onGallery func()
	onQuit    func()
	enabled   bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuCount   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnCapture sets the callback function to be called when the capture menu item is clicked.
func (t *Tray) OnCapture(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCapture = fn
}

// OnGallery sets the callback function to be called when the gallery menu item is clicked.
func (t *Tray) OnGallery(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGallery = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Photoboth")
	systray.SetTooltip("Photoboth Camera Booth")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle gesture detection")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem("Gesture: none", "Last detected gesture")
	t.menuGesture.Disable()
	t.menuCount = systray.AddMenuItem("Photos: 0", "Photos taken")
	t.menuCount.Disable()
	systray.AddSeparator()

	menuCapture := systray.AddMenuItem("Capture Now", "Take a photo immediately")
	menuGallery := systray.AddMenuItem("Open Gallery...", "Open the gallery in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Photoboth")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuCapture.ClickedCh:
				t.handleCapture()
			case <-menuGallery.ClickedCh:
				t.handleGallery()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleCapture handles the capture menu item click.
func (t *Tray) handleCapture() {
	t.mu.RLock()
	callback := t.onCapture
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleGallery handles the gallery menu item click.
func (t *Tray) handleGallery() {
	t.mu.RLock()
	callback := t.onGallery
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuGesture != nil {
		if name == "" {
			t.menuGesture.SetTitle("Gesture: none")
		} else {
			t.menuGesture.SetTitle("Gesture: " + name)
		}
	}
}

// SetCaptureCount updates the photo counter in the menu.
func (t *Tray) SetCaptureCount(count int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuCount != nil {
		t.menuCount.SetTitle(fmt.Sprintf("Photos: %d", count))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
