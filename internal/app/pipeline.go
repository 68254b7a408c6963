package app

import (
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/store"
	"github.com/eccker/photoboth/internal/viewport"
)

// runPipeline is the main detection loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected, switch to active mode (activeFPS=15)
// 3. Run hand and face detection
// 4. Drive the interaction engine (gestures, pointers, hold timer)
// 5. On a completed gesture hold, save the triggering frame as a capture
// 6. After 2s no motion, switch back to idle mode
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if detection is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.Camera().SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			if !activeMode || a.Detector() == nil {
				frame.Close()
				continue
			}

			// Step 2: Hand and face detection
			result, err := a.Detector().Detect(frame)
			if err != nil {
				frame.Close()
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			// Step 3: Interaction tick. Gestures are classified,
			// pointers derived and targets updated synchronously.
			engineFrame := &interact.Frame{
				Hands:     result.Hands,
				Faces:     result.Faces,
				Timestamp: time.Now(),
			}
			a.engine.ProcessFrame(engineFrame)

			a.mu.RLock()
			onFrame := a.onFrame
			a.mu.RUnlock()
			if onFrame != nil {
				onFrame(engineFrame)
			}

			// Step 4: Gesture-triggered capture, while the frame that
			// completed the hold is still available.
			a.mu.Lock()
			armed := a.armed
			a.armed = false
			a.mu.Unlock()

			if armed {
				if c, err := a.saveCapture(frame, a.watchedGesture(), store.TriggerGesture); err != nil {
					log.Printf("Gesture capture failed: %v", err)
				} else {
					log.Printf("Captured %s (gesture: %s)", c.ID, c.Gesture)
				}
			}

			frame.Close()
		}
	}
}

// saveCapture writes the frame to disk, records it, runs post-capture
// plugins and notifies the host.
func (a *App) saveCapture(frame *gocv.Mat, gesture string, trigger store.Trigger) (*store.Capture, error) {
	mapping := a.engine.Mapping()
	if mapping.CropWidth <= 0 || mapping.CropHeight <= 0 {
		// No surface connected yet; keep the full frame.
		mapping = viewport.Mapping{CropWidth: 1, CropHeight: 1}
	}

	snap, err := a.snapshotter.Save(frame, mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	c := &store.Capture{
		ID:        snap.ID,
		SessionID: a.SessionID(),
		Gesture:   gesture,
		Trigger:   trigger,
		Path:      snap.Path,
		Width:     snap.Width,
		Height:    snap.Height,
	}
	if a.config.Store != nil {
		if err := a.config.Store.Captures().Create(c); err != nil {
			return nil, fmt.Errorf("failed to record capture: %w", err)
		}
		if stored, err := a.config.Store.Captures().GetByID(c.ID); err == nil {
			c = stored
		}
	}

	go a.runPlugins(c)

	a.mu.RLock()
	fn := a.onCapture
	a.mu.RUnlock()
	if fn != nil {
		fn(c)
	}

	return c, nil
}
