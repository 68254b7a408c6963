package interact

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/gesture"
	"github.com/eccker/photoboth/internal/viewport"
)

// Frame is one detection frame delivered by the hosting loop.
type Frame struct {
	Hands     []detector.HandObservation `json:"hands"`
	Faces     []detector.FaceObservation `json:"faces"`
	Timestamp time.Time                  `json:"-"`
}

// Engine is the frame driver: it classifies each hand, derives
// destination-normalized pointers through the viewport mapping, and
// runs the target registry and the gesture hold timer to completion
// within one synchronous tick. A frame arriving while the previous one
// is still processing is dropped, never queued, so consumers always
// operate on the most recent frame.
type Engine struct {
	registry *Registry
	timer    *HoldTimer

	mu      sync.Mutex
	mapping viewport.Mapping
	sourceW int
	sourceH int
	destW   int
	destH   int

	busy atomic.Bool
}

// NewEngine wires the frame driver to its two state machines.
func NewEngine(registry *Registry, timer *HoldTimer) *Engine {
	return &Engine{
		registry: registry,
		timer:    timer,
	}
}

// SetSourceSize records the detector frame dimensions and recomputes
// the viewport mapping.
func (e *Engine) SetSourceSize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sourceW = width
	e.sourceH = height
	e.recomputeMapping()
}

// SetSurfaceSize records the destination surface dimensions and
// recomputes the viewport mapping.
func (e *Engine) SetSurfaceSize(width, height int) {
	e.mu.Lock()
	e.destW = width
	e.destH = height
	e.recomputeMapping()
	e.mu.Unlock()

	e.registry.SetSurfaceSize(width, height)
}

// recomputeMapping rebuilds the mapping. Caller holds the lock.
func (e *Engine) recomputeMapping() {
	if e.sourceW <= 0 || e.sourceH <= 0 || e.destW <= 0 || e.destH <= 0 {
		return
	}
	e.mapping = viewport.ComputeMapping(e.sourceW, e.sourceH, e.destW, e.destH)
}

// Mapping returns the current viewport mapping.
func (e *Engine) Mapping() viewport.Mapping {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapping
}

// Registry returns the engine's target registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Timer returns the engine's gesture hold timer.
func (e *Engine) Timer() *HoldTimer {
	return e.timer
}

// ProcessFrame runs one synchronous tick: gesture classification,
// pointer derivation, registry update, hold timer update. Hands are
// annotated with their classified gesture in place. Returns false when
// the frame was dropped because the previous tick is still running.
func (e *Engine) ProcessFrame(frame *Frame) bool {
	if frame == nil {
		return false
	}
	if !e.busy.CompareAndSwap(false, true) {
		return false
	}
	defer e.busy.Store(false)

	symbols := gesture.ClassifyAll(frame.Hands)
	pointers := e.derivePointers(frame.Hands)

	e.registry.Update(pointers, frame.Timestamp)
	e.timer.Update(symbols, frame.Timestamp)
	return true
}

// derivePointers maps each valid hand's index fingertip through the
// viewport mapping. Hands whose fingertip falls in a cropped margin
// yield no pointer for this frame.
func (e *Engine) derivePointers(hands []detector.HandObservation) []Pointer {
	e.mu.Lock()
	mapping := e.mapping
	e.mu.Unlock()

	var pointers []Pointer
	for i := range hands {
		hand := &hands[i]
		if !hand.Valid() {
			continue
		}
		x, y, ok := viewport.MapPointNorm(hand.Points[detector.IndexTip], mapping)
		if !ok {
			continue
		}
		pointers = append(pointers, Pointer{X: x, Y: y, Hand: hand})
	}
	return pointers
}
