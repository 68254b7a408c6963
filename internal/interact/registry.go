package interact

import (
	"math"
	"sync"
	"time"

	"github.com/eccker/photoboth/internal/detector"
)

// Pointer is one hand's designated pointer position (the index
// fingertip) in destination-normalized coordinates, after viewport
// reconciliation.
type Pointer struct {
	X    float64
	Y    float64
	Hand *detector.HandObservation
}

// Events holds the interaction callbacks fired by the registry. The
// hand payload is the closest qualifying hand, or nil where no hand is
// present (forced leaves, automatic releases). Callbacks run outside
// the registry lock.
type Events struct {
	HoverEnter func(targetID string, hand *detector.HandObservation)
	HoverLeave func(targetID string, hand *detector.HandObservation)
	Press      func(targetID string, hand *detector.HandObservation)
	Release    func(targetID string, hand *detector.HandObservation)
}

// scheduleFunc schedules fn after d and returns a cancel function.
// Replaced in tests to control the delayed auto-release.
type scheduleFunc func(d time.Duration, fn func()) func() bool

// Registry owns all registered virtual targets and advances their
// hover/hold/press state machines once per frame. External callers may
// only register and unregister targets and receive events; runtime
// state is never mutated from outside.
type Registry struct {
	mu      sync.Mutex
	targets map[string]*target
	events  Events

	surfaceWidth  int
	surfaceHeight int

	releaseDelay time.Duration
	schedule     scheduleFunc
}

// NewRegistry creates an empty target registry firing the given events.
func NewRegistry(events Events) *Registry {
	return &Registry{
		targets:      make(map[string]*target),
		events:       events,
		releaseDelay: PressReleaseDelay,
		schedule: func(d time.Duration, fn func()) func() bool {
			t := time.AfterFunc(d, fn)
			return t.Stop
		},
	}
}

// SetSurfaceSize sets the destination surface dimensions in pixels,
// used to normalize target bounds for distance math.
func (r *Registry) SetSurfaceSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaceWidth = width
	r.surfaceHeight = height
}

// Register adds a virtual target. The id must be unique and non-empty,
// and bounds must be non-nil; a malformed registration is rejected
// synchronously. A non-positive activation radius selects the default.
func (r *Registry) Register(id string, bounds BoundsFunc, config TargetConfig) error {
	if id == "" || bounds == nil {
		return ErrInvalidTarget
	}
	if config.ActivationRadius <= 0 {
		config.ActivationRadius = DefaultActivationRadius
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.targets[id]; ok {
		return ErrTargetExists
	}
	r.targets[id] = &target{
		id:     id,
		bounds: bounds,
		config: config,
	}
	return nil
}

// Unregister removes a target, synchronously cancelling any pending
// delayed release. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.targets[id]
	if !ok {
		return
	}
	if t.cancelRelease != nil {
		t.cancelRelease()
	}
	t.generation++
	delete(r.targets, id)
}

// State returns a snapshot of one target's runtime state.
func (r *Registry) State(id string) (TargetState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.targets[id]
	if !ok {
		return TargetState{}, false
	}
	return TargetState{
		Hovered:      t.hovered,
		Pressed:      t.pressed,
		HoldProgress: t.holdProgress,
	}, true
}

// Update advances every target's state machine for one frame. pointers
// holds the destination-normalized pointer positions derived from this
// frame's hands; now is the frame timestamp. An empty pointer set
// forces every hovered target to leave in this same frame.
func (r *Registry) Update(pointers []Pointer, now time.Time) {
	r.mu.Lock()

	var fire []func()
	for _, t := range r.targets {
		fire = append(fire, r.updateTarget(t, pointers, now)...)
	}

	r.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

// updateTarget advances one target and returns the events to fire once
// the registry lock is released. A failure computing one target's
// bounds never affects the others.
func (r *Registry) updateTarget(t *target, pointers []Pointer, now time.Time) []func() {
	var fire []func()

	closest, qualified := r.closestPointer(t, pointers)
	wasHovered := t.hovered
	t.hovered = qualified

	var hand *detector.HandObservation
	if qualified {
		hand = closest.Hand
	}

	if qualified && !wasHovered {
		if fn := r.events.HoverEnter; fn != nil {
			id := t.id
			fire = append(fire, func() { fn(id, hand) })
		}
	}
	if !qualified && wasHovered {
		t.holdStartedAt = time.Time{}
		t.holdProgress = 0
		if fn := r.events.HoverLeave; fn != nil {
			id := t.id
			fire = append(fire, func() { fn(id, nil) })
		}
	}

	if !qualified || t.pressed {
		return fire
	}

	if !t.config.RequireHold {
		// Edge-triggered: one press per hover entry.
		if !wasHovered {
			fire = append(fire, r.activate(t, hand)...)
		}
		return fire
	}

	if t.holdStartedAt.IsZero() {
		t.holdStartedAt = now
	}
	if t.config.HoldDuration <= 0 {
		t.holdProgress = 1
	} else {
		progress := float64(now.Sub(t.holdStartedAt)) / float64(t.config.HoldDuration)
		t.holdProgress = math.Min(math.Max(progress, 0), 1)
	}
	if t.holdProgress >= 1 {
		fire = append(fire, r.activate(t, hand)...)
	}

	return fire
}

// closestPointer finds the nearest pointer within the target's
// activation radius, measured in destination-normalized space between
// the pointer and the bounds center.
func (r *Registry) closestPointer(t *target, pointers []Pointer) (Pointer, bool) {
	if r.surfaceWidth <= 0 || r.surfaceHeight <= 0 || len(pointers) == 0 {
		return Pointer{}, false
	}

	bounds := t.bounds()
	cx := float64(bounds.Min.X+bounds.Max.X) / 2 / float64(r.surfaceWidth)
	cy := float64(bounds.Min.Y+bounds.Max.Y) / 2 / float64(r.surfaceHeight)

	best := Pointer{}
	bestDist := math.Inf(1)
	found := false
	for _, p := range pointers {
		dx := p.X - cx
		dy := p.Y - cy
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist <= t.config.ActivationRadius && dist < bestDist {
			best = p
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// activate fires the press and schedules the delayed auto-release.
// Hold state resets so a hover that survives the release restarts
// timing from zero.
func (r *Registry) activate(t *target, hand *detector.HandObservation) []func() {
	t.pressed = true
	t.holdStartedAt = time.Time{}
	t.holdProgress = 0

	t.generation++
	gen := t.generation
	id := t.id
	t.cancelRelease = r.schedule(r.releaseDelay, func() {
		r.completeRelease(id, gen)
	})

	if fn := r.events.Press; fn != nil {
		return []func(){func() { fn(id, hand) }}
	}
	return nil
}

// completeRelease applies the delayed release, discarding it silently
// when the target has been unregistered or re-armed since scheduling.
func (r *Registry) completeRelease(id string, gen uint64) {
	r.mu.Lock()

	t, ok := r.targets[id]
	if !ok || t.generation != gen || !t.pressed {
		r.mu.Unlock()
		return
	}
	t.pressed = false
	t.cancelRelease = nil
	fn := r.events.Release

	r.mu.Unlock()

	if fn != nil {
		fn(id, nil)
	}
}
