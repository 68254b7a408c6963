package interact

import (
	"math"
	"sync"
	"time"

	"github.com/eccker/photoboth/internal/gesture"
)

// Hold timer defaults.
const (
	// DefaultHoldDuration is how long the watched symbol must be
	// sustained before the capture trigger fires.
	DefaultHoldDuration = 3000 * time.Millisecond

	// DefaultCooldown is how long the watched symbol is ignored after
	// a trigger, preventing an immediate re-fire from the same pose.
	DefaultCooldown = 2000 * time.Millisecond
)

// TimerState is the hold timer's current phase.
type TimerState string

const (
	TimerIdle     TimerState = "idle"
	TimerCounting TimerState = "counting"
	TimerCooldown TimerState = "cooldown"
)

// HoldTimerConfig configures the gesture hold timer.
type HoldTimerConfig struct {
	// Symbol is the watched gesture (default: peace).
	Symbol gesture.Symbol

	// Duration is the required sustained hold (default 3000 ms).
	Duration time.Duration

	// Cooldown is the post-trigger ignore window (default 2000 ms).
	Cooldown time.Duration
}

// DefaultHoldTimerConfig returns the standard watch-for-peace config.
func DefaultHoldTimerConfig() HoldTimerConfig {
	return HoldTimerConfig{
		Symbol:   gesture.Peace,
		Duration: DefaultHoldDuration,
		Cooldown: DefaultCooldown,
	}
}

// HoldTimer watches the union of gesture symbols across all hands for
// one watched symbol and fires a bound action after the symbol has
// been sustained for the configured duration. Countdown values are
// emitted for UI feedback while counting; after firing, the symbol is
// ignored for the cooldown window.
type HoldTimer struct {
	config HoldTimerConfig

	mu            sync.Mutex
	state         TimerState
	startedAt     time.Time
	cooldownAt    time.Time
	lastCountdown int

	onCountdown func(seconds int)
	onCancel    func()
	onArmed     func()
}

// NewHoldTimer creates an idle hold timer. Zero config fields select
// the defaults.
func NewHoldTimer(config HoldTimerConfig) *HoldTimer {
	if config.Symbol == "" {
		config.Symbol = gesture.Peace
	}
	if config.Duration <= 0 {
		config.Duration = DefaultHoldDuration
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}
	return &HoldTimer{
		config: config,
		state:  TimerIdle,
	}
}

// OnCountdown sets the countdown callback, invoked with the remaining
// whole seconds whenever the value changes while counting.
func (h *HoldTimer) OnCountdown(fn func(seconds int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCountdown = fn
}

// OnCancel sets the callback invoked when the watched symbol disappears
// mid-count, so the UI can clear its countdown display.
func (h *HoldTimer) OnCancel(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCancel = fn
}

// OnArmed sets the callback invoked exactly once when the hold
// completes. This is the signal to run the bound capture action.
func (h *HoldTimer) OnArmed(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onArmed = fn
}

// State returns the timer's current phase.
func (h *HoldTimer) State() TimerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reset forces the timer back to idle and forgets any pending cooldown.
func (h *HoldTimer) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = TimerIdle
	h.startedAt = time.Time{}
	h.cooldownAt = time.Time{}
	h.lastCountdown = 0
}

// Update advances the timer for one frame. symbols is the current
// frame's union of hand gestures; now is the frame timestamp. Missing
// or malformed hands simply yield no watched symbol, which is the
// not-present branch.
func (h *HoldTimer) Update(symbols []gesture.Symbol, now time.Time) {
	h.mu.Lock()

	var fire func()
	switch h.state {
	case TimerCooldown:
		// The watched symbol is ignored entirely until the cooldown
		// elapses; gestures are re-evaluated on the next tick.
		if now.Sub(h.cooldownAt) >= h.config.Cooldown {
			h.state = TimerIdle
		}

	case TimerIdle:
		if gesture.Contains(symbols, h.config.Symbol) {
			h.state = TimerCounting
			h.startedAt = now
			h.lastCountdown = 0
			fire = h.tick(now)
		}

	case TimerCounting:
		if !gesture.Contains(symbols, h.config.Symbol) {
			h.state = TimerIdle
			h.startedAt = time.Time{}
			h.lastCountdown = 0
			fire = h.onCancel
		} else {
			fire = h.tick(now)
		}
	}

	h.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// tick evaluates one counting frame, returning the callback to fire.
// Caller holds the lock.
func (h *HoldTimer) tick(now time.Time) func() {
	elapsed := now.Sub(h.startedAt)
	if elapsed >= h.config.Duration {
		h.state = TimerCooldown
		h.cooldownAt = now
		h.startedAt = time.Time{}
		h.lastCountdown = 0
		return h.onArmed
	}

	remaining := h.config.Duration - elapsed
	seconds := int(math.Ceil(remaining.Seconds()))
	if seconds != h.lastCountdown {
		h.lastCountdown = seconds
		if fn := h.onCountdown; fn != nil {
			return func() { fn(seconds) }
		}
	}
	return nil
}
