// Package interact turns per-frame hand observations into debounced
// interaction events: hover/hold/press against registered virtual
// targets, and a hold-a-gesture-to-capture timer.
package interact

import (
	"errors"
	"image"
	"time"
)

// Interaction timing and distance defaults.
const (
	// DefaultActivationRadius is the hover radius in destination-
	// normalized units.
	DefaultActivationRadius = 0.05

	// PressReleaseDelay is how long a target stays pressed before the
	// automatic release. It debounces a sustained hover into a single
	// press and runs independently of hand presence.
	PressReleaseDelay = 200 * time.Millisecond
)

// ErrTargetExists is returned when registering a duplicate target id.
var ErrTargetExists = errors.New("target already registered")

// ErrInvalidTarget is returned when a registration is malformed.
var ErrInvalidTarget = errors.New("invalid target registration")

// TargetConfig holds registration-time options for one virtual target.
type TargetConfig struct {
	// ActivationRadius is the hover distance in destination-normalized
	// units. Zero or negative selects the default.
	ActivationRadius float64

	// HoldDuration is how long a pointer must stay within the radius
	// before the press fires. Only used when RequireHold is set.
	HoldDuration time.Duration

	// RequireHold selects hold-to-activate instead of press-on-hover.
	RequireHold bool
}

// DefaultTargetConfig returns a press-on-hover config with the default
// activation radius.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{ActivationRadius: DefaultActivationRadius}
}

// BoundsFunc yields a target's current destination-surface rectangle in
// pixels. It is re-read every frame, so targets may move or resize
// between frames.
type BoundsFunc func() image.Rectangle

// TargetState is a read-only snapshot of one target's runtime state.
type TargetState struct {
	Hovered      bool    `json:"hovered"`
	Pressed      bool    `json:"pressed"`
	HoldProgress float64 `json:"holdProgress"`
}

// target is one registered virtual UI target. Runtime state is owned
// exclusively by the registry.
type target struct {
	id     string
	bounds BoundsFunc
	config TargetConfig

	hovered       bool
	pressed       bool
	holdStartedAt time.Time // zero while not holding
	holdProgress  float64

	// generation guards delayed release callbacks against firing after
	// the target has been unregistered or reset.
	generation    uint64
	cancelRelease func() bool
}
