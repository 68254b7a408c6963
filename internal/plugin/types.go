// Package plugin runs external post-capture hooks: standalone
// executables that receive each saved photo's metadata as JSON on
// stdin. Printing, gallery sync and similar integrations live outside
// the booth process behind this boundary.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"` // e.g. "capture"
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is the payload sent to a plugin for one capture event.
type Request struct {
	Event     string          `json:"event"`
	CaptureID string          `json:"captureId"`
	SessionID string          `json:"sessionId,omitempty"`
	Gesture   string          `json:"gesture,omitempty"`
	Path      string          `json:"path"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// HandlesEvent reports whether the plugin subscribed to an event.
func (p *Plugin) HandlesEvent(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
