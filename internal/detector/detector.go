package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Result is the output of one detection pass over a single video frame.
// Hands and Faces may both be empty; Timestamp increases monotonically
// across frames.
type Result struct {
	Hands     []HandObservation `json:"hands"`
	Faces     []FaceObservation `json:"faces"`
	Timestamp time.Time         `json:"-"`
}

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand and face
	// observations. Returns empty slices if nothing is detected.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MaxFaces:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
