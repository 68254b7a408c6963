// Package detector provides hand and face detection interfaces and types
// for the photoboth interaction pipeline.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// NumFaceLandmarks is the minimum landmark count required for head
// pose estimation (MediaPipe face mesh).
const NumFaceLandmarks = 468

// Point3D represents a normalized detector-space point. X and Y are in
// [0,1] with the origin at the top-left of the unmirrored source frame;
// Z is a relative depth, not physically calibrated.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox is an axis-aligned box in normalized detector space.
type BoundingBox struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
}

// BoxFromPoints computes the bounding box of a landmark set.
func BoxFromPoints(points []Point3D) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return BoundingBox{
		X:       minX,
		Y:       minY,
		Width:   maxX - minX,
		Height:  maxY - minY,
		CenterX: (minX + maxX) / 2,
		CenterY: (minY + maxY) / 2,
	}
}

// HandObservation is one detected hand for a single frame. Points holds
// the 21 MediaPipe landmarks; a malformed observation may carry fewer,
// in which case downstream consumers treat the hand as absent rather
// than failing. Observations are created fresh each frame and are only
// annotated with the classified gesture, never otherwise mutated.
type HandObservation struct {
	Points     []Point3D   `json:"points"`
	Handedness string      `json:"handedness"` // "Left" or "Right"
	Score      float64     `json:"score"`
	Box        BoundingBox `json:"box"`

	// Gesture is the classified symbol, set by the frame engine.
	Gesture string `json:"gesture,omitempty"`
}

// Valid reports whether the observation carries exactly the expected
// landmark count.
func (h *HandObservation) Valid() bool {
	return h != nil && len(h.Points) == NumLandmarks
}

// FaceObservation is one detected face for a single frame.
type FaceObservation struct {
	Points []Point3D   `json:"points"`
	Box    BoundingBox `json:"box"`
	Pose   FacePose    `json:"pose"`
}

// FacePose is a derived head orientation in degrees.
type FacePose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
