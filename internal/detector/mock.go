package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandObservation
	faces []FaceObservation
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandObservation) {
	m.hands = hands
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceObservation) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured observations or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &Result{
		Hands:     m.hands,
		Faces:     m.faces,
		Timestamp: time.Now(),
	}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger column X positions for synthetic hands, right hand seen from
// the camera.
var fingerX = struct {
	thumb, index, middle, ring, pinky float64
}{0.62, 0.56, 0.50, 0.44, 0.38}

// makeHand builds a synthetic right-hand observation with each finger
// either extended (tip above the PIP joint, smaller Y) or curled (tip
// below it). Geometry is coarse but satisfies the up/down finger tests
// the classifier applies.
func makeHand(thumb, index, middle, ring, pinky bool) HandObservation {
	points := make([]Point3D, NumLandmarks)
	points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	// Thumb chain: CMC, MCP, IP, Tip.
	points[ThumbCMC] = Point3D{X: fingerX.thumb, Y: 0.75}
	points[ThumbMCP] = Point3D{X: fingerX.thumb, Y: 0.68}
	if thumb {
		points[ThumbIP] = Point3D{X: fingerX.thumb, Y: 0.55}
		points[ThumbTip] = Point3D{X: fingerX.thumb, Y: 0.45}
	} else {
		points[ThumbIP] = Point3D{X: fingerX.thumb, Y: 0.60}
		points[ThumbTip] = Point3D{X: fingerX.thumb, Y: 0.66}
	}

	finger := func(mcp int, x float64, extended bool) {
		points[mcp] = Point3D{X: x, Y: 0.68}
		if extended {
			points[mcp+1] = Point3D{X: x, Y: 0.55} // PIP
			points[mcp+2] = Point3D{X: x, Y: 0.45} // DIP
			points[mcp+3] = Point3D{X: x, Y: 0.35} // Tip
		} else {
			points[mcp+1] = Point3D{X: x, Y: 0.62}
			points[mcp+2] = Point3D{X: x, Y: 0.66}
			points[mcp+3] = Point3D{X: x, Y: 0.70}
		}
	}

	finger(IndexMCP, fingerX.index, index)
	finger(MiddleMCP, fingerX.middle, middle)
	finger(RingMCP, fingerX.ring, ring)
	finger(PinkyMCP, fingerX.pinky, pinky)

	return HandObservation{
		Points:     points,
		Handedness: "Right",
		Score:      0.95,
		Box:        BoxFromPoints(points),
	}
}

// PointHand returns a hand with only the index finger extended.
func PointHand() HandObservation {
	return makeHand(false, true, false, false, false)
}

// PeaceHand returns a hand with index and middle fingers extended.
func PeaceHand() HandObservation {
	return makeHand(false, true, true, false, false)
}

// OpenHand returns a hand with all five fingers extended.
func OpenHand() HandObservation {
	return makeHand(true, true, true, true, true)
}

// FistHand returns a hand with all five fingers curled.
func FistHand() HandObservation {
	return makeHand(false, false, false, false, false)
}

// ThumbsUpHand returns a hand with thumb and index extended. Note that
// the classifier's rule order reads this as a point, since the point
// rule does not constrain the thumb; the fixture exists to pin that
// behavior down.
func ThumbsUpHand() HandObservation {
	return makeHand(true, true, false, false, false)
}

// ThreeFingerHand returns a hand matching none of the named patterns.
func ThreeFingerHand() HandObservation {
	return makeHand(false, true, true, true, false)
}

// TruncatedHand returns a malformed observation with too few landmarks.
func TruncatedHand() HandObservation {
	h := PointHand()
	h.Points = h.Points[:NumLandmarks-1]
	return h
}

// MoveTo translates a hand so its index fingertip sits at the given
// normalized detector-space position. Useful for hover tests.
func MoveTo(h HandObservation, x, y float64) HandObservation {
	dx := x - h.Points[IndexTip].X
	dy := y - h.Points[IndexTip].Y

	moved := h
	moved.Points = make([]Point3D, len(h.Points))
	for i, p := range h.Points {
		moved.Points[i] = Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
	}
	moved.Box = BoxFromPoints(moved.Points)
	return moved
}
