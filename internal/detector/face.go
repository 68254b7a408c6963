package detector

import "math"

// Face mesh landmark indices used for pose estimation (MediaPipe
// face mesh topology).
const (
	faceNoseTip  = 1
	faceChin     = 152
	faceLeftEye  = 33  // left eye outer corner
	faceRightEye = 263 // right eye outer corner
)

// neutralNoseRatio is the nose position between eye line and chin for a
// level head. Heuristic, tuned against the face mesh topology.
const neutralNoseRatio = 0.45

// EstimatePose derives a head orientation from face mesh landmarks.
// Requires at least NumFaceLandmarks points; returns a zero pose and
// false otherwise. The estimate is a geometric heuristic, not a PnP
// solve: roll from the eye line, yaw from the nose offset relative to
// the eye midpoint, pitch from the nose position between the eye line
// and chin.
func EstimatePose(points []Point3D) (FacePose, bool) {
	if len(points) < NumFaceLandmarks {
		return FacePose{}, false
	}

	nose := points[faceNoseTip]
	chin := points[faceChin]
	leftEye := points[faceLeftEye]
	rightEye := points[faceRightEye]

	eyeMid := Point3D{
		X: (leftEye.X + rightEye.X) / 2,
		Y: (leftEye.Y + rightEye.Y) / 2,
		Z: (leftEye.Z + rightEye.Z) / 2,
	}

	eyeDist := distance3D(leftEye, rightEye)
	if eyeDist < 1e-9 {
		return FacePose{}, false
	}

	roll := math.Atan2(rightEye.Y-leftEye.Y, rightEye.X-leftEye.X) * 180 / math.Pi

	// Horizontal nose offset from the eye midpoint, scaled by the
	// inter-eye distance. A centered nose is yaw 0.
	yaw := math.Atan2(nose.X-eyeMid.X, eyeDist) * 180 / math.Pi * 2

	// Vertical nose position between the eye line and chin.
	faceHeight := chin.Y - eyeMid.Y
	pitch := 0.0
	if math.Abs(faceHeight) > 1e-9 {
		noseRatio := (nose.Y - eyeMid.Y) / faceHeight
		pitch = (neutralNoseRatio - noseRatio) * 90
	}

	return FacePose{Yaw: yaw, Pitch: pitch, Roll: roll}, true
}
