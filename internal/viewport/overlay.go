package viewport

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/eccker/photoboth/internal/detector"
)

// Overlay drawing settings.
const (
	landmarkRadius = 4
	boxThickness   = 2
	labelScale     = 0.6
)

var (
	landmarkColor = color.RGBA{0, 255, 0, 0}
	boxColor      = color.RGBA{0, 200, 255, 0}
	labelColor    = color.RGBA{255, 255, 255, 0}
	faceColor     = color.RGBA{255, 160, 0, 0}
)

// DrawHands renders hand landmarks, bounding boxes and gesture labels
// onto a destination-sized image, mirrored and cropped per the mapping.
// Landmarks outside the visible crop window are skipped.
func DrawHands(img *gocv.Mat, hands []detector.HandObservation, m Mapping) {
	for i := range hands {
		hand := &hands[i]

		for _, p := range hand.Points {
			pt, ok := MapPoint(p, m)
			if !ok {
				continue
			}
			gocv.Circle(img, pt, landmarkRadius, landmarkColor, -1)
		}

		rect, ok := MapBox(hand.Box, m)
		if !ok {
			continue
		}
		gocv.Rectangle(img, rect, boxColor, boxThickness)

		if hand.Gesture != "" {
			text := fmt.Sprintf("%s %s", hand.Handedness, hand.Gesture)
			pos := image.Pt(rect.Min.X, rect.Min.Y-6)
			gocv.PutText(img, text, pos, gocv.FontHersheySimplex, labelScale, labelColor, 1)
		}
	}
}

// DrawFaces renders face bounding boxes and the derived pose readout.
func DrawFaces(img *gocv.Mat, faces []detector.FaceObservation, m Mapping) {
	for i := range faces {
		face := &faces[i]

		rect, ok := MapBox(face.Box, m)
		if !ok {
			continue
		}
		gocv.Rectangle(img, rect, faceColor, boxThickness)

		text := fmt.Sprintf("y%.0f p%.0f r%.0f", face.Pose.Yaw, face.Pose.Pitch, face.Pose.Roll)
		pos := image.Pt(rect.Min.X, rect.Max.Y+16)
		gocv.PutText(img, text, pos, gocv.FontHersheySimplex, labelScale, labelColor, 1)
	}
}
