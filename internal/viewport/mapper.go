// Package viewport reconciles normalized detector-space coordinates
// with a cropped, mirrored display surface.
//
// The display surface shows the camera feed fill-and-crop style: the
// source covers the whole surface, centered, with excess content
// cropped on one axis. Every mapped coordinate is also mirrored
// horizontally, because the feed comes from a front-facing camera and
// on-screen feedback has to match what the user sees in a mirror.
package viewport

import (
	"image"

	"github.com/eccker/photoboth/internal/detector"
)

// aspectTolerance is the aspect-ratio difference under which the source
// maps 1:1 with no cropping.
const aspectTolerance = 0.01

// Mapping describes which normalized sub-rectangle of the source frame
// is visible on one destination surface and how it scales to
// destination pixels. It is a pure derived value, recomputed whenever
// source or destination dimensions change and stable across frames
// otherwise.
type Mapping struct {
	CropX      float64 `json:"cropX"`
	CropY      float64 `json:"cropY"`
	CropWidth  float64 `json:"cropWidth"`
	CropHeight float64 `json:"cropHeight"`

	OutputWidth  int `json:"outputWidth"`
	OutputHeight int `json:"outputHeight"`

	// OffsetX/OffsetY are the crop origin in source pixels, kept for
	// drawing code that works on the raw frame.
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// ComputeMapping derives the fill-and-crop mapping for a source frame
// displayed on a destination surface, both in pixels.
//
// If the aspect ratios agree within tolerance the full source is
// visible. Otherwise the axis with excess content is cropped
// symmetrically: a relatively wider source loses left/right margins, a
// relatively taller source loses top/bottom margins.
func ComputeMapping(sourceWidth, sourceHeight, destWidth, destHeight int) Mapping {
	m := Mapping{
		CropWidth:    1,
		CropHeight:   1,
		OutputWidth:  destWidth,
		OutputHeight: destHeight,
	}
	if sourceWidth <= 0 || sourceHeight <= 0 || destWidth <= 0 || destHeight <= 0 {
		return m
	}

	sourceAspect := float64(sourceWidth) / float64(sourceHeight)
	destAspect := float64(destWidth) / float64(destHeight)

	diff := sourceAspect - destAspect
	if diff < 0 {
		diff = -diff
	}
	if diff <= aspectTolerance {
		return m
	}

	if sourceAspect > destAspect {
		// Source relatively wider: crop left/right margins.
		m.CropWidth = destAspect / sourceAspect
		m.CropX = (1 - m.CropWidth) / 2
	} else {
		// Source relatively taller: crop top/bottom margins.
		m.CropHeight = sourceAspect / destAspect
		m.CropY = (1 - m.CropHeight) / 2
	}

	m.OffsetX = m.CropX * float64(sourceWidth)
	m.OffsetY = m.CropY * float64(sourceHeight)
	return m
}

// MapPointNorm maps a detector-space point to destination-normalized
// coordinates in [0,1], with horizontal mirroring applied. Returns
// false when the point falls outside the visible crop window; callers
// must skip drawing or hit-testing such points.
func MapPointNorm(p detector.Point3D, m Mapping) (x, y float64, ok bool) {
	if m.CropWidth <= 0 || m.CropHeight <= 0 {
		return 0, 0, false
	}

	nx := (p.X - m.CropX) / m.CropWidth
	ny := (p.Y - m.CropY) / m.CropHeight
	if nx < 0 || nx > 1 || ny < 0 || ny > 1 {
		return 0, 0, false
	}

	return 1 - nx, ny, true
}

// MapPoint maps a detector-space point to destination pixel
// coordinates. Returns false when the point is not visible.
func MapPoint(p detector.Point3D, m Mapping) (image.Point, bool) {
	x, y, ok := MapPointNorm(p, m)
	if !ok {
		return image.Point{}, false
	}
	return image.Point{
		X: int(x * float64(m.OutputWidth)),
		Y: int(y * float64(m.OutputHeight)),
	}, true
}

// MapBox maps a detector-space bounding box to a destination pixel
// rectangle by mapping its two corners. A box entirely outside the
// crop window returns false; a partially visible box is clamped to the
// surface.
func MapBox(box detector.BoundingBox, m Mapping) (image.Rectangle, bool) {
	if m.CropWidth <= 0 || m.CropHeight <= 0 {
		return image.Rectangle{}, false
	}

	nx0 := (box.X - m.CropX) / m.CropWidth
	ny0 := (box.Y - m.CropY) / m.CropHeight
	nx1 := (box.X + box.Width - m.CropX) / m.CropWidth
	ny1 := (box.Y + box.Height - m.CropY) / m.CropHeight

	if nx1 < 0 || nx0 > 1 || ny1 < 0 || ny0 > 1 {
		return image.Rectangle{}, false
	}

	nx0 = clamp01(nx0)
	nx1 = clamp01(nx1)
	ny0 = clamp01(ny0)
	ny1 = clamp01(ny1)

	// Mirroring swaps the horizontal corner order.
	w := float64(m.OutputWidth)
	h := float64(m.OutputHeight)
	rect := image.Rect(
		int((1-nx1)*w), int(ny0*h),
		int((1-nx0)*w), int(ny1*h),
	)
	return rect, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
