package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/eccker/photoboth/internal/viewport"
)

// ErrEmptyFrame is returned when saving an empty or nil frame.
var ErrEmptyFrame = errors.New("empty frame")

// Snapshot describes one saved photo on disk.
type Snapshot struct {
	ID        string
	Path      string
	Width     int
	Height    int
	CreatedAt time.Time
}

// Snapshotter writes captured frames to disk as JPEGs. The saved photo
// is cropped and mirrored per the viewport mapping so it matches what
// the user saw on screen at capture time.
type Snapshotter struct {
	dir string
}

// NewSnapshotter creates a Snapshotter writing into dir, creating the
// directory if needed.
func NewSnapshotter(dir string) (*Snapshotter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Snapshotter{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *Snapshotter) Dir() string {
	return s.dir
}

// Save crops the frame to the mapping's visible window, mirrors it
// horizontally, scales it to the mapping's output size when set, and
// writes the result as a JPEG.
func (s *Snapshotter) Save(frame *gocv.Mat, m viewport.Mapping) (*Snapshot, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	cols := frame.Cols()
	rows := frame.Rows()

	cropX := int(m.CropX * float64(cols))
	cropY := int(m.CropY * float64(rows))
	cropW := int(m.CropWidth * float64(cols))
	cropH := int(m.CropHeight * float64(rows))
	if cropW <= 0 || cropH <= 0 || cropX+cropW > cols || cropY+cropH > rows {
		return nil, fmt.Errorf("mapping crop %dx%d+%d+%d exceeds frame %dx%d",
			cropW, cropH, cropX, cropY, cols, rows)
	}

	region := frame.Region(image.Rect(cropX, cropY, cropX+cropW, cropY+cropH))
	defer region.Close()

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(region, &mirrored, 1)

	out := mirrored
	scaled := gocv.NewMat()
	defer scaled.Close()
	if m.OutputWidth > 0 && m.OutputHeight > 0 &&
		(m.OutputWidth != cropW || m.OutputHeight != cropH) {
		gocv.Resize(mirrored, &scaled, image.Pt(m.OutputWidth, m.OutputHeight), 0, 0, gocv.InterpolationLinear)
		out = scaled
	}

	id := uuid.New().String()
	path := filepath.Join(s.dir, id+".jpg")
	if ok := gocv.IMWrite(path, out); !ok {
		return nil, fmt.Errorf("write snapshot %s", path)
	}

	return &Snapshot{
		ID:        id,
		Path:      path,
		Width:     out.Cols(),
		Height:    out.Rows(),
		CreatedAt: time.Now(),
	}, nil
}
