package server

import (
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/eccker/photoboth/internal/capture"
	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/viewport"
)

// StreamHandler serves the MJPEG preview. Frames are cropped to the
// active viewport mapping and mirrored so the preview behaves like a
// mirror, matching what guests see on the booth screen. When the
// pipeline feeds it detections, landmark overlays are drawn on top.
type StreamHandler struct {
	camera capture.Camera
	engine *interact.Engine

	mu    sync.RWMutex
	hands []detector.HandObservation
	faces []detector.FaceObservation
	seen  time.Time
}

// overlayTTL is how long stale detections keep being drawn before the
// preview reverts to a clean feed.
const overlayTTL = 500 * time.Millisecond

// NewStreamHandler creates a new StreamHandler. The engine may be nil,
// in which case raw mirrored frames are streamed.
func NewStreamHandler(camera capture.Camera, engine *interact.Engine) *StreamHandler {
	return &StreamHandler{camera: camera, engine: engine}
}

// SetDetections records the latest processed frame for overlay drawing.
func (h *StreamHandler) SetDetections(frame *interact.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hands = frame.Hands
	h.faces = frame.Faces
	h.seen = time.Now()
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		view := h.previewFrame(frame)
		h.drawOverlays(&view)

		buf, err := gocv.IMEncode(".jpg", view)
		view.Close()
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(66 * time.Millisecond) // ~15 FPS
	}
}

// previewFrame crops the frame to the viewport mapping, mirrors it and
// scales it to the surface size. The returned Mat is always a fresh
// allocation the caller must close.
func (h *StreamHandler) previewFrame(frame *gocv.Mat) gocv.Mat {
	mirrored := gocv.NewMat()

	if h.engine == nil {
		gocv.Flip(*frame, &mirrored, 1)
		return mirrored
	}

	m := h.engine.Mapping()
	cropW := int(m.CropWidth * float64(frame.Cols()))
	cropH := int(m.CropHeight * float64(frame.Rows()))
	if cropW <= 0 || cropH <= 0 || cropW > frame.Cols() || cropH > frame.Rows() {
		gocv.Flip(*frame, &mirrored, 1)
		return mirrored
	}

	rect := image.Rect(int(m.OffsetX), int(m.OffsetY), int(m.OffsetX)+cropW, int(m.OffsetY)+cropH)
	region := frame.Region(rect)
	gocv.Flip(region, &mirrored, 1)
	region.Close()

	if m.OutputWidth > 0 && m.OutputHeight > 0 &&
		(m.OutputWidth != cropW || m.OutputHeight != cropH) {
		scaled := gocv.NewMat()
		gocv.Resize(mirrored, &scaled, image.Pt(m.OutputWidth, m.OutputHeight), 0, 0, gocv.InterpolationLinear)
		mirrored.Close()
		return scaled
	}
	return mirrored
}

// drawOverlays renders the latest detections onto the preview when they
// are fresh enough.
func (h *StreamHandler) drawOverlays(view *gocv.Mat) {
	if h.engine == nil {
		return
	}

	h.mu.RLock()
	hands := h.hands
	faces := h.faces
	fresh := time.Since(h.seen) < overlayTTL
	h.mu.RUnlock()

	if !fresh || (len(hands) == 0 && len(faces) == 0) {
		return
	}

	m := h.engine.Mapping()
	if m.OutputWidth != view.Cols() || m.OutputHeight != view.Rows() {
		return
	}
	viewport.DrawHands(view, hands, m)
	viewport.DrawFaces(view, faces, m)
}
