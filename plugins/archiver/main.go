// Package main provides an archiver plugin that copies each captured
// photo into a dated archive directory, e.g. ~/Pictures/Photoboth/2026-08-24/.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	CaptureID string          `json:"captureId"`
	SessionID string          `json:"sessionId"`
	Gesture   string          `json:"gesture"`
	Path      string          `json:"path"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// pluginConfig holds the optional plugin configuration.
type pluginConfig struct {
	ArchiveDir string `json:"archiveDir"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "capture" {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	dest, err := archive(&req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	data, _ := json.Marshal(map[string]string{"archived": dest})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

// archive copies the captured photo into the dated archive directory
// and returns the destination path.
func archive(req *Request) (string, error) {
	var cfg pluginConfig
	if len(req.Config) > 0 {
		json.Unmarshal(req.Config, &cfg)
	}

	dir := cfg.ArchiveDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("no home directory: %v", err)
		}
		dir = filepath.Join(home, "Pictures", "Photoboth")
	}

	dated := filepath.Join(dir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dated, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %v", err)
	}

	dest := filepath.Join(dated, filepath.Base(req.Path))
	if err := copyFile(req.Path, dest); err != nil {
		return "", fmt.Errorf("failed to archive %s: %v", req.Path, err)
	}
	return dest, nil
}

// copyFile copies src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
