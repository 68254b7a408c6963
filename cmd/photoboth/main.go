package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/eccker/photoboth/internal/app"
	"github.com/eccker/photoboth/internal/detector"
	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/server"
	"github.com/eccker/photoboth/internal/store"
	"github.com/eccker/photoboth/internal/tray"
)

const serverAddr = ":8080"

func main() {
	fmt.Println("Photoboth - Gesture-Driven Camera Booth")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".photoboth")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "photoboth.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application, err := app.New(app.Config{
		Store:     st,
		PluginDir: filepath.Join(dataDir, "plugins"),
		PhotoDir:  filepath.Join(dataDir, "photos"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		PhotoDir:  application.Snapshotter().Dir(),
		Store:     st,
		Camera:    application.Camera(),
		Engine:    application.Engine(),
		Capture:   application.CaptureNow,
	})

	trayApp := tray.New()
	wireEvents(application, srv, st, trayApp)

	if err := application.Start(); err != nil {
		log.Printf("Detection pipeline unavailable: %v", err)
	}
	defer application.Stop()

	go func() {
		fmt.Printf("Starting server on %s\n", serverAddr)
		if err := srv.ListenAndServe(serverAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Blocks until quit is selected from the tray menu.
	trayApp.Run()
}

// wireEvents fans application events out to the WebSocket clients and
// the tray menu.
func wireEvents(application *app.App, srv *server.Server, st *store.Store, trayApp *tray.Tray) {
	hub := srv.Interactions()

	application.OnInteraction(func(kind, targetID string, hand *detector.HandObservation) {
		if hub != nil {
			hub.Broadcast(server.Event{Type: kind, Target: targetID, Hand: hand})
		}
	})
	application.OnCountdown(func(seconds int) {
		if hub != nil {
			hub.Broadcast(server.Event{Type: "countdown", Seconds: seconds})
		}
	})
	application.OnCountdownCancel(func() {
		if hub != nil {
			hub.Broadcast(server.Event{Type: "countdown_cancel"})
		}
	})
	application.OnFrame(func(frame *interact.Frame) {
		if hub != nil {
			hub.PublishFrame(frame)
		}
		if stream := srv.Stream(); stream != nil {
			stream.SetDetections(frame)
		}
		for _, hand := range frame.Hands {
			if hand.Gesture != "" && hand.Gesture != "unknown" {
				trayApp.SetLastGesture(hand.Gesture)
				break
			}
		}
	})
	application.OnCapture(func(c *store.Capture) {
		if hub != nil {
			hub.Broadcast(server.Event{Type: "capture", Target: c.ID})
		}
		if count, err := st.Captures().Count(); err == nil {
			trayApp.SetCaptureCount(count)
		}
	})

	trayApp.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
	})
	trayApp.OnCapture(func() {
		if _, err := application.CaptureNow(); err != nil {
			log.Printf("Manual capture failed: %v", err)
		}
	})
	trayApp.OnGallery(func() {
		openBrowser("http://localhost" + serverAddr)
	})
	trayApp.OnQuit(func() {
		application.Stop()
	})
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.photoboth/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".photoboth", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
