package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRepository_CRUD(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.New().String(), Name: "friday-demo"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "friday-demo" {
		t.Errorf("Name = %q, want %q", got.Name, "friday-demo")
	}
	if got.EndedAt != nil {
		t.Error("new session already ended")
	}

	if err := s.Sessions().End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	got, err = s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() after end error = %v", err)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt not set after End()")
	}

	// Ending twice reports not found.
	if err := s.Sessions().End(sess.ID); err != ErrNotFound {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}

	sessions, err := s.Sessions().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("List() count = %d, want 1", len(sessions))
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Sessions().GetByID(sess.ID); err != ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCaptureRepository_CRUD(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.New().String()}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create session error = %v", err)
	}

	c := &Capture{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Gesture:   "peace",
		Trigger:   TriggerGesture,
		Path:      "/tmp/photos/a.jpg",
		Width:     800,
		Height:    800,
	}
	if err := s.Captures().Create(c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Captures().GetByID(c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Gesture != "peace" || got.Trigger != TriggerGesture {
		t.Errorf("capture = %+v, want peace/gesture", got)
	}
	if got.SessionID != sess.ID {
		t.Errorf("SessionID = %q, want %q", got.SessionID, sess.ID)
	}

	n, err := s.Captures().Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	bySession, err := s.Captures().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(bySession) != 1 {
		t.Errorf("ListBySession() count = %d, want 1", len(bySession))
	}
}

func TestCaptureRepository_SessionlessCapture(t *testing.T) {
	s := newTestStore(t)

	c := &Capture{
		ID:      uuid.New().String(),
		Trigger: TriggerManual,
		Path:    "/tmp/photos/b.jpg",
	}
	if err := s.Captures().Create(c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Captures().GetByID(c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", got.SessionID)
	}
}

func TestCaptureRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.New().String()}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatal(err)
	}
	c := &Capture{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Trigger:   TriggerGesture,
		Path:      "/tmp/photos/c.jpg",
	}
	if err := s.Captures().Create(c); err != nil {
		t.Fatal(err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete session error = %v", err)
	}

	if _, err := s.Captures().GetByID(c.ID); err != ErrNotFound {
		t.Errorf("capture survived session delete, error = %v", err)
	}
}

func TestCaptureRepository_Delete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Captures().Delete("missing"); err != ErrNotFound {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Settings().Get("watched_symbol"); err != ErrNotFound {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Settings().Set("watched_symbol", "peace"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Settings().Set("watched_symbol", "open"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	value, err := s.Settings().Get("watched_symbol")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "open" {
		t.Errorf("value = %q, want %q", value, "open")
	}
}
