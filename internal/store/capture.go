package store

import (
	"database/sql"
	"errors"
	"time"
)

// Trigger identifies how a capture was initiated.
type Trigger string

const (
	// TriggerGesture marks a capture fired by the gesture hold timer.
	TriggerGesture Trigger = "gesture"
	// TriggerManual marks a capture requested over the API.
	TriggerManual Trigger = "manual"
)

// Capture is one saved photo's metadata.
type Capture struct {
	ID        string
	SessionID string // empty when not taken within a session
	Gesture   string
	Trigger   Trigger
	Path      string
	Width     int
	Height    int
	CreatedAt time.Time
}

// CaptureRepository provides CRUD operations for captures.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create inserts a new capture record.
func (r *CaptureRepository) Create(c *Capture) error {
	c.CreatedAt = time.Now()

	var sessionID interface{}
	if c.SessionID != "" {
		sessionID = c.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO captures (id, session_id, gesture, trigger, path, width, height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, sessionID, c.Gesture, string(c.Trigger), c.Path, c.Width, c.Height, c.CreatedAt,
	)
	return err
}

// GetByID retrieves a capture by its ID.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c := &Capture{}
	var sessionID sql.NullString
	var trigger string

	err := r.db.QueryRow(
		`SELECT id, session_id, gesture, trigger, path, width, height, created_at
		 FROM captures WHERE id = ?`,
		id,
	).Scan(&c.ID, &sessionID, &c.Gesture, &trigger, &c.Path, &c.Width, &c.Height, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.SessionID = sessionID.String
	c.Trigger = Trigger(trigger)
	return c, nil
}

// List retrieves all captures, newest first.
func (r *CaptureRepository) List() ([]*Capture, error) {
	return r.list(`SELECT id, session_id, gesture, trigger, path, width, height, created_at
		 FROM captures ORDER BY created_at DESC`)
}

// ListBySession retrieves the captures of one session, newest first.
func (r *CaptureRepository) ListBySession(sessionID string) ([]*Capture, error) {
	return r.list(`SELECT id, session_id, gesture, trigger, path, width, height, created_at
		 FROM captures WHERE session_id = ? ORDER BY created_at DESC`, sessionID)
}

func (r *CaptureRepository) list(query string, args ...interface{}) ([]*Capture, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		var sessionID sql.NullString
		var trigger string

		err := rows.Scan(&c.ID, &sessionID, &c.Gesture, &trigger, &c.Path, &c.Width, &c.Height, &c.CreatedAt)
		if err != nil {
			return nil, err
		}

		c.SessionID = sessionID.String
		c.Trigger = Trigger(trigger)
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return captures, nil
}

// Count returns the total number of captures.
func (r *CaptureRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM captures`).Scan(&n)
	return n, err
}

// Delete removes a capture record by its ID.
func (r *CaptureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
