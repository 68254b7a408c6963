package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionHandler_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	body := bytes.NewBufferString(`{"name": "Birthday"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var created sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Name != "Birthday" {
		t.Errorf("expected name 'Birthday', got %q", created.Name)
	}
	if created.ID == "" {
		t.Error("expected generated session ID")
	}
	if created.EndedAt != "" {
		t.Errorf("new session already ended: %q", created.EndedAt)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var listed listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(listed.Sessions))
	}
}

func TestSessionHandler_CreateWithDefaultName(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var created sessionResponse
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Name == "" {
		t.Error("expected a generated default name")
	}
}

func TestSessionHandler_End(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{"name": "x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var created sessionResponse
	json.NewDecoder(rec.Body).Decode(&created)

	t.Run("first end succeeds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+created.ID+"/end", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var ended sessionResponse
		json.NewDecoder(rec.Body).Decode(&ended)
		if ended.EndedAt == "" {
			t.Error("expected ended_at to be set")
		}
	})

	t.Run("second end is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+created.ID+"/end", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionHandler_Captures(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{"name": "x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var created sessionResponse
	json.NewDecoder(rec.Body).Decode(&created)

	createTestCapture(t, s, "cap-1", created.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.ID+"/captures", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listCapturesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(response.Captures))
	}
	if response.Captures[0].SessionID != created.ID {
		t.Errorf("capture session = %q, want %q", response.Captures[0].SessionID, created.ID)
	}
}

func TestSessionHandler_CapturesMissingSession(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/captures", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{"name": "x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var created sessionResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+created.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_InvalidJSON(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`not json`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
