package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/zaryan/api/internal/auth"
	"github.com/zaryan/api/internal/enum"
	"github.com/zaryan/api/internal/middleware"
)

const testSecret = "test-secret"

// --- Shared helpers ---

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// doAuthed sends an authenticated request as an owner. body may be nil.
func doAuthed(t *testing.T, router http.Handler, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doAuthedAs(t, router, method, path, userID, enum.UserRoleOwner, body)
}

func doAuthedAs(t *testing.T, router http.Handler, method, path string, userID uuid.UUID, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	token, err := auth.GenerateToken(testSecret, userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// authedRouter mounts routes at prefix behind the real auth middleware.
func authedRouter(prefix string, mount func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret))
		r.Route(prefix, mount)
	})
	return r
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(decimal.RequireFromString(s).StringFixed(2))
	return n
}

// --- Notifier ---

type notification struct {
	UserID    uuid.UUID
	EventType string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Changed(_ context.Context, userID uuid.UUID, eventType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{UserID: userID, EventType: eventType})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.EventType
	}
	return out
}

func urlQuery(s string) string {
	return url.QueryEscape(s)
}
