package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
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

func doAuthed(t *testing.T, router http.Handler, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	token, err := auth.GenerateToken(testSecret, userID, enum.UserRoleOwner)
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

func detailFields(t *testing.T, resp map[string]interface{}) []string {
	t.Helper()
	details, _ := resp["details"].([]interface{})
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.(map[string]interface{})["field"].(string))
	}
	return fields
}

type recordingNotifier struct {
	mu    sync.Mutex
	types []string
}

func (n *recordingNotifier) Changed(_ context.Context, _ uuid.UUID, eventType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, eventType)
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.types...)
}
