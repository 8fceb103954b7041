package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chartform/chartform/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error // if set, RecordAccess returns this error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// newTestContext creates an echo context with optional auth context values set.
func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func withAuth(userID, orgID string, roles []string) func(*http.Request) {
	return func(req *http.Request) {
		ctx := req.Context()
		ctx = context.WithValue(ctx, auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
		ctx = context.WithValue(ctx, auth.OrgIDKey, orgID)
		*req = *req.WithContext(ctx)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// --- Tests ---

func TestAudit_TemplateRead(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	sessionID := uuid.New().String()
	templateID := uuid.New().String()

	c, _ := newTestContext(http.MethodGet,
		fmt.Sprintf("/api/v1/sessions/%s/templates/%s", sessionID, templateID),
		withAuth("user-1", "org-1", []string{"physician"}),
	)
	c.Set("request_id", "req-abc")

	mw := Audit(logger, rec)
	h := mw(okHandler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.UserID != "user-1" {
		t.Errorf("expected user_id 'user-1', got %q", entry.UserID)
	}
	if entry.OrgID != "org-1" {
		t.Errorf("expected org_id 'org-1', got %q", entry.OrgID)
	}
	if entry.SessionID != sessionID {
		t.Errorf("expected session_id %q, got %q", sessionID, entry.SessionID)
	}
	if entry.TemplateID != templateID {
		t.Errorf("expected template_id %q, got %q", templateID, entry.TemplateID)
	}
	if entry.Action != "read" {
		t.Errorf("expected action 'read', got %q", entry.Action)
	}
	if entry.RequestID != "req-abc" {
		t.Errorf("expected request_id 'req-abc', got %q", entry.RequestID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
}

func TestAudit_MethodToAction(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	cases := []struct {
		method string
		action string
	}{
		{http.MethodGet, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodPatch, "update"},
		{http.MethodDelete, "delete"},
	}
	for _, tc := range cases {
		rec := &mockRecorder{}
		c, _ := newTestContext(tc.method, "/api/v1/sessions", withAuth("u", "o", nil))
		mw := Audit(logger, rec)
		if err := mw(okHandler)(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.method, err)
		}
		if got := rec.last().Action; got != tc.action {
			t.Errorf("%s: expected action %q, got %q", tc.method, tc.action, got)
		}
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/health")

	mw := Audit(logger, rec)
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected no audit entries for /health, got %d", rec.count())
	}
}

func TestAudit_RecorderFailureDoesNotBlockRequest(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{err: errors.New("sink down")}
	c, _ := newTestContext(http.MethodGet, "/api/v1/sessions", withAuth("u", "o", nil))

	mw := Audit(logger, rec)
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("expected request to succeed despite recorder failure, got %v", err)
	}
}
