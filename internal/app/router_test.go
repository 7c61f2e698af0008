package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"topikbank/internal/auth"
	internaldb "topikbank/internal/db"
	"topikbank/internal/storage"
)

const testAdminKey = "router-test-admin-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithLogger(t, nil)
}

func newTestRouterWithLogger(t *testing.T, logger *zap.Logger) http.Handler {
	t.Helper()
	dir := t.TempDir()
	conn, err := internaldb.Open(context.Background(), internaldb.Config{
		Driver: internaldb.DriverSQLite,
		DSN:    filepath.Join(dir, "router.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	blobs, err := storage.NewFSStore(filepath.Join(dir, "blobs"), "http://example.test")
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}
	hash, err := auth.HashKey(testAdminKey, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}

	cfg := Config{
		AppEnv:                "test",
		AdminKeyHash:          hash,
		CORSOrigins:           []string{"http://localhost:5173"},
		UploadRateLimitPerMin: 10,
		MaxUploadMB:           4,
	}
	return NewRouter(cfg, conn, blobs, logger)
}

func serve(t *testing.T, h http.Handler, method, path string, body []byte, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withKey {
		req.Header.Set(auth.AdminKeyHeader, testAdminKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type routerEnvelope struct {
	OK   bool            `json:"ok"`
	Data json.RawMessage `json:"data"`
}

func TestRouterHealthzIsPublic(t *testing.T) {
	h := newTestRouter(t)
	w := serve(t, h, http.MethodGet, "/healthz", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRouterRequiresAdminKey(t *testing.T) {
	h := newTestRouter(t)
	w := serve(t, h, http.MethodGet, "/api/v1/exams", nil, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRouterFormats(t *testing.T) {
	h := newTestRouter(t)
	w := serve(t, h, http.MethodGet, "/api/v1/formats/listening", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env routerEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 50 {
		t.Fatalf("expected 50 slots, got %d", len(entries))
	}

	w = serve(t, h, http.MethodGet, "/api/v1/formats/writing", nil, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown paper, got %d", w.Code)
	}
}

func TestRouterExamLifecycle(t *testing.T) {
	h := newTestRouter(t)

	w := serve(t, h, http.MethodPost, "/api/v1/exams", []byte(`{"title":"TOPIK II 제91회 읽기","round":91,"paper_type":"reading"}`), true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var env routerEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == "" {
		t.Fatalf("missing id in %s", env.Data)
	}

	w = serve(t, h, http.MethodGet, "/api/v1/exams/"+created.ID, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = serve(t, h, http.MethodGet, "/api/v1/exams/"+created.ID+"/export", nil, true)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("export: unexpected response %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = serve(t, h, http.MethodDelete, "/api/v1/exams/"+created.ID, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = serve(t, h, http.MethodGet, "/api/v1/exams/"+created.ID, nil, true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}

	w = serve(t, h, http.MethodGet, "/metrics", nil, false)
	if !strings.Contains(w.Body.String(), `path="/api/v1/exams/{id}"`) {
		t.Fatalf("metrics should group exam routes:\n%s", w.Body.String())
	}
}

func TestRouterRequestLogCarriesAdminKey(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := newTestRouterWithLogger(t, zap.New(core))

	if w := serve(t, h, http.MethodGet, "/api/v1/exams", nil, true); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(t, h, http.MethodGet, "/api/v1/exams", nil, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 request log entries, got %d", len(entries))
	}
	authed := entries[0].ContextMap()
	if key, _ := authed["admin_key"].(string); key == "" {
		t.Fatalf("expected admin_key on authenticated request log, got %v", authed)
	}
	if _, ok := entries[1].ContextMap()["admin_key"]; ok {
		t.Fatalf("unauthenticated request should not log admin_key: %v", entries[1].ContextMap())
	}
}
