package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/layout"
	"github.com/magpress/magpress/pkg/pipeline"
	"github.com/magpress/magpress/pkg/session"
	"github.com/magpress/magpress/pkg/storage"
)

func testServer(t *testing.T, noAuth bool) (*Server, session.Store) {
	t.Helper()
	ctx := context.Background()

	store := content.NewMemoryStore()
	l, err := layout.Generate(layout.GenerateInput{TextCount: 1})
	if err != nil {
		t.Fatalf("generate layout: %v", err)
	}
	if err := store.PutLayout(ctx, "summer-issue", 1, l); err != nil {
		t.Fatalf("put layout: %v", err)
	}
	c := content.NewPageContent()
	c.SetText(l.TextBlocks[0].ID, "Hello")
	if err := store.PutContent(ctx, "summer-issue", 1, c); err != nil {
		t.Fatalf("put content: %v", err)
	}

	artifacts, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	runner := pipeline.NewRunner(store, artifacts, nil, nil, nil)

	sessions := session.NewMemoryStore()
	return New(runner, sessions, Options{NoAuth: noAuth}), sessions
}

func postExport(t *testing.T, handler http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/exports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, true)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestExportRequiresAuth(t *testing.T) {
	s, _ := testServer(t, false)
	rec := postExport(t, s.Handler(),
		`{"template":"summer-issue","kind":"pdf","pages":[1]}`, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExportWithSessionToken(t *testing.T) {
	s, sessions := testServer(t, false)
	sess, err := session.New("Alice", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := sessions.Set(context.Background(), sess); err != nil {
		t.Fatalf("set session: %v", err)
	}

	rec := postExport(t, s.Handler(),
		`{"template":"summer-issue","kind":"pdf","pages":[1],"scale":0.05}`,
		map[string]string{"Authorization": "Bearer " + sess.ID})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp exportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != pipeline.StateCompleted {
		t.Errorf("state = %s, want completed", resp.State)
	}
	if resp.Location == "" {
		t.Error("location should be set")
	}
	if !strings.Contains(resp.Location, "alice/") {
		t.Errorf("location %q should be namespaced under alice/", resp.Location)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	s, sessions := testServer(t, false)
	sess, err := session.New("Alice", "Alice", -time.Hour)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := sessions.Set(context.Background(), sess); err != nil {
		t.Fatalf("set session: %v", err)
	}

	rec := postExport(t, s.Handler(),
		`{"template":"summer-issue","kind":"pdf","pages":[1]}`,
		map[string]string{"Authorization": "Bearer " + sess.ID})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExportValidation(t *testing.T) {
	s, _ := testServer(t, true)
	handler := s.Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad kind", `{"template":"t","kind":"gif","pages":[1]}`, http.StatusBadRequest},
		{"no pages", `{"template":"t","kind":"pdf"}`, http.StatusBadRequest},
		{"descending pages", `{"template":"t","kind":"pdf","pages":[2,1]}`, http.StatusBadRequest},
		{"missing page", `{"template":"summer-issue","kind":"pdf","pages":[99],"scale":0.05}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postExport(t, handler, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestAsyncExport(t *testing.T) {
	s, _ := testServer(t, true)
	handler := s.Handler()

	rec := postExport(t, handler,
		`{"template":"summer-issue","kind":"pdf","pages":[1],"scale":0.05,"async":true}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var resp exportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("job_id should be set")
	}

	// Poll until the job reaches a terminal state.
	deadline := time.Now().Add(30 * time.Second)
	var job Job
	for {
		req := httptest.NewRequest("GET", "/api/exports/"+resp.JobID, nil)
		getRec := httptest.NewRecorder()
		handler.ServeHTTP(getRec, req)
		if getRec.Code != http.StatusOK {
			t.Fatalf("get job status = %d: %s", getRec.Code, getRec.Body.String())
		}
		if err := json.Unmarshal(getRec.Body.Bytes(), &job); err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if job.State.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, state %s", job.State)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if job.State != pipeline.StateCompleted {
		t.Fatalf("job state = %s, want completed", job.State)
	}
	if job.Result == nil || job.Result.Location == "" {
		t.Error("completed job should carry a result location")
	}
}

func TestUnknownJob(t *testing.T) {
	s, _ := testServer(t, true)
	req := httptest.NewRequest("GET", "/api/exports/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestJobHiddenFromOtherIdentity(t *testing.T) {
	s, sessions := testServer(t, false)
	handler := s.Handler()
	ctx := context.Background()

	alice, _ := session.New("Alice", "Alice", time.Hour)
	bob, _ := session.New("Bob", "Bob", time.Hour)
	if err := sessions.Set(ctx, alice); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := sessions.Set(ctx, bob); err != nil {
		t.Fatalf("set session: %v", err)
	}

	rec := postExport(t, handler,
		`{"template":"summer-issue","kind":"pdf","pages":[1],"scale":0.05}`,
		map[string]string{"Authorization": "Bearer " + alice.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp exportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/exports/"+resp.JobID, nil)
	req.Header.Set("Authorization", "Bearer "+bob.ID)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, req)

	if getRec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for foreign job", getRec.Code)
	}
}

func TestJobRegistryPrune(t *testing.T) {
	r := NewJobRegistry()
	r.Create("old", "alice", "t")
	r.Complete("old", &pipeline.Result{State: pipeline.StateCompleted})

	// Backdate past the retention window.
	r.mu.Lock()
	r.jobs["old"].UpdatedAt = time.Now().Add(-2 * jobRetention)
	r.mu.Unlock()

	r.Create("new", "alice", "t")
	if got := r.Get("old"); got != nil {
		t.Error("terminal job past retention should be pruned")
	}
	if got := r.Get("new"); got == nil {
		t.Error("new job should exist")
	}
}
