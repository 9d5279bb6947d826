package qbank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/victorxys/ExamBank-sub004/internal/fetch"
)

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/questions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("subject_id"); got != "s1" {
			t.Errorf("subject_id = %q", got)
		}
		json.NewEncoder(w).Encode([]Question{{ID: 1, SubjectID: "s1", QuestionText: "Q"}})
	}))
	defer srv.Close()

	qs, err := New(srv.URL, nil).List(context.Background(), "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != 1 {
		t.Errorf("List = %+v", qs)
	}
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/questions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var q Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decode body: %v", err)
		}
		q.ID = 42
		json.NewEncoder(w).Encode(q)
	}))
	defer srv.Close()

	created, err := New(srv.URL, nil).Create(context.Background(), Question{
		SubjectID:    "s1",
		QuestionText: "What is inertia?",
		QuestionType: "single",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 42 {
		t.Errorf("created.ID = %d, want 42", created.ID)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	}))
	defer srv.Close()

	c := New(srv.URL, nil)

	if err := c.Update(context.Background(), Question{ID: 5, QuestionText: "updated"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/questions/5" {
		t.Errorf("Update issued %s %s", gotMethod, gotPath)
	}

	if err := c.Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/questions/5" {
		t.Errorf("Delete issued %s %s", gotMethod, gotPath)
	}
}

func TestRemoteErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "duplicate question"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).List(context.Background(), "")
	var remote *fetch.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusConflict || remote.Message != "duplicate question" {
		t.Errorf("RemoteError = %+v", remote)
	}
}
