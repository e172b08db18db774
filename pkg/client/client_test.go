package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankittk/hardcheck/pkg/models"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:3650", "")
	if c.BaseURL != "http://localhost:3650" || c.APIKey != "" {
		t.Errorf("New: %+v", c)
	}
	c2 := New("http://localhost:3650", "secret")
	if c2.APIKey != "secret" {
		t.Errorf("New with key: %+v", c2)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ok, err := New(srv.URL, "").Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !ok {
		t.Fatal("Health: expected ok true")
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"duplicate"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").AddDeadline(context.Background(), "U1", models.AddDeadlineRequest{Task: "x", DueDate: "2026-03-12"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("AddDeadline: got %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "duplicate" || apiErr.Path != "/users/U1/deadlines" {
		t.Fatalf("APIError: got %+v", apiErr)
	}
}

func TestClient_setsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, _ = New(srv.URL, "mykey").Health(context.Background())
	if gotKey != "mykey" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
}

func TestDeadlineRoutes(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/U 1/deadlines":
			if r.Method == http.MethodPost {
				var body models.AddDeadlineRequest
				_ = json.NewDecoder(r.Body).Decode(&body)
				_ = json.NewEncoder(w).Encode(models.Deadline{ID: "d1", Task: body.Task, DueDate: body.DueDate})
				return
			}
			_ = json.NewEncoder(w).Encode(models.DeadlineList{UserID: "U 1"})
		case "/checkin":
			_ = json.NewEncoder(w).Encode(models.BroadcastResult{Sent: 2})
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	d, err := c.AddDeadline(ctx, "U 1", models.AddDeadlineRequest{Task: "Ship", DueDate: "2026-03-12"})
	if err != nil || d.ID != "d1" || d.Task != "Ship" {
		t.Fatalf("AddDeadline: got %+v, %v", d, err)
	}
	if list, err := c.Deadlines(ctx, "U 1"); err != nil || list.UserID != "U 1" {
		t.Fatalf("Deadlines: got %+v, %v", list, err)
	}
	if err := c.CompleteDeadline(ctx, "U 1", "d1"); err != nil {
		t.Fatalf("CompleteDeadline: %v", err)
	}
	if res, err := c.CheckIn(ctx); err != nil || res.Sent != 2 {
		t.Fatalf("CheckIn: got %+v, %v", res, err)
	}

	want := []string{
		"POST /users/U%201/deadlines",
		"GET /users/U%201/deadlines",
		"POST /users/U%201/deadlines/d1/complete",
		"POST /checkin",
	}
	if len(seen) != len(want) {
		t.Fatalf("requests: got %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: got %q, want %q", i, seen[i], want[i])
		}
	}
}
