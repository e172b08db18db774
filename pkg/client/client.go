// Package client provides a Go SDK for the hardcheck HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ankittk/hardcheck/pkg/models"
)

// Client calls the hardcheck HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:3650"
	APIKey     string       // optional; sent as X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:3650").
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

// APIError is a non-2xx response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.Status)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func userPath(userID string, rest ...string) string {
	p := "/users/" + url.PathEscape(userID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Users returns the roster with per-user stats.
func (c *Client) Users(ctx context.Context) ([]models.RosterUser, error) {
	var out []models.RosterUser
	err := c.doJSON(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

// User returns a user's stored record.
func (c *Client) User(ctx context.Context, userID string) (*models.UserRecord, error) {
	var out models.UserRecord
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns a user's deadline stats.
func (c *Client) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var out models.Stats
	err := c.doJSON(ctx, http.MethodGet, userPath(userID, "stats"), nil, &out)
	return out, err
}

// Deadlines returns a user's active, overdue and due-today deadlines.
func (c *Client) Deadlines(ctx context.Context, userID string) (*models.DeadlineList, error) {
	var out models.DeadlineList
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID, "deadlines"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDeadline creates a deadline; an empty Task asks the server to generate one from the user's role.
func (c *Client) AddDeadline(ctx context.Context, userID string, req models.AddDeadlineRequest) (*models.Deadline, error) {
	var out models.Deadline
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "deadlines"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteDeadline moves a deadline to the user's completed list.
func (c *Client) CompleteDeadline(ctx context.Context, userID, deadlineID string) error {
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "deadlines", deadlineID, "complete"), nil, nil)
}

// RemindDeadline records a reminder on a deadline without sending anything.
func (c *Client) RemindDeadline(ctx context.Context, userID, deadlineID string) error {
	return c.doJSON(ctx, http.MethodPost, userPath(userID, "deadlines", deadlineID, "remind"), nil, nil)
}

// Overdue returns every user with overdue deadlines.
func (c *Client) Overdue(ctx context.Context) ([]models.OverdueUser, error) {
	var out []models.OverdueUser
	err := c.doJSON(ctx, http.MethodGet, "/overdue", nil, &out)
	return out, err
}

// CheckIn runs the daily check-in broadcast now.
func (c *Client) CheckIn(ctx context.Context) (models.BroadcastResult, error) {
	var out models.BroadcastResult
	err := c.doJSON(ctx, http.MethodPost, "/checkin", nil, &out)
	return out, err
}

// Reminders runs the overdue reminder sweep now.
func (c *Client) Reminders(ctx context.Context) (models.SweepResult, error) {
	var out models.SweepResult
	err := c.doJSON(ctx, http.MethodPost, "/reminders", nil, &out)
	return out, err
}

// Cleanup drops completed deadlines past retention now.
func (c *Client) Cleanup(ctx context.Context) (models.CleanupResult, error) {
	var out models.CleanupResult
	err := c.doJSON(ctx, http.MethodPost, "/maintenance/cleanup", nil, &out)
	return out, err
}

// Classify asks the running bot whether it would answer text.
func (c *Client) Classify(ctx context.Context, req models.ClassifyRequest) (models.Classification, error) {
	var out models.Classification
	err := c.doJSON(ctx, http.MethodPost, "/classify", req, &out)
	return out, err
}
