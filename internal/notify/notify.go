// Package notify posts operational summaries (broadcast and sweep results) to side channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Notifier delivers a one-line message to its default target.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, message string) error
}

// Registry holds notifiers by name.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[n.Name()] = n
}

func (r *Registry) Get(name string) Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notifiers[name]
}

// Names returns registered notifier names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.notifiers))
	for n := range r.notifiers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Notify(ctx context.Context, name, message string) error {
	n := r.Get(name)
	if n == nil {
		return fmt.Errorf("notifier %q not found", name)
	}
	return n.Notify(ctx, message)
}

// Broadcast sends message to every notifier. Failures are logged; the count of successes is returned.
// A nil registry is a no-op.
func (r *Registry) Broadcast(ctx context.Context, message string) int {
	if r == nil {
		return 0
	}
	ok := 0
	for _, name := range r.Names() {
		if err := r.Notify(ctx, name, message); err != nil {
			slog.Warn("notify failed", "notifier", name, "err", err)
			continue
		}
		ok++
	}
	return ok
}

// SlackWebhook posts to a Slack incoming webhook URL.
type SlackWebhook struct {
	WebhookURL string
	Channel    string // optional override
	Username   string // optional
	HTTPClient *http.Client
}

func (s SlackWebhook) Name() string { return "slack" }

func (s SlackWebhook) Notify(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not set")
	}
	payload := map[string]any{"text": message}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	if s.Username != "" {
		payload["username"] = s.Username
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	hc := s.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
