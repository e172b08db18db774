package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ankittk/hardcheck/internal/slack"
	"github.com/ankittk/hardcheck/pkg/models"
)

// handleSlackEvents acknowledges Events API callbacks immediately and handles them in the
// background; Slack retries anything not acknowledged within three seconds.
func (a *App) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "read body")
		return
	}
	if a.opts.SigningSecret != "" {
		if err := slack.Verify(r.Header, body, a.opts.SigningSecret); err != nil {
			slog.Warn("slack signature rejected", "err", err)
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	parsed, err := slack.ParseEnvelope(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	switch parsed.Type {
	case slack.TypeURLVerification:
		writeJSON(w, map[string]any{"challenge": parsed.Challenge})
		return
	case slack.TypeEventCallback:
		if parsed.Event != nil {
			a.dispatch(r.Context(), *parsed.Event)
		}
	default:
		slog.Debug("slack payload ignored", "type", parsed.Type)
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (a *App) dispatch(parent context.Context, ev models.InboundEvent) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.opts.EventTimeout)
		defer cancel()
		a.Bot.Handle(ctx, ev)
	}()
}
