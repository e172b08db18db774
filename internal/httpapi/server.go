package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ankittk/hardcheck/internal/bot"
	"github.com/ankittk/hardcheck/internal/deadline"
	"github.com/ankittk/hardcheck/internal/ui"
	"github.com/ankittk/hardcheck/pkg/models"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// devCORS allows any origin, for dashboards served from another port during development.
func devCORS(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	})
	return c.Handler(next)
}

// ServerOptions configures the HTTP server. Bot is required.
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	SigningSecret  string       // if set, /slack/events requires a valid Slack signature
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
	Bot            *bot.Bot
	Hub            *SSEHub // default: a new hub; pass the bot's publisher to stream its events
	EventTimeout   time.Duration
	Now            func() time.Time
}

// App holds the HTTP server, SSE hub and the bot it serves.
type App struct {
	Server    *http.Server
	Hub       *SSEHub
	Bot       *bot.Bot
	Deadlines *deadline.Manager
	Home      string

	opts     ServerOptions
	inflight sync.WaitGroup
}

// NewApp creates the HTTP app and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	if opts.Bot == nil {
		return nil, errors.New("httpapi: bot is required")
	}
	if opts.Hub == nil {
		opts.Hub = NewSSEHub()
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	app := &App{
		Hub:       opts.Hub,
		Bot:       opts.Bot,
		Deadlines: opts.Bot.Deadlines(),
		Home:      opts.Home,
		opts:      opts,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", app.handlePlainMetrics)
	}
	mux.HandleFunc("/stream", app.Hub.Handler())
	mux.HandleFunc("/slack/events", app.handleSlackEvents)
	app.registerAdmin(mux)
	mux.Handle("/", ui.Handler())

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	if opts.Dev {
		handler = devCORS(handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "hardcheck")
	}
	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	app.Server.RegisterOnShutdown(app.Wait)
	return app, nil
}

// Wait blocks until every accepted Slack event has been handled.
func (a *App) Wait() {
	a.inflight.Wait()
}

func (a *App) handlePlainMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	active, overdue, completed := a.Deadlines.Totals()
	_, _ = fmt.Fprintf(w, "# TYPE hardcheck_deadlines gauge\n")
	_, _ = fmt.Fprintf(w, "hardcheck_deadlines{status=\"active\"} %d\n", active)
	_, _ = fmt.Fprintf(w, "hardcheck_deadlines{status=\"overdue\"} %d\n", overdue)
	_, _ = fmt.Fprintf(w, "hardcheck_deadlines{status=\"completed\"} %d\n", completed)
	_, _ = fmt.Fprintf(w, "# TYPE hardcheck_dedup_entries gauge\n")
	_, _ = fmt.Fprintf(w, "hardcheck_dedup_entries %d\n", a.Bot.Dedup().Len())
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// apiKeyMiddleware guards the admin API. Slack authenticates with its own signature.
func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/metrics", "/slack/events":
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions || ui.IsAsset(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// writeDeadlineError maps lifecycle validation errors to 400/409.
func writeDeadlineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deadline.ErrDuplicateDeadline):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, deadline.ErrInvalidDeadline):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
