package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ankittk/hardcheck/internal/bot"
	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/deadline"
	"github.com/ankittk/hardcheck/internal/dedup"
	"github.com/ankittk/hardcheck/internal/httpapi"
	"github.com/ankittk/hardcheck/internal/llm"
	"github.com/ankittk/hardcheck/internal/notify"
	"github.com/ankittk/hardcheck/internal/schedule"
	"github.com/ankittk/hardcheck/internal/slack"
	"github.com/ankittk/hardcheck/internal/store"
)

// Runtime is everything the daemon runs besides the HTTP listener.
type Runtime struct {
	Config    config.Config
	Store     store.SnapshotStore
	Deadlines *deadline.Manager
	Bot       *bot.Bot
	Hub       *httpapi.SSEHub
	Scheduler *schedule.Scheduler
	Notifier  *notify.Registry
}

// BuildOptions overrides collaborators, mainly for tests.
type BuildOptions struct {
	Sender bot.Sender          // default: Slack Web API client with SLACK_BOT_TOKEN
	Store  store.SnapshotStore // default: cfg.StoreOptions(home)
	Now    func() time.Time
}

// Build opens the store and assembles the bot, its scheduler and the SSE hub from cfg.
func Build(ctx context.Context, home string, cfg config.Config, bo BuildOptions) (*Runtime, error) {
	if bo.Now == nil {
		bo.Now = time.Now
	}
	st := bo.Store
	if st == nil {
		var err error
		st, err = store.Open(ctx, cfg.StoreOptions(home))
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
		}
	}
	loc := cfg.Location()
	mgr, err := deadline.Open(ctx, st, deadline.Options{Location: loc, Now: bo.Now})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load deadlines: %w", err)
	}

	preset, err := classify.Named(cfg.Classifier)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sender := bo.Sender
	if sender == nil {
		if cfg.Secrets.SlackBotToken == "" {
			slog.Warn("SLACK_BOT_TOKEN not set; replies and check-ins will fail to send")
		}
		sender = slack.NewClient(cfg.Secrets.SlackBotToken)
	}

	completer := llm.NewClient(llm.Options{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.Secrets.OpenAIAPIKey,
		Model:   cfg.LLM.Model,
	})
	if completer.Configured() {
		slog.Info("llm replies enabled", "model", completer.Model())
	} else {
		slog.Info("OPENAI_API_KEY not set; replies use templates")
	}

	reg := notify.NewRegistry()
	if cfg.Secrets.SlackWebhookURL != "" {
		reg.Register(notify.SlackWebhook{
			WebhookURL: cfg.Secrets.SlackWebhookURL,
			Channel:    cfg.Notify.Channel,
			Username:   cfg.Notify.Username,
		})
	}

	hub := httpapi.NewSSEHub()
	b, err := bot.New(bot.Options{
		Sender:        sender,
		Generator:     llm.NewGenerator(completer),
		Deadlines:     mgr,
		Classifier:    classify.New(preset),
		Dedup:         dedup.New(dedup.DefaultTTL, bo.Now),
		Roster:        bot.NewRoster(cfg.Members()),
		Publisher:     hub,
		Notifier:      reg,
		RetentionDays: cfg.RetentionDays,
		Now:           bo.Now,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sched, err := newScheduler(cfg, b, loc, bo.Now)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &Runtime{
		Config:    cfg,
		Store:     st,
		Deadlines: mgr,
		Bot:       b,
		Hub:       hub,
		Scheduler: sched,
		Notifier:  reg,
	}, nil
}

// Close releases the store.
func (r *Runtime) Close() error {
	return r.Store.Close()
}
