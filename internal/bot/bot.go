// Package bot wires dedup, classification, reply generation and the deadline engine into the
// inbound message pipeline and the scheduled broadcast, reminder sweep and cleanup jobs.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/internal/deadline"
	"github.com/ankittk/hardcheck/internal/dedup"
	"github.com/ankittk/hardcheck/internal/llm"
	"github.com/ankittk/hardcheck/internal/notify"
	"github.com/ankittk/hardcheck/internal/otel"
	"github.com/ankittk/hardcheck/pkg/models"
)

const (
	// RetryMessage is sent in place of a reply whose first send failed.
	RetryMessage = "🔥 Stay hard, warrior! 💪"
	// MentionPrompt answers a mention with nothing else in it.
	MentionPrompt = "🔥 What's up, warrior! Tell me about your day - what did you accomplish? Stay hard! 💪"

	mentionMinRunes = 6

	// jobSendTimeout bounds each send of a broadcast or reminder sweep.
	jobSendTimeout = 30 * time.Second
)

// Sender delivers text to a channel, DM or user id, threaded under threadTS when non-empty.
type Sender interface {
	Send(ctx context.Context, channel, text, threadTS string) error
}

// Generator produces a reply; it never fails.
type Generator interface {
	Reply(ctx context.Context, text string, p llm.Profile) string
}

// Publisher receives bot events (the SSE hub).
type Publisher interface {
	PublishJSON(v any)
}

// Options configures a Bot. Sender, Deadlines and Classifier are required.
type Options struct {
	Sender        Sender
	Generator     Generator // default: templates only
	Deadlines     *deadline.Manager
	Classifier    *classify.Classifier
	Dedup         *dedup.Suppressor // default: 5 minute window
	Roster        *Roster
	Publisher     Publisher
	Notifier      *notify.Registry
	RetentionDays int
	Now           func() time.Time
}

// Bot is safe for concurrent use; inbound events are normally handled on their own goroutines.
type Bot struct {
	sender        Sender
	gen           Generator
	deadlines     *deadline.Manager
	classifier    *classify.Classifier
	dedup         *dedup.Suppressor
	roster        *Roster
	pub           Publisher
	notifier      *notify.Registry
	retentionDays int
	now           func() time.Time

	mu            sync.Mutex
	lastBroadcast time.Time
}

func New(opts Options) (*Bot, error) {
	if opts.Sender == nil || opts.Deadlines == nil || opts.Classifier == nil {
		return nil, errors.New("bot: sender, deadlines and classifier are required")
	}
	if opts.Generator == nil {
		opts.Generator = llm.NewGenerator(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Dedup == nil {
		opts.Dedup = dedup.New(dedup.DefaultTTL, opts.Now)
	}
	if opts.Roster == nil {
		opts.Roster = NewRoster(nil)
	}
	return &Bot{
		sender:        opts.Sender,
		gen:           opts.Generator,
		deadlines:     opts.Deadlines,
		classifier:    opts.Classifier,
		dedup:         opts.Dedup,
		roster:        opts.Roster,
		pub:           opts.Publisher,
		notifier:      opts.Notifier,
		retentionDays: opts.RetentionDays,
		now:           opts.Now,
	}, nil
}

func (b *Bot) Roster() *Roster                  { return b.roster }
func (b *Bot) Deadlines() *deadline.Manager     { return b.deadlines }
func (b *Bot) Classifier() *classify.Classifier { return b.classifier }
func (b *Bot) Dedup() *dedup.Suppressor         { return b.dedup }

// LastBroadcast is the time of the most recent broadcast; zero before the first one.
func (b *Bot) LastBroadcast() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBroadcast
}

// Outcome describes what happened to one inbound event.
type Outcome struct {
	Duplicate bool
	Responded bool
	Decision  classify.Decision
	Reply     string
	Deadline  *models.Deadline
	Retried   bool
	SendErr   error
}

// Handle routes ev to HandleMention or HandleMessage.
func (b *Bot) Handle(ctx context.Context, ev models.InboundEvent) Outcome {
	if ev.Mention {
		return b.HandleMention(ctx, ev)
	}
	return b.HandleMessage(ctx, ev)
}

// HandleMessage runs the reply pipeline for one message.
func (b *Bot) HandleMessage(ctx context.Context, ev models.InboundEvent) Outcome {
	if !b.dedup.ShouldProcess(dedup.Key(ev.UserID, ev.Timestamp, ev.ChannelID)) {
		return b.duplicate(ctx, ev)
	}
	return b.process(ctx, ev)
}

var mentionToken = regexp.MustCompile(`<@[A-Za-z0-9]+(\|[^>]*)?>`)

// HandleMention strips user mentions and handles the rest as a message, or answers with the short
// prompt when almost nothing is left. Shares the message dedup key.
func (b *Bot) HandleMention(ctx context.Context, ev models.InboundEvent) Outcome {
	if !b.dedup.ShouldProcess(dedup.Key(ev.UserID, ev.Timestamp, ev.ChannelID)) {
		return b.duplicate(ctx, ev)
	}
	cleaned := strings.TrimSpace(mentionToken.ReplaceAllString(ev.Text, ""))
	if utf8.RuneCountInString(cleaned) >= mentionMinRunes {
		ev.Text = cleaned
		return b.process(ctx, ev)
	}
	out := Outcome{Responded: true, Reply: MentionPrompt}
	out.Retried, out.SendErr = b.sendWithRetry(ctx, ev.ChannelID, MentionPrompt, ev.Timestamp)
	otel.RecordMessage(ctx, "mention_prompt", b.classifier.Name())
	b.publishHandled(ev, out)
	return out
}

func (b *Bot) duplicate(ctx context.Context, ev models.InboundEvent) Outcome {
	slog.Debug("duplicate event skipped", "user", ev.UserID, "ts", ev.Timestamp, "channel", ev.ChannelID)
	otel.RecordMessage(ctx, "duplicate", b.classifier.Name())
	return Outcome{Duplicate: true}
}

func (b *Bot) process(ctx context.Context, ev models.InboundEvent) Outcome {
	member, known := b.roster.Lookup(ev.UserID)
	if !known {
		slog.Info("message from user not in roster", "user", ev.UserID)
	}

	var out Outcome
	out.Decision = b.classifier.Classify(classify.Input{
		Text:          ev.Text,
		IsDirect:      ev.IsDirect,
		LastBroadcast: b.LastBroadcast(),
		Now:           b.now(),
	})
	if !out.Decision.Respond {
		otel.RecordMessage(ctx, "ignored", b.classifier.Name())
		b.publishHandled(ev, out)
		return out
	}

	reply := b.gen.Reply(ctx, ev.Text, llm.Profile{Name: member.Name, Role: member.Role, Goals: member.Goals})

	spec := b.deadlines.GenerateRoleSpecificDeadline(member.Role, ev.Text)
	d, err := b.deadlines.AddDeadline(ctx, member.user(), spec.Task, spec.DueDate, spec.Type)
	switch {
	case err == nil:
		out.Deadline = &d
		reply += deadline.InclusionMessage(d)
		otel.RecordDeadlineOp(ctx, "add", 1)
	case errors.Is(err, deadline.ErrDuplicateDeadline):
		slog.Debug("role deadline already active", "user", ev.UserID, "due", spec.DueDate)
	default:
		slog.Warn("role deadline not created", "user", ev.UserID, "err", err)
	}

	out.Responded = true
	out.Reply = reply
	out.Retried, out.SendErr = b.sendWithRetry(ctx, ev.ChannelID, reply, ev.Timestamp)
	otel.RecordMessage(ctx, "replied", b.classifier.Name())
	b.publishHandled(ev, out)
	return out
}

// sendWithRetry sends text; on failure it sends RetryMessage once. retried is true when the first
// send failed; err is the final failure, if any.
func (b *Bot) sendWithRetry(ctx context.Context, channel, text, threadTS string) (retried bool, err error) {
	if err = b.sender.Send(ctx, channel, text, threadTS); err == nil {
		otel.RecordReply(ctx, "sent")
		return false, nil
	}
	slog.Warn("reply send failed, retrying with short message", "channel", channel, "err", err)
	if err = b.sender.Send(ctx, channel, RetryMessage, threadTS); err == nil {
		otel.RecordReply(ctx, "retried")
		return true, nil
	}
	slog.Error("retry send failed", "channel", channel, "err", err)
	otel.RecordReply(ctx, "failed")
	return true, err
}

// CheckInMessage is the daily broadcast prompt for a user without overdue deadlines.
func CheckInMessage(name string) string {
	return fmt.Sprintf("🔥 **%s!** End of day accountability check!\n\n**Tell me what you accomplished today:**\n• What specific tasks did you complete?\n• What challenges did you overcome?\n• How did you push yourself outside your comfort zone?\n\n*Don't give me some weak response. I want details! Stay hard!* 💪", name)
}

// Broadcast sends the daily check-in to every active member scheduled for today. Members with
// overdue deadlines get the reminder text instead. Deadlines are not marked reminded here.
// Once started it runs to completion even if ctx is cancelled.
func (b *Bot) Broadcast(ctx context.Context) models.BroadcastResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	now := b.now()
	b.mu.Lock()
	b.lastBroadcast = now
	b.mu.Unlock()

	res := models.BroadcastResult{At: now}
	today := now.In(b.deadlines.Location()).Weekday()
	for _, m := range b.roster.Active() {
		if !m.ChecksInOn(today) {
			res.Skipped++
			continue
		}
		text := CheckInMessage(m.Name)
		overdue := b.deadlines.OverdueDeadlines(m.ID)
		if len(overdue) > 0 {
			text = b.deadlines.ReminderMessage(m.Name, overdue)
		}
		if err := b.sendJob(ctx, m.ID, text); err != nil {
			slog.Error("check-in send failed", "user", m.ID, "err", err)
			res.Failed++
			continue
		}
		res.Sent++
		if len(overdue) > 0 {
			res.Reminders++
		}
	}

	slog.Info("check-in broadcast finished", "sent", res.Sent, "reminders", res.Reminders, "skipped", res.Skipped, "failed", res.Failed)
	otel.RecordReminders(ctx, models.EventBroadcast, res.Reminders)
	otel.RecordJob(ctx, models.EventBroadcast, jobStatus(res.Failed), time.Since(start))
	b.publish(map[string]any{"type": models.EventBroadcast, "result": res})
	b.notifier.Broadcast(ctx, fmt.Sprintf("hardcheck check-in: %d sent (%d with overdue reminders), %d skipped, %d failed", res.Sent, res.Reminders, res.Skipped, res.Failed))
	return res
}

// ReminderSweep sends every user with overdue deadlines a reminder and marks those deadlines
// reminded once the send succeeds. Like Broadcast it ignores cancellation of ctx.
func (b *Bot) ReminderSweep(ctx context.Context) models.SweepResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	var res models.SweepResult
	for _, u := range b.deadlines.AllOverdue() {
		res.Users++
		name := u.Name
		if m, ok := b.roster.Lookup(u.UserID); ok || name == "" {
			name = m.Name
		}
		text := b.deadlines.ReminderMessage(name, u.Deadlines)
		if err := b.sendJob(ctx, u.UserID, text); err != nil {
			slog.Error("reminder send failed", "user", u.UserID, "err", err)
			res.Failed++
			continue
		}
		res.Sent++
		for _, d := range u.Deadlines {
			if b.deadlines.MarkAsReminded(ctx, u.UserID, d.ID) {
				res.Marked++
			}
		}
	}

	slog.Info("reminder sweep finished", "users", res.Users, "sent", res.Sent, "marked", res.Marked, "failed", res.Failed)
	otel.RecordReminders(ctx, models.EventReminderSweep, res.Sent)
	otel.RecordDeadlineOp(ctx, "remind", res.Marked)
	otel.RecordJob(ctx, models.EventReminderSweep, jobStatus(res.Failed), time.Since(start))
	b.publish(map[string]any{"type": models.EventReminderSweep, "result": res})
	if res.Users > 0 {
		b.notifier.Broadcast(ctx, fmt.Sprintf("hardcheck reminders: %d of %d users reminded, %d deadlines marked, %d failed", res.Sent, res.Users, res.Marked, res.Failed))
	}
	return res
}

func (b *Bot) sendJob(ctx context.Context, channel, text string) error {
	ctx, cancel := context.WithTimeout(ctx, jobSendTimeout)
	defer cancel()
	return b.sender.Send(ctx, channel, text, "")
}

// Cleanup drops completed deadlines past the retention period.
func (b *Bot) Cleanup(ctx context.Context) int {
	start := time.Now()
	n := b.deadlines.CleanupOldDeadlines(ctx, b.retentionDays)
	otel.RecordDeadlineOp(ctx, "cleanup", n)
	otel.RecordJob(ctx, models.EventCleanup, "ok", time.Since(start))
	b.publish(map[string]any{"type": models.EventCleanup, "removed": n})
	return n
}

// PublishDeadlineUpdate announces a deadline change made outside the pipeline (admin API).
func (b *Bot) PublishDeadlineUpdate(userID, deadlineID, action string) {
	b.publish(map[string]any{"type": models.EventDeadlineUpdate, "user": userID, "deadline_id": deadlineID, "action": action})
}

func (b *Bot) publishHandled(ev models.InboundEvent, out Outcome) {
	payload := map[string]any{
		"type":      models.EventMessageHandled,
		"user":      ev.UserID,
		"channel":   ev.ChannelID,
		"ts":        ev.Timestamp,
		"direct":    ev.IsDirect,
		"mention":   ev.Mention,
		"responded": out.Responded,
		"decision":  out.Decision.Model(b.classifier.Name()),
	}
	if out.Deadline != nil {
		payload["deadline_id"] = out.Deadline.ID
	}
	if out.SendErr != nil {
		payload["error"] = out.SendErr.Error()
	}
	b.publish(payload)
}

func (b *Bot) publish(v any) {
	if b.pub != nil {
		b.pub.PublishJSON(v)
	}
}

func jobStatus(failed int) string {
	if failed > 0 {
		return "partial"
	}
	return "ok"
}
