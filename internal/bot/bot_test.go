package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/internal/deadline"
	"github.com/ankittk/hardcheck/internal/llm"
	"github.com/ankittk/hardcheck/internal/notify"
	"github.com/ankittk/hardcheck/internal/store"
	"github.com/ankittk/hardcheck/pkg/models"
)

type sent struct {
	channel, text, thread string
	ctxErr                error
}

type fakeSender struct {
	mu        sync.Mutex
	sent      []sent
	failOn    map[string]int // channel -> number of sends to fail
	afterSend func()
}

func (f *fakeSender) Send(ctx context.Context, channel, text, threadTS string) error {
	f.mu.Lock()
	if f.failOn[channel] > 0 {
		f.failOn[channel]--
		f.mu.Unlock()
		return errors.New("channel_not_found")
	}
	f.sent = append(f.sent, sent{channel, text, threadTS, ctx.Err()})
	hook := f.afterSend
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *fakeSender) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeGen struct{ profiles []llm.Profile }

func (g *fakeGen) Reply(ctx context.Context, text string, p llm.Profile) string {
	g.profiles = append(g.profiles, p)
	return "REPLY to " + p.Name
}

type fakePub struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *fakePub) PublishJSON(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := v.(map[string]any); ok {
		p.events = append(p.events, m)
	}
}

type fixture struct {
	bot    *Bot
	sender *fakeSender
	gen    *fakeGen
	pub    *fakePub
	mgr    *deadline.Manager
	now    time.Time
}

// Tuesday 2026-03-10 17:00 UTC.
var fixtureNow = time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, members ...Member) *fixture {
	t.Helper()
	f := &fixture{sender: &fakeSender{failOn: map[string]int{}}, gen: &fakeGen{}, pub: &fakePub{}, now: fixtureNow}
	clock := func() time.Time { return f.now }
	mgr, err := deadline.Open(context.Background(), store.NewMemoryStore(nil), deadline.Options{Location: time.UTC, Now: clock})
	if err != nil {
		t.Fatalf("deadline.Open: %v", err)
	}
	f.mgr = mgr
	b, err := New(Options{
		Sender:     f.sender,
		Generator:  f.gen,
		Deadlines:  mgr,
		Classifier: classify.New(classify.Lightweight()),
		Roster:     NewRoster(members),
		Publisher:  f.pub,
		Now:        clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.bot = b
	return f
}

var (
	john  = Member{ID: "U1", Name: "John", Role: "Founder/CEO", Active: true, Goals: []string{"Lead company vision"}}
	alan  = Member{ID: "U2", Name: "Alan", Role: "Executive Assistant", Active: true}
	niki  = Member{ID: "U3", Name: "Niki", Role: "Social Media", Active: true, CheckInDays: []time.Weekday{time.Monday}}
	ghost = Member{ID: "U4", Name: "Ghost", Role: "Manager", Active: false}
)

func TestNew_requiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New without collaborators: expected error")
	}
}

func TestHandleMessage_repliesWithDeadline(t *testing.T) {
	f := newFixture(t, john)
	ev := models.InboundEvent{UserID: "U1", Text: "Had a productive day, finished the board deck", ChannelID: "D1", Timestamp: "1.001", IsDirect: true}
	out := f.bot.HandleMessage(context.Background(), ev)

	if !out.Responded || out.Deadline == nil || out.SendErr != nil || out.Retried {
		t.Fatalf("outcome: %+v", out)
	}
	if out.Deadline.Type != models.TypeStrategic || out.Deadline.DueDate != "2026-03-17" {
		t.Fatalf("role deadline: got %+v", out.Deadline)
	}
	msgs := f.sender.all()
	if len(msgs) != 1 || msgs[0].channel != "D1" || msgs[0].thread != "1.001" {
		t.Fatalf("sent: %+v", msgs)
	}
	if !strings.HasPrefix(msgs[0].text, "REPLY to John") || !strings.Contains(msgs[0].text, "YOUR NEW DEADLINE") {
		t.Fatalf("reply text: %q", msgs[0].text)
	}
	if len(f.gen.profiles) != 1 || f.gen.profiles[0].Goals[0] != "Lead company vision" {
		t.Fatalf("profile: %+v", f.gen.profiles)
	}
	if len(f.pub.events) != 1 || f.pub.events[0]["type"] != models.EventMessageHandled {
		t.Fatalf("events: %+v", f.pub.events)
	}
}

func TestHandleMessage_duplicateSuppressed(t *testing.T) {
	f := newFixture(t, john)
	ev := models.InboundEvent{UserID: "U1", Text: "hello there", ChannelID: "C1", Timestamp: "1.002"}
	f.bot.HandleMessage(context.Background(), ev)
	out := f.bot.HandleMessage(context.Background(), ev)
	if !out.Duplicate || out.Responded {
		t.Fatalf("second delivery: %+v", out)
	}
	if n := len(f.sender.all()); n != 1 {
		t.Fatalf("sends: got %d, want 1", n)
	}
	// A mention with the same key is the same event.
	ev.Mention = true
	if out := f.bot.Handle(context.Background(), ev); !out.Duplicate {
		t.Fatalf("mention duplicate: %+v", out)
	}
}

func TestHandleMessage_secondReplyOmitsInclusion(t *testing.T) {
	f := newFixture(t, john)
	ctx := context.Background()
	f.bot.HandleMessage(ctx, models.InboundEvent{UserID: "U1", Text: "hello", ChannelID: "C1", Timestamp: "1"})
	out := f.bot.HandleMessage(ctx, models.InboundEvent{UserID: "U1", Text: "hello again", ChannelID: "C1", Timestamp: "2"})
	if !out.Responded || out.Deadline != nil {
		t.Fatalf("second message: %+v", out)
	}
	if strings.Contains(out.Reply, "YOUR NEW DEADLINE") {
		t.Fatalf("inclusion text added without a new deadline: %q", out.Reply)
	}
	if n := len(f.mgr.ActiveDeadlines("U1")); n != 1 {
		t.Fatalf("active deadlines: got %d, want 1", n)
	}
}

func TestHandleMessage_unknownUserDefaults(t *testing.T) {
	f := newFixture(t)
	out := f.bot.HandleMessage(context.Background(), models.InboundEvent{UserID: "U9", Text: "good day", ChannelID: "D9", Timestamp: "1", IsDirect: true})
	if !out.Responded || out.Deadline == nil || out.Deadline.Type != models.TypeProductivity {
		t.Fatalf("unknown user outcome: %+v", out)
	}
	if f.gen.profiles[0].Name != models.DefaultUserName || f.gen.profiles[0].Role != models.DefaultUserRole {
		t.Fatalf("profile: %+v", f.gen.profiles[0])
	}
	rec, ok := f.mgr.Record("U9")
	if !ok || rec.Name != models.DefaultUserName {
		t.Fatalf("record: %+v", rec)
	}
}

func TestHandleMessage_ignored(t *testing.T) {
	f := newFixture(t, john)
	// Channel, no keyword, too short, and a broadcast long ago.
	f.now = fixtureNow.Add(-48 * time.Hour)
	f.bot.Broadcast(context.Background())
	f.now = fixtureNow
	before := len(f.sender.all())
	out := f.bot.HandleMessage(context.Background(), models.InboundEvent{UserID: "U1", Text: "zzz", ChannelID: "C1", Timestamp: "7"})
	if out.Responded || out.Decision.Respond {
		t.Fatalf("outcome: %+v", out)
	}
	if len(f.sender.all()) != before {
		t.Fatal("ignored message produced a send")
	}
	if len(f.mgr.ActiveDeadlines("U1")) != 0 {
		t.Fatal("ignored message created a deadline")
	}
}

func TestHandleMessage_sendRetry(t *testing.T) {
	f := newFixture(t, john)
	f.sender.failOn["C1"] = 1
	out := f.bot.HandleMessage(context.Background(), models.InboundEvent{UserID: "U1", Text: "hello", ChannelID: "C1", Timestamp: "1"})
	if !out.Retried || out.SendErr != nil {
		t.Fatalf("outcome: %+v", out)
	}
	msgs := f.sender.all()
	if len(msgs) != 1 || msgs[0].text != RetryMessage || msgs[0].thread != "1" {
		t.Fatalf("retry send: %+v", msgs)
	}

	f.sender.failOn["C2"] = 2
	out = f.bot.HandleMessage(context.Background(), models.InboundEvent{UserID: "U1", Text: "hello", ChannelID: "C2", Timestamp: "2"})
	if !out.Retried || out.SendErr == nil {
		t.Fatalf("double failure outcome: %+v", out)
	}
}

func TestHandleMention(t *testing.T) {
	f := newFixture(t, john)
	ctx := context.Background()
	out := f.bot.Handle(ctx, models.InboundEvent{UserID: "U1", Text: "<@UBOT>  ", ChannelID: "C1", Timestamp: "1", Mention: true})
	if !out.Responded || out.Reply != MentionPrompt {
		t.Fatalf("bare mention: %+v", out)
	}
	if len(f.mgr.ActiveDeadlines("U1")) != 0 {
		t.Fatal("bare mention created a deadline")
	}

	out = f.bot.Handle(ctx, models.InboundEvent{UserID: "U1", Text: "<@UBOT|hardcheck> finished the quarterly report", ChannelID: "C1", Timestamp: "2", Mention: true})
	if !out.Responded || out.Deadline == nil {
		t.Fatalf("mention with content: %+v", out)
	}
}

func TestBroadcast(t *testing.T) {
	f := newFixture(t, john, alan, niki, ghost)
	ctx := context.Background()
	// Alan has an overdue deadline.
	if _, err := f.mgr.AddDeadline(ctx, alan.user(), "Fix the calendar", "2026-03-08", models.TypeEfficiency); err != nil {
		t.Fatal(err)
	}
	f.sender.failOn["U1"] = 1

	res := f.bot.Broadcast(ctx)
	if !res.At.Equal(fixtureNow) || !f.bot.LastBroadcast().Equal(fixtureNow) {
		t.Fatalf("broadcast time: %v / %v", res.At, f.bot.LastBroadcast())
	}
	// John fails, Alan gets the reminder, Niki only checks in Mondays, Ghost is inactive.
	if res.Sent != 1 || res.Reminders != 1 || res.Skipped != 1 || res.Failed != 1 {
		t.Fatalf("result: %+v", res)
	}
	msgs := f.sender.all()
	if len(msgs) != 1 || msgs[0].channel != "U2" || !strings.Contains(msgs[0].text, "DEADLINE ALERT") {
		t.Fatalf("sent: %+v", msgs)
	}
	if d := f.mgr.ActiveDeadlines("U2")[0]; d.Reminded || d.ReminderCount != 0 {
		t.Fatalf("broadcast marked deadline reminded: %+v", d)
	}
}

func TestBroadcast_checkInPrompt(t *testing.T) {
	f := newFixture(t, john)
	f.bot.Broadcast(context.Background())
	msgs := f.sender.all()
	if len(msgs) != 1 || msgs[0].text != CheckInMessage("John") || msgs[0].thread != "" {
		t.Fatalf("sent: %+v", msgs)
	}
}

func TestBroadcast_survivesCallerCancel(t *testing.T) {
	f := newFixture(t, john, alan)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sender.afterSend = cancel

	res := f.bot.Broadcast(ctx)
	if res.Sent != 2 || res.Failed != 0 {
		t.Fatalf("result: %+v", res)
	}
	msgs := f.sender.all()
	if len(msgs) != 2 || msgs[0].channel != "U1" || msgs[1].channel != "U2" {
		t.Fatalf("sent: %+v", msgs)
	}
	for _, m := range msgs {
		if m.ctxErr != nil {
			t.Errorf("send to %s saw cancelled context: %v", m.channel, m.ctxErr)
		}
	}
}

func TestReminderSweep_survivesCallerCancel(t *testing.T) {
	f := newFixture(t, john, alan)
	bg := context.Background()
	_, _ = f.mgr.AddDeadline(bg, john.user(), "one", "2026-03-01", "")
	_, _ = f.mgr.AddDeadline(bg, alan.user(), "two", "2026-03-05", "")
	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	f.sender.afterSend = cancel

	res := f.bot.ReminderSweep(ctx)
	if res.Users != 2 || res.Sent != 2 || res.Marked != 2 || res.Failed != 0 {
		t.Fatalf("result: %+v", res)
	}
	for _, m := range f.sender.all() {
		if m.ctxErr != nil {
			t.Errorf("send to %s saw cancelled context: %v", m.channel, m.ctxErr)
		}
	}
}

func TestReminderSweep_marksAfterSuccess(t *testing.T) {
	f := newFixture(t, john, alan)
	ctx := context.Background()
	a, _ := f.mgr.AddDeadline(ctx, john.user(), "one", "2026-03-01", "")
	b, _ := f.mgr.AddDeadline(ctx, john.user(), "two", "2026-03-09", "")
	c, _ := f.mgr.AddDeadline(ctx, alan.user(), "three", "2026-03-05", "")
	_, _ = f.mgr.AddDeadline(ctx, alan.user(), "future", "2026-03-20", "")
	f.sender.failOn["U2"] = 1

	res := f.bot.ReminderSweep(ctx)
	if res.Users != 2 || res.Sent != 1 || res.Failed != 1 || res.Marked != 2 {
		t.Fatalf("result: %+v", res)
	}
	for _, d := range f.mgr.ActiveDeadlines("U1") {
		if (d.ID == a.ID || d.ID == b.ID) && (!d.Reminded || d.ReminderCount != 1) {
			t.Fatalf("john's deadline not marked: %+v", d)
		}
	}
	for _, d := range f.mgr.ActiveDeadlines("U2") {
		if d.ID == c.ID && d.Reminded {
			t.Fatal("failed send still marked the deadline reminded")
		}
	}
	msg := f.sender.all()[0]
	if msg.channel != "U1" || !strings.Contains(msg.text, "You have 2 overdue deadlines") {
		t.Fatalf("reminder: %+v", msg)
	}
}

type recNotifier struct{ msgs []string }

func (r *recNotifier) Name() string { return "rec" }
func (r *recNotifier) Notify(ctx context.Context, m string) error {
	r.msgs = append(r.msgs, m)
	return nil
}

func TestCleanupAndNotifier(t *testing.T) {
	f := newFixture(t, john)
	rec := &recNotifier{}
	reg := notify.NewRegistry()
	reg.Register(rec)
	f.bot.notifier = reg
	ctx := context.Background()

	d, _ := f.mgr.AddDeadline(ctx, john.user(), "old", "2026-01-01", "")
	f.mgr.CompleteDeadline(ctx, "U1", d.ID)
	f.now = fixtureNow.Add(40 * 24 * time.Hour)
	if n := f.bot.Cleanup(ctx); n != 1 {
		t.Fatalf("Cleanup: got %d, want 1", n)
	}
	f.bot.Broadcast(ctx)
	if len(rec.msgs) != 1 || !strings.HasPrefix(rec.msgs[0], "hardcheck check-in:") {
		t.Fatalf("notifier: %v", rec.msgs)
	}
	var sawCleanup bool
	for _, ev := range f.pub.events {
		if ev["type"] == models.EventCleanup && ev["removed"] == 1 {
			sawCleanup = true
		}
	}
	if !sawCleanup {
		t.Fatalf("cleanup event missing: %+v", f.pub.events)
	}
}

func TestRoster(t *testing.T) {
	r := NewRoster([]Member{john, {ID: ""}, {ID: "U1", Name: "Johnny", Role: "CEO", Active: true}, ghost})
	if len(r.Members()) != 2 {
		t.Fatalf("Members: %+v", r.Members())
	}
	m, ok := r.Lookup("U1")
	if !ok || m.Name != "Johnny" {
		t.Fatalf("Lookup replaced member: %+v", m)
	}
	if len(r.Active()) != 1 {
		t.Fatalf("Active: %+v", r.Active())
	}
	days, err := ParseWeekdays([]string{"Monday", "wed", " friday "})
	if err != nil || len(days) != 3 || days[1] != time.Wednesday {
		t.Fatalf("ParseWeekdays: %v %v", days, err)
	}
	if _, err := ParseWeekdays([]string{"someday"}); err == nil {
		t.Fatal("ParseWeekdays invalid: expected error")
	}
	if names := WeekdayNames(days); names[0] != "monday" || names[2] != "friday" {
		t.Fatalf("WeekdayNames: %v", names)
	}
	if !(Member{}).ChecksInOn(time.Friday) || (Member{}).ChecksInOn(time.Saturday) {
		t.Fatal("default check-in days should be Monday to Friday")
	}
}
