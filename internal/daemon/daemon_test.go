package daemon

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/store"
	"github.com/ankittk/hardcheck/pkg/models"
)

type countingSender struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (s *countingSender) Send(ctx context.Context, channel, text, threadTS string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to = append(s.to, channel)
	return s.err
}

func (s *countingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.to...)
}

func TestStartForeground_emptyHome(t *testing.T) {
	ctx := context.Background()
	err := StartForeground(ctx, StartOptions{Home: ""})
	if err == nil {
		t.Fatal("StartForeground empty home: expected error")
	}
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Users = []config.User{
		{ID: "U1", Name: "John", Role: "Founder/CEO", Active: true},
		{ID: "U2", Name: "Marnie", Role: "Executive Assistant", Active: true, CheckInDays: []string{"monday"}},
		{ID: "U3", Name: "Sam", Role: "Social Media Manager", Active: false},
	}
	return cfg
}

func testRuntime(t *testing.T, cfg config.Config, now func() time.Time) (*Runtime, *countingSender) {
	t.Helper()
	sender := &countingSender{}
	rt, err := Build(context.Background(), t.TempDir(), cfg, BuildOptions{
		Sender: sender,
		Store:  store.NewMemoryStore(nil),
		Now:    now,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt, sender
}

func TestBuild_registersJobs(t *testing.T) {
	rt, _ := testRuntime(t, testConfig(), time.Now)
	want := []string{models.EventBroadcast, models.EventCleanup, models.EventReminderSweep}
	if got := rt.Scheduler.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names: got %v, want %v", got, want)
	}
	if len(rt.Bot.Roster().Members()) != 3 || len(rt.Bot.Roster().Active()) != 2 {
		t.Fatalf("roster: got %+v", rt.Bot.Roster().Members())
	}
	if rt.Bot.Classifier().Name() != "lightweight" {
		t.Fatalf("classifier: got %q", rt.Bot.Classifier().Name())
	}
	if len(rt.Notifier.Names()) != 0 {
		t.Fatalf("notifiers without webhook: got %v", rt.Notifier.Names())
	}
}

func TestBuild_disabledJobAndWebhook(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Cleanup = ""
	cfg.Secrets.SlackWebhookURL = "https://hooks.example.invalid/T000"
	rt, _ := testRuntime(t, cfg, time.Now)
	if got := rt.Scheduler.Names(); len(got) != 2 {
		t.Fatalf("Names: got %v", got)
	}
	if got := rt.Notifier.Names(); len(got) != 1 || got[0] != "slack" {
		t.Fatalf("notifiers: got %v", got)
	}
}

func TestBuild_invalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Reminders = "every day"
	_, err := Build(context.Background(), t.TempDir(), cfg, BuildOptions{Sender: &countingSender{}, Store: store.NewMemoryStore(nil)})
	if err == nil {
		t.Fatal("Build with bad cron: expected error")
	}
}

func TestScheduledBroadcast_newYorkTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone data: %v", err)
	}
	// Tuesday 2026-03-10, shortly before the 16:30 broadcast.
	var mu sync.Mutex
	clock := time.Date(2026, 3, 10, 16, 0, 0, 0, ny)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	rt, sender := testRuntime(t, testConfig(), now)

	next, ok := rt.Scheduler.Next(models.EventBroadcast)
	if !ok || !next.Equal(time.Date(2026, 3, 10, 16, 30, 0, 0, ny)) {
		t.Fatalf("Next broadcast: got %v", next)
	}
	if ran := rt.Scheduler.Tick(context.Background(), now()); len(ran) != 0 {
		t.Fatalf("early tick ran %v", ran)
	}

	mu.Lock()
	clock = time.Date(2026, 3, 10, 16, 30, 5, 0, ny)
	mu.Unlock()
	ran := rt.Scheduler.Tick(context.Background(), now())
	if len(ran) != 1 || ran[0] != models.EventBroadcast {
		t.Fatalf("Tick: ran %v", ran)
	}
	// U2 checks in on Mondays only, U3 is inactive.
	if got := sender.recipients(); len(got) != 1 || got[0] != "U1" {
		t.Fatalf("recipients: got %v", got)
	}
	if rt.Bot.LastBroadcast().IsZero() {
		t.Fatal("broadcast time not recorded")
	}
}

func TestReminderJob_reportsFailures(t *testing.T) {
	rt, sender := testRuntime(t, testConfig(), time.Now)
	ctx := context.Background()
	if _, err := rt.Deadlines.AddDeadline(ctx, models.User{ID: "U1", Name: "John"}, "late", "2020-01-01", ""); err != nil {
		t.Fatalf("AddDeadline: %v", err)
	}
	sender.err = context.DeadlineExceeded
	if err := reminderJob(rt.Bot)(ctx); err == nil {
		t.Fatal("reminderJob with failing sender: expected error")
	}
	if rt.Deadlines.ActiveDeadlines("U1")[0].Reminded {
		t.Fatal("failed send marked the deadline reminded")
	}
	sender.err = nil
	if err := reminderJob(rt.Bot)(ctx); err != nil {
		t.Fatalf("reminderJob: %v", err)
	}
	if !rt.Deadlines.ActiveDeadlines("U1")[0].Reminded {
		t.Fatal("deadline not marked reminded")
	}
}

func TestTickInterval(t *testing.T) {
	cfg := config.Defaults()
	if got := tickInterval(StartOptions{}, cfg); got != cfg.TickInterval {
		t.Errorf("default: got %v", got)
	}
	if got := tickInterval(StartOptions{IntervalSec: 0.5}, cfg); got != 500*time.Millisecond {
		t.Errorf("flag: got %v", got)
	}
}

func TestDaemonArgs(t *testing.T) {
	got := daemonArgs(StartOptions{Home: "/h", Port: 3650, IntervalSec: 2, Dev: true, EnableOtel: true, EnvFile: "/h/.env"})
	want := []string{"daemon", "--home", "/h", "--port", "3650", "--interval", "2", "--dev", "--otel", "--env-file", "/h/.env"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("daemonArgs: got %v, want %v", got, want)
	}
}

func TestStatus(t *testing.T) {
	home := t.TempDir()
	ctx := context.Background()
	if st, _ := Status(ctx, home); st.Running {
		t.Fatal("Status without pid file: running")
	}
	if err := config.EnsureHome(home); err != nil {
		t.Fatalf("EnsureHome: %v", err)
	}

	_ = os.WriteFile(pidPath(home), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
	_ = os.WriteFile(addrPath(home), []byte("0.0.0.0:3650\n"), 0o644)
	st, err := Status(ctx, home)
	if err != nil || !st.Running || st.PID != os.Getpid() || st.Addr != "0.0.0.0:3650" {
		t.Fatalf("Status: got %+v, %v", st, err)
	}

	_ = os.WriteFile(pidPath(home), []byte("garbage"), 0o644)
	if st, _ := Status(ctx, home); st.Running {
		t.Fatal("Status with garbage pid: running")
	}
}

func TestStop_notRunning(t *testing.T) {
	stopped, err := Stop(context.Background(), t.TempDir())
	if err != nil || stopped {
		t.Fatalf("Stop: got %v, %v", stopped, err)
	}
}

func TestAcquireLock_exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protected", "daemon.lock")
	l1, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	if _, err := acquireLock(path); err == nil {
		t.Fatal("second acquireLock: expected error")
	}
	l1.release()
	l2, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquireLock after release: %v", err)
	}
	l2.release()
}
