package deadline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ankittk/hardcheck/internal/store"
	"github.com/ankittk/hardcheck/pkg/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var john = models.User{ID: "U1", Name: "John", Role: "Founder/CEO"}

func testManager(t *testing.T) (*Manager, *fakeClock, *store.MemoryStore) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore(nil)
	m, err := Open(context.Background(), st, Options{Location: time.UTC, Now: clock.Now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m, clock, st
}

func TestOpen_requiresStore(t *testing.T) {
	if _, err := Open(context.Background(), nil, Options{}); err == nil {
		t.Fatal("Open nil store: expected error")
	}
}

func TestAddDeadline_duplicatePrevention(t *testing.T) {
	t.Parallel()
	m, _, st := testManager(t)
	ctx := context.Background()

	d, err := m.AddDeadline(ctx, john, "Ship it", "2026-03-12", models.TypeStrategic)
	if err != nil {
		t.Fatalf("AddDeadline: %v", err)
	}
	if d.ID == "" || d.Completed || d.ReminderCount != 0 {
		t.Fatalf("AddDeadline: got %+v", d)
	}
	_, err = m.AddDeadline(ctx, john, "Ship it", "2026-03-12", models.TypeStrategic)
	if !errors.Is(err, ErrDuplicateDeadline) {
		t.Fatalf("second AddDeadline: got %v, want ErrDuplicateDeadline", err)
	}
	if got := m.ActiveDeadlines("U1"); len(got) != 1 {
		t.Fatalf("ActiveDeadlines: got %d, want 1", len(got))
	}
	if st.Saves() != 1 {
		t.Fatalf("rejected add persisted: saves=%d", st.Saves())
	}

	// Same task with another date is a different deadline.
	if _, err := m.AddDeadline(ctx, john, "Ship it", "2026-03-13", ""); err != nil {
		t.Fatalf("AddDeadline other date: %v", err)
	}
	// After completion the pair may be reused.
	if !m.CompleteDeadline(ctx, "U1", d.ID) {
		t.Fatal("CompleteDeadline: false")
	}
	if _, err := m.AddDeadline(ctx, john, "Ship it", "2026-03-12", ""); err != nil {
		t.Fatalf("AddDeadline after complete: %v", err)
	}
}

func TestAddDeadline_validation(t *testing.T) {
	t.Parallel()
	m, _, st := testManager(t)
	ctx := context.Background()
	cases := []struct {
		name string
		user models.User
		task string
		due  string
	}{
		{"empty task", john, "   ", "2026-03-12"},
		{"bad date", john, "task", "03/12/2026"},
		{"impossible date", john, "task", "2026-02-30"},
		{"no user", models.User{}, "task", "2026-03-12"},
	}
	for _, tc := range cases {
		if _, err := m.AddDeadline(ctx, tc.user, tc.task, tc.due, ""); !errors.Is(err, ErrInvalidDeadline) {
			t.Errorf("%s: got %v, want ErrInvalidDeadline", tc.name, err)
		}
	}
	if st.Saves() != 0 {
		t.Fatalf("invalid adds persisted: saves=%d", st.Saves())
	}
}

func TestAddDeadline_copiesMetadataOnce(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	ctx := context.Background()
	_, _ = m.AddDeadline(ctx, john, "a", "2026-03-12", "")
	_, _ = m.AddDeadline(ctx, models.User{ID: "U1", Name: "Renamed", Role: "Intern"}, "b", "2026-03-12", "")
	rec, ok := m.Record("U1")
	if !ok {
		t.Fatal("Record: not found")
	}
	if rec.Name != "John" || rec.Role != "Founder/CEO" {
		t.Fatalf("metadata: got %q/%q", rec.Name, rec.Role)
	}
	if len(rec.ActiveDeadlines) != 2 || rec.ActiveDeadlines[0].Task != "a" || rec.ActiveDeadlines[1].Task != "b" {
		t.Fatalf("insertion order: got %+v", rec.ActiveDeadlines)
	}
}

func TestCompleteDeadline_lifecycleExclusivity(t *testing.T) {
	t.Parallel()
	m, clock, _ := testManager(t)
	ctx := context.Background()
	d, _ := m.AddDeadline(ctx, john, "task", "2026-03-11", "")
	other, _ := m.AddDeadline(ctx, john, "other", "2026-03-11", "")

	if m.CompleteDeadline(ctx, "nobody", d.ID) {
		t.Fatal("CompleteDeadline unknown user: true")
	}
	if m.CompleteDeadline(ctx, "U1", "missing") {
		t.Fatal("CompleteDeadline unknown id: true")
	}

	clock.Advance(time.Hour)
	if !m.CompleteDeadline(ctx, "U1", d.ID) {
		t.Fatal("CompleteDeadline: false")
	}
	if m.CompleteDeadline(ctx, "U1", d.ID) {
		t.Fatal("CompleteDeadline twice: true")
	}

	rec, _ := m.Record("U1")
	for _, a := range rec.ActiveDeadlines {
		if a.ID == d.ID {
			t.Fatal("completed deadline still active")
		}
	}
	if len(rec.ActiveDeadlines) != 1 || rec.ActiveDeadlines[0].ID != other.ID {
		t.Fatalf("active after complete: got %+v", rec.ActiveDeadlines)
	}
	n := 0
	for _, c := range rec.CompletedDeadlines {
		if c.ID == d.ID {
			n++
			if !c.Completed || c.CompletedAt == nil || !c.CompletedAt.Equal(clock.Now()) {
				t.Fatalf("completed stamp: got %+v", c)
			}
		}
	}
	if n != 1 {
		t.Fatalf("completed occurrences: got %d, want 1", n)
	}
}

func TestMarkAsReminded(t *testing.T) {
	t.Parallel()
	m, clock, _ := testManager(t)
	ctx := context.Background()
	d, _ := m.AddDeadline(ctx, john, "task", "2026-03-01", "")

	if m.MarkAsReminded(ctx, "U1", "missing") || m.MarkAsReminded(ctx, "U9", d.ID) {
		t.Fatal("MarkAsReminded unknown: true")
	}
	if !m.MarkAsReminded(ctx, "U1", d.ID) {
		t.Fatal("MarkAsReminded: false")
	}
	clock.Advance(24 * time.Hour)
	if !m.MarkAsReminded(ctx, "U1", d.ID) {
		t.Fatal("MarkAsReminded second: false")
	}
	got := m.ActiveDeadlines("U1")[0]
	if !got.Reminded || got.ReminderCount != 2 || got.LastReminderAt == nil || !got.LastReminderAt.Equal(clock.Now()) {
		t.Fatalf("reminder fields: got %+v", got)
	}
}

func TestOverdueDerivation(t *testing.T) {
	t.Parallel()
	m, clock, _ := testManager(t)
	ctx := context.Background()
	past, _ := m.AddDeadline(ctx, john, "past", "2026-03-09", "")
	today, _ := m.AddDeadline(ctx, john, "today", "2026-03-10", "")
	_, _ = m.AddDeadline(ctx, john, "future", "2026-03-11", "")

	overdue := m.OverdueDeadlines("U1")
	if len(overdue) != 1 || overdue[0].ID != past.ID {
		t.Fatalf("OverdueDeadlines: got %+v", overdue)
	}
	due := m.DeadlinesDueToday("U1")
	if len(due) != 1 || due[0].ID != today.ID {
		t.Fatalf("DeadlinesDueToday: got %+v", due)
	}

	clock.Advance(24 * time.Hour)
	if got := m.OverdueDeadlines("U1"); len(got) != 2 {
		t.Fatalf("OverdueDeadlines next day: got %d, want 2", len(got))
	}
	if got := m.OverdueDeadlines("nobody"); got == nil || len(got) != 0 {
		t.Fatalf("OverdueDeadlines unknown: got %v", got)
	}
}

func TestOverdue_usesConfiguredZone(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("EST", -5*3600)
	// 02:00 UTC on the 11th is still the 10th in EST.
	clock := &fakeClock{t: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)}
	m, err := Open(context.Background(), store.NewMemoryStore(nil), Options{Location: loc, Now: clock.Now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, _ = m.AddDeadline(context.Background(), john, "task", "2026-03-10", "")
	if m.Today() != "2026-03-10" {
		t.Fatalf("Today: got %s", m.Today())
	}
	if got := m.OverdueDeadlines("U1"); len(got) != 0 {
		t.Fatalf("deadline due today in zone reported overdue: %+v", got)
	}
}

func TestAllOverdueDeadlines(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	ctx := context.Background()
	_, _ = m.AddDeadline(ctx, john, "late", "2026-03-01", "")
	_, _ = m.AddDeadline(ctx, models.User{ID: "U2", Name: "Niki", Role: "Social Media"}, "fine", "2026-03-20", "")
	_, _ = m.AddDeadline(ctx, models.User{ID: "U3", Name: "Alan", Role: "Executive Assistant"}, "late too", "2026-03-09", "")

	all := m.AllOverdueDeadlines()
	if len(all) != 2 || len(all["U1"]) != 1 || len(all["U3"]) != 1 {
		t.Fatalf("AllOverdueDeadlines: got %+v", all)
	}
	if _, ok := all["U2"]; ok {
		t.Fatal("user without overdue deadlines included")
	}
	users := m.AllOverdue()
	if len(users) != 2 || users[0].UserID != "U1" || users[0].Name != "John" || users[1].UserID != "U3" {
		t.Fatalf("AllOverdue: got %+v", users)
	}
}

func TestCleanupOldDeadlines_retention(t *testing.T) {
	t.Parallel()
	m, clock, st := testManager(t)
	ctx := context.Background()
	old, _ := m.AddDeadline(ctx, john, "old", "2026-02-01", "")
	recent, _ := m.AddDeadline(ctx, john, "recent", "2026-02-01", "")
	m.CompleteDeadline(ctx, "U1", old.ID)
	clock.Advance(2 * 24 * time.Hour)
	m.CompleteDeadline(ctx, "U1", recent.ID)

	// old completed 31 days ago, recent 29 days ago.
	clock.Advance(29 * 24 * time.Hour)
	saves := st.Saves()
	if n := m.CleanupOldDeadlines(ctx, 30); n != 1 {
		t.Fatalf("CleanupOldDeadlines: got %d, want 1", n)
	}
	if st.Saves() != saves+1 {
		t.Fatalf("cleanup saves: got %d, want %d", st.Saves(), saves+1)
	}
	rec, _ := m.Record("U1")
	if len(rec.CompletedDeadlines) != 1 || rec.CompletedDeadlines[0].ID != recent.ID {
		t.Fatalf("retained: got %+v", rec.CompletedDeadlines)
	}

	saves = st.Saves()
	if n := m.CleanupOldDeadlines(ctx, 0); n != 0 {
		t.Fatalf("second cleanup: got %d, want 0", n)
	}
	if st.Saves() != saves {
		t.Fatal("cleanup with nothing to drop persisted")
	}
}

func TestStats_completionRate(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	ctx := context.Background()

	if _, ok := m.Stats("U1"); ok {
		t.Fatal("Stats unknown user: ok")
	}

	_, _ = m.AddDeadline(ctx, john, "future", "2026-04-01", "")
	st, ok := m.Stats("U1")
	if !ok || st.CompletionRate != 0 || st.Active != 1 || st.Overdue != 0 {
		t.Fatalf("Stats 0/0: got %+v", st)
	}

	for _, task := range []string{"a", "b", "c"} {
		d, _ := m.AddDeadline(ctx, john, task, "2026-03-01", "")
		m.CompleteDeadline(ctx, "U1", d.ID)
	}
	_, _ = m.AddDeadline(ctx, john, "late", "2026-03-01", "")
	st, _ = m.Stats("U1")
	if st.Completed != 3 || st.Overdue != 1 || st.CompletionRate != 75 || st.Active != 2 {
		t.Fatalf("Stats 3/1: got %+v", st)
	}
}

func TestCompletionRate_rounding(t *testing.T) {
	t.Parallel()
	cases := []struct{ completed, overdue, want int }{
		{0, 0, 0},
		{0, 3, 0},
		{1, 2, 33},
		{2, 1, 67},
		{1, 0, 100},
	}
	for _, tc := range cases {
		if got := completionRate(tc.completed, tc.overdue); got != tc.want {
			t.Errorf("completionRate(%d,%d): got %d, want %d", tc.completed, tc.overdue, got, tc.want)
		}
	}
}

type failingStore struct{ store.MemoryStore }

func (f *failingStore) Save(ctx context.Context, snap models.Snapshot) error {
	return errors.New("disk full")
}

func TestPersistFailure_keepsMutation(t *testing.T) {
	t.Parallel()
	m, err := Open(context.Background(), &failingStore{}, Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d, err := m.AddDeadline(context.Background(), john, "task", "2099-01-01", "")
	if err != nil {
		t.Fatalf("AddDeadline with failing store: %v", err)
	}
	if got := m.ActiveDeadlines("U1"); len(got) != 1 || got[0].ID != d.ID {
		t.Fatalf("mutation lost: %+v", got)
	}
}

func TestOpen_reloadsFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "user-deadlines.json")
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	m, err := Open(context.Background(), store.NewFileStore(path), Options{Location: time.UTC, Now: clock.Now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d, _ := m.AddDeadline(context.Background(), john, "persist me", "2026-03-11", models.TypeStrategic)

	m2, err := Open(context.Background(), store.NewFileStore(path), Options{Location: time.UTC, Now: clock.Now})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := m2.ActiveDeadlines("U1")
	if len(got) != 1 || got[0].ID != d.ID || got[0].Type != models.TypeStrategic {
		t.Fatalf("reloaded: got %+v", got)
	}
}

func TestActiveDeadlines_defensiveCopy(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	_, _ = m.AddDeadline(context.Background(), john, "task", "2026-03-11", "")
	got := m.ActiveDeadlines("U1")
	got[0].Task = "changed"
	if m.ActiveDeadlines("U1")[0].Task != "task" {
		t.Fatal("ActiveDeadlines returned shared storage")
	}
}

func TestConcurrentAdds_serialized(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.AddDeadline(ctx, john, "same", "2026-03-12", "")
		}()
	}
	wg.Wait()
	if got := m.ActiveDeadlines("U1"); len(got) != 1 {
		t.Fatalf("concurrent duplicate adds: got %d active", len(got))
	}
}

func TestTotals(t *testing.T) {
	t.Parallel()
	m, _, _ := testManager(t)
	ctx := context.Background()
	marnie := models.User{ID: "U2", Name: "Marnie", Role: "Executive Assistant"}

	_, _ = m.AddDeadline(ctx, john, "late", "2026-03-01", "")
	_, _ = m.AddDeadline(ctx, john, "today", "2026-03-10", "")
	d, _ := m.AddDeadline(ctx, marnie, "done", "2026-03-11", "")
	m.CompleteDeadline(ctx, "U2", d.ID)

	active, overdue, completed := m.Totals()
	if active != 2 || overdue != 1 || completed != 1 {
		t.Fatalf("Totals: got %d/%d/%d, want 2/1/1", active, overdue, completed)
	}
}
