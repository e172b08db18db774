// Package deadline owns the per-user deadline snapshot: creation, reminders, completion, and
// expiry of completed history. Every mutation is serialized and written through to the store.
package deadline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ankittk/hardcheck/internal/store"
	"github.com/ankittk/hardcheck/pkg/models"
	"github.com/google/uuid"
)

var (
	ErrDuplicateDeadline = errors.New("an active deadline with the same task and due date already exists")
	ErrInvalidDeadline   = errors.New("invalid deadline")
)

// Options configures the manager's clock and calendar.
type Options struct {
	Location *time.Location   // zone used for "today"; default America/New_York, UTC if unavailable
	Now      func() time.Time // default time.Now
}

// Manager is the single owner of the deadline store.
type Manager struct {
	mu    sync.Mutex
	store store.SnapshotStore
	snap  models.Snapshot
	loc   *time.Location
	now   func() time.Time
}

// Open loads the snapshot from st and returns a manager over it.
func Open(ctx context.Context, st store.SnapshotStore, opts Options) (*Manager, error) {
	if st == nil {
		return nil, errors.New("deadline store is required")
	}
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = models.Snapshot{}
	}
	loc := opts.Location
	if loc == nil {
		loc = DefaultLocation()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{store: st, snap: snap, loc: loc, now: now}, nil
}

// DefaultLocation is America/New_York, or UTC when the zone database is missing.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Location returns the zone used for calendar dates.
func (m *Manager) Location() *time.Location { return m.loc }

// Today returns the current calendar date in the manager's zone.
func (m *Manager) Today() string {
	return m.now().In(m.loc).Format(models.DateLayout)
}

// AddDeadline appends a new active deadline for user. It returns ErrInvalidDeadline for an empty
// task or malformed date, and ErrDuplicateDeadline when the same (task, dueDate) is already active.
func (m *Manager) AddDeadline(ctx context.Context, user models.User, task, dueDate, typ string) (models.Deadline, error) {
	task = strings.TrimSpace(task)
	dueDate = strings.TrimSpace(dueDate)
	if user.ID == "" || task == "" {
		return models.Deadline{}, ErrInvalidDeadline
	}
	if _, err := time.Parse(models.DateLayout, dueDate); err != nil {
		return models.Deadline{}, ErrInvalidDeadline
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.snap[user.ID]
	if rec != nil {
		for _, d := range rec.ActiveDeadlines {
			if d.Task == task && d.DueDate == dueDate {
				return models.Deadline{}, ErrDuplicateDeadline
			}
		}
	} else {
		rec = &models.UserRecord{
			Name:               user.Name,
			Role:               user.Role,
			ActiveDeadlines:    []models.Deadline{},
			CompletedDeadlines: []models.Deadline{},
		}
		m.snap[user.ID] = rec
	}

	d := models.Deadline{
		ID:        uuid.New().String(),
		Task:      task,
		DueDate:   dueDate,
		Type:      typ,
		CreatedAt: m.now(),
	}
	rec.ActiveDeadlines = append(rec.ActiveDeadlines, d)
	m.persist(ctx)
	slog.Info("deadline added", "user", user.ID, "deadline_id", d.ID, "due", dueDate, "type", typ)
	return d, nil
}

// CompleteDeadline moves an active deadline to the completed list. False when user or id is unknown.
func (m *Manager) CompleteDeadline(ctx context.Context, userID, deadlineID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.snap[userID]
	if rec == nil {
		return false
	}
	i := indexOf(rec.ActiveDeadlines, deadlineID)
	if i < 0 {
		return false
	}
	d := rec.ActiveDeadlines[i]
	now := m.now()
	d.Completed = true
	d.CompletedAt = &now
	rec.ActiveDeadlines = append(rec.ActiveDeadlines[:i:i], rec.ActiveDeadlines[i+1:]...)
	rec.CompletedDeadlines = append(rec.CompletedDeadlines, d)
	m.persist(ctx)
	slog.Info("deadline completed", "user", userID, "deadline_id", deadlineID)
	return true
}

// MarkAsReminded records a reminder on an active deadline. False when user or id is unknown.
func (m *Manager) MarkAsReminded(ctx context.Context, userID, deadlineID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.snap[userID]
	if rec == nil {
		return false
	}
	i := indexOf(rec.ActiveDeadlines, deadlineID)
	if i < 0 {
		return false
	}
	now := m.now()
	d := &rec.ActiveDeadlines[i]
	d.Reminded = true
	d.ReminderCount++
	d.LastReminderAt = &now
	m.persist(ctx)
	return true
}

// ActiveDeadlines returns a copy of the user's active deadlines in creation order.
func (m *Manager) ActiveDeadlines(userID string) []models.Deadline {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.snap[userID]
	if rec == nil {
		return []models.Deadline{}
	}
	return append([]models.Deadline{}, rec.ActiveDeadlines...)
}

// OverdueDeadlines returns active deadlines due strictly before today.
func (m *Manager) OverdueDeadlines(userID string) []models.Deadline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterActive(userID, func(due, today string) bool { return due < today })
}

// DeadlinesDueToday returns active deadlines due today.
func (m *Manager) DeadlinesDueToday(userID string) []models.Deadline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterActive(userID, func(due, today string) bool { return due == today })
}

// AllOverdueDeadlines maps user id to overdue deadlines, for users with at least one.
func (m *Manager) AllOverdueDeadlines() map[string][]models.Deadline {
	out := make(map[string][]models.Deadline)
	for _, u := range m.AllOverdue() {
		out[u.UserID] = u.Deadlines
	}
	return out
}

// AllOverdue is AllOverdueDeadlines with display metadata, ordered by user id.
func (m *Manager) AllOverdue() []models.OverdueUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OverdueUser
	for _, id := range m.userIDs() {
		overdue := m.filterActive(id, func(due, today string) bool { return due < today })
		if len(overdue) == 0 {
			continue
		}
		rec := m.snap[id]
		out = append(out, models.OverdueUser{UserID: id, Name: rec.Name, Role: rec.Role, Deadlines: overdue})
	}
	return out
}

// CleanupOldDeadlines drops completed deadlines whose completion date is more than retentionDays
// before today. retentionDays <= 0 uses the default of 30. Returns the number dropped.
func (m *Manager) CleanupOldDeadlines(ctx context.Context, retentionDays int) int {
	if retentionDays <= 0 {
		retentionDays = models.DefaultRetentionDays
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.dateOffset(-retentionDays)
	cleaned := 0
	for _, rec := range m.snap {
		kept := rec.CompletedDeadlines[:0]
		for _, d := range rec.CompletedDeadlines {
			if d.CompletedAt != nil && d.CompletedAt.In(m.loc).Format(models.DateLayout) < cutoff {
				cleaned++
				continue
			}
			kept = append(kept, d)
		}
		rec.CompletedDeadlines = kept
	}
	if cleaned > 0 {
		m.persist(ctx)
		slog.Info("cleaned up old completed deadlines", "count", cleaned, "cutoff", cutoff)
	}
	return cleaned
}

// Stats returns counts and the completion rate for a user; ok is false for unknown users.
func (m *Manager) Stats(userID string) (models.Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.snap[userID]
	if rec == nil {
		return models.Stats{}, false
	}
	overdue := len(m.filterActive(userID, func(due, today string) bool { return due < today }))
	st := models.Stats{
		Active:    len(rec.ActiveDeadlines),
		Completed: len(rec.CompletedDeadlines),
		Overdue:   overdue,
	}
	st.CompletionRate = completionRate(st.Completed, st.Overdue)
	return st, true
}

func completionRate(completed, overdue int) int {
	total := completed + overdue
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Totals counts deadlines across all users; overdue deadlines are also counted as active.
func (m *Manager) Totals() (active, overdue, completed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	today := m.now().In(m.loc).Format(models.DateLayout)
	for _, rec := range m.snap {
		active += int64(len(rec.ActiveDeadlines))
		completed += int64(len(rec.CompletedDeadlines))
		for _, d := range rec.ActiveDeadlines {
			if d.DueDate < today {
				overdue++
			}
		}
	}
	return active, overdue, completed
}

// Users returns the ids of users that have a record, sorted.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userIDs()
}

// Record returns a copy of the user's record.
func (m *Manager) Record(userID string) (*models.UserRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.snap[userID]
	if rec == nil {
		return nil, false
	}
	return rec.Clone(), true
}

func (m *Manager) userIDs() []string {
	ids := make([]string, 0, len(m.snap))
	for id := range m.snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// filterActive must be called with m.mu held.
func (m *Manager) filterActive(userID string, keep func(due, today string) bool) []models.Deadline {
	rec := m.snap[userID]
	if rec == nil {
		return []models.Deadline{}
	}
	today := m.now().In(m.loc).Format(models.DateLayout)
	out := []models.Deadline{}
	for _, d := range rec.ActiveDeadlines {
		if keep(d.DueDate, today) {
			out = append(out, d)
		}
	}
	return out
}

// dateOffset returns today plus days as YYYY-MM-DD.
func (m *Manager) dateOffset(days int) string {
	t := m.now().In(m.loc)
	return time.Date(t.Year(), t.Month(), t.Day()+days, 0, 0, 0, 0, m.loc).Format(models.DateLayout)
}

// persist writes the snapshot; must be called with m.mu held. Failures are logged and the
// in-memory change is kept.
func (m *Manager) persist(ctx context.Context) {
	if err := m.store.Save(ctx, m.snap); err != nil {
		slog.Error("deadline store save failed", "err", err)
	}
}

func indexOf(ds []models.Deadline, id string) int {
	for i, d := range ds {
		if d.ID == id {
			return i
		}
	}
	return -1
}
