package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/ankittk/hardcheck/pkg/models"
)

// Member is a configured user.
type Member struct {
	ID          string
	Name        string
	Role        string
	Active      bool
	CheckInDays []time.Weekday // empty means Monday to Friday
	Goals       []string
}

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// ChecksInOn reports whether the member receives the broadcast on day.
func (m Member) ChecksInOn(day time.Weekday) bool {
	days := m.CheckInDays
	if len(days) == 0 {
		days = weekdays
	}
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// Roster is the fixed set of configured users, in configuration order. Read-only after construction.
type Roster struct {
	members []Member
	byID    map[string]int
}

func NewRoster(members []Member) *Roster {
	r := &Roster{byID: make(map[string]int, len(members))}
	for _, m := range members {
		if m.ID == "" {
			continue
		}
		if i, ok := r.byID[m.ID]; ok {
			r.members[i] = m
			continue
		}
		r.byID[m.ID] = len(r.members)
		r.members = append(r.members, m)
	}
	return r
}

// Lookup returns the member for id. Unknown ids get the default name and role with ok=false.
func (r *Roster) Lookup(id string) (Member, bool) {
	if r != nil {
		if i, ok := r.byID[id]; ok {
			m := r.members[i]
			if m.Name == "" {
				m.Name = models.DefaultUserName
			}
			if m.Role == "" {
				m.Role = models.DefaultUserRole
			}
			return m, true
		}
	}
	return Member{ID: id, Name: models.DefaultUserName, Role: models.DefaultUserRole}, false
}

// Members returns every configured member.
func (r *Roster) Members() []Member {
	if r == nil {
		return nil
	}
	return append([]Member(nil), r.members...)
}

// Active returns members with Active set.
func (r *Roster) Active() []Member {
	var out []Member
	for _, m := range r.Members() {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// ParseWeekdays converts names like "monday" or "mon" to weekdays.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if key == full || key == full[:3] {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return out, nil
}

// WeekdayNames is the inverse of ParseWeekdays, lowercase full names.
func WeekdayNames(days []time.Weekday) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, strings.ToLower(d.String()))
	}
	return out
}

func (m Member) user() models.User {
	return models.User{ID: m.ID, Name: m.Name, Role: m.Role}
}
