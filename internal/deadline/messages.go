package deadline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ankittk/hardcheck/pkg/models"
)

// ReminderMessage lists overdue deadlines with days overdue relative to today (YYYY-MM-DD).
func ReminderMessage(name string, overdue []models.Deadline, today string) string {
	var b strings.Builder
	count := len(overdue)
	fmt.Fprintf(&b, "🚨 **%s** - DEADLINE ALERT!\n\n", name)
	fmt.Fprintf(&b, "You have %d overdue deadline%s:\n\n", count, plural(count))
	for i, d := range overdue {
		days := DaysBetween(d.DueDate, today)
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, d.Task)
		fmt.Fprintf(&b, "   Due: %s (%d day%s overdue)\n\n", d.DueDate, days, plural(days))
	}
	b.WriteString("**What's your excuse?** Reply with your progress update RIGHT NOW!\n\n")
	b.WriteString("*The accountability mirror doesn't lie! You can't hurt me, but you can hurt yourself by not following through! 🔥*")
	return b.String()
}

// ReminderMessage is the package function evaluated against the manager's today.
func (m *Manager) ReminderMessage(name string, overdue []models.Deadline) string {
	return ReminderMessage(name, overdue, m.Today())
}

// InclusionMessage is appended to a reply that created a new deadline.
func InclusionMessage(d models.Deadline) string {
	return fmt.Sprintf("\n\n⏰ **YOUR NEW DEADLINE - NO EXCUSES:**\n**%s** - Due: %s\n\n*I'll be checking on your progress! Stay hard! 🔥*", d.Task, d.DueDate)
}

// DaysBetween returns whole calendar days from one YYYY-MM-DD date to another; 0 on parse errors.
func DaysBetween(from, to string) int {
	a, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
