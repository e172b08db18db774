package deadline

import (
	"strings"

	"github.com/ankittk/hardcheck/pkg/models"
)

type roleRule struct {
	keywords []string
	task     string
	days     int
	typ      string
}

// roleRules are evaluated in order; the first rule with a keyword contained in the role wins.
var roleRules = []roleRule{
	{
		keywords: []string{"ceo", "founder"},
		task:     "Identify and personally tackle your biggest strategic challenge - don't delegate it",
		days:     7,
		typ:      models.TypeStrategic,
	},
	{
		keywords: []string{"social"},
		task:     "Create 3 pieces of high-value content that push boundaries and add real value",
		days:     7,
		typ:      models.TypeContent,
	},
	{
		keywords: []string{"assistant"},
		task:     "Find and implement one process optimization that adds measurable value",
		days:     1,
		typ:      models.TypeEfficiency,
	},
	{
		keywords: []string{"manager", "director"},
		task:     "Have one difficult conversation you've been avoiding with your team",
		days:     7,
		typ:      models.TypeLeadership,
	},
}

var defaultRoleRule = roleRule{
	task: "Attack your most challenging task FIRST thing tomorrow - no warm-up tasks",
	days: 1,
	typ:  models.TypeProductivity,
}

func matchRole(role string) roleRule {
	role = strings.ToLower(role)
	for _, r := range roleRules {
		for _, kw := range r.keywords {
			if strings.Contains(role, kw) {
				return r
			}
		}
	}
	return defaultRoleRule
}

// GenerateRoleSpecificDeadline picks the deadline content for a role. The second argument is the
// triggering message; it does not affect the result, which comes from the rule table alone.
func (m *Manager) GenerateRoleSpecificDeadline(role, _ string) models.DeadlineSpec {
	r := matchRole(role)
	return models.DeadlineSpec{
		Task:    r.task,
		DueDate: m.dateOffset(r.days),
		Type:    r.typ,
	}
}
