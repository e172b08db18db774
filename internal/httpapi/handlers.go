package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ankittk/hardcheck/internal/bot"
	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/pkg/models"
)

func (a *App) registerAdmin(mux *http.ServeMux) {
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, a.users())
	})

	// /users/{id}, /users/{id}/stats, /users/{id}/deadlines[/{did}/complete|remind]
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/users/")
		parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
		userID := parts[0]
		if userID == "" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}

		if len(parts) == 1 {
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			rec, ok := a.Deadlines.Record(userID)
			if !ok {
				writeJSONError(w, http.StatusNotFound, "user has no deadlines")
				return
			}
			writeJSON(w, rec)
			return
		}

		switch parts[1] {
		case "stats":
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			st, ok := a.Deadlines.Stats(userID)
			if !ok {
				writeJSONError(w, http.StatusNotFound, "user has no deadlines")
				return
			}
			writeJSON(w, st)
		case "deadlines":
			switch {
			case len(parts) == 2:
				a.handleDeadlines(w, r, userID)
			case len(parts) == 4:
				a.handleDeadlineAction(w, r, userID, parts[2], parts[3])
			default:
				writeJSONError(w, http.StatusNotFound, "not found")
			}
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
	})

	mux.HandleFunc("/overdue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		overdue := a.Deadlines.AllOverdue()
		if overdue == nil {
			overdue = []models.OverdueUser{}
		}
		writeJSON(w, overdue)
	})

	mux.HandleFunc("/checkin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, a.Bot.Broadcast(r.Context()))
	})

	mux.HandleFunc("/reminders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, a.Bot.ReminderSweep(r.Context()))
	})

	mux.HandleFunc("/maintenance/cleanup", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, models.CleanupResult{Removed: a.Bot.Cleanup(r.Context())})
	})

	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body models.ClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		c := a.Bot.Classifier()
		if body.Variant != "" {
			cfg, err := classify.Named(body.Variant)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			c = classify.New(cfg)
		}
		d := c.Classify(classify.Input{
			Text:          body.Text,
			IsDirect:      body.IsDirect,
			LastBroadcast: a.Bot.LastBroadcast(),
			Now:           a.opts.Now(),
		})
		writeJSON(w, d.Model(c.Name()))
	})
}

// users lists the roster, then users known only from the deadline store.
func (a *App) users() []models.RosterUser {
	out := []models.RosterUser{}
	seen := make(map[string]bool)
	for _, m := range a.Bot.Roster().Members() {
		seen[m.ID] = true
		u := models.RosterUser{
			ID:          m.ID,
			Name:        m.Name,
			Role:        m.Role,
			Active:      m.Active,
			CheckInDays: bot.WeekdayNames(m.CheckInDays),
		}
		if st, ok := a.Deadlines.Stats(m.ID); ok {
			u.Stats = &st
		}
		out = append(out, u)
	}
	for _, id := range a.Deadlines.Users() {
		if seen[id] {
			continue
		}
		rec, _ := a.Deadlines.Record(id)
		u := models.RosterUser{ID: id}
		if rec != nil {
			u.Name, u.Role = rec.Name, rec.Role
		}
		if st, ok := a.Deadlines.Stats(id); ok {
			u.Stats = &st
		}
		out = append(out, u)
	}
	return out
}

func (a *App) handleDeadlines(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, models.DeadlineList{
			UserID:   userID,
			Active:   a.Deadlines.ActiveDeadlines(userID),
			Overdue:  a.Deadlines.OverdueDeadlines(userID),
			DueToday: a.Deadlines.DeadlinesDueToday(userID),
		})
	case http.MethodPost:
		var body models.AddDeadlineRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		member, _ := a.Bot.Roster().Lookup(userID)
		if strings.TrimSpace(body.Task) == "" {
			spec := a.Deadlines.GenerateRoleSpecificDeadline(member.Role, body.Context)
			body.Task, body.Type = spec.Task, spec.Type
			if body.DueDate == "" {
				body.DueDate = spec.DueDate
			}
		}
		user := models.User{ID: userID, Name: member.Name, Role: member.Role}
		d, err := a.Deadlines.AddDeadline(r.Context(), user, body.Task, body.DueDate, body.Type)
		if err != nil {
			writeDeadlineError(w, err)
			return
		}
		a.Bot.PublishDeadlineUpdate(userID, d.ID, "added")
		writeJSON(w, d)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleDeadlineAction(w http.ResponseWriter, r *http.Request, userID, deadlineID, action string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var ok bool
	switch action {
	case "complete":
		ok = a.Deadlines.CompleteDeadline(r.Context(), userID, deadlineID)
	case "remind":
		ok = a.Deadlines.MarkAsReminded(r.Context(), userID, deadlineID)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "deadline not found")
		return
	}
	a.Bot.PublishDeadlineUpdate(userID, deadlineID, action)
	writeJSON(w, map[string]any{"ok": true})
}
