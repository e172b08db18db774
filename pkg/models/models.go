// Package models provides shared types for the hardcheck HTTP API, the deadline store, and external tools.
// These types mirror the persisted JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Deadline is a unit of assigned work tracked to completion.
type Deadline struct {
	ID             string     `json:"id"`
	Task           string     `json:"task"`
	DueDate        string     `json:"dueDate"` // YYYY-MM-DD
	Type           string     `json:"type"`
	CreatedAt      time.Time  `json:"createdAt"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Reminded       bool       `json:"reminded"`
	ReminderCount  int        `json:"reminderCount"`
	LastReminderAt *time.Time `json:"lastReminderAt,omitempty"`
}

// UserRecord holds one user's deadlines. Name and role are copied in when the first deadline is created.
type UserRecord struct {
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	ActiveDeadlines    []Deadline `json:"activeDeadlines"`
	CompletedDeadlines []Deadline `json:"completedDeadlines"`
}

// Snapshot is the entire durable state: user id to record.
type Snapshot map[string]*UserRecord

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		if rec == nil {
			continue
		}
		out[id] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *UserRecord) Clone() *UserRecord {
	c := &UserRecord{Name: r.Name, Role: r.Role}
	c.ActiveDeadlines = append(make([]Deadline, 0, len(r.ActiveDeadlines)), r.ActiveDeadlines...)
	c.CompletedDeadlines = append(make([]Deadline, 0, len(r.CompletedDeadlines)), r.CompletedDeadlines...)
	return c
}

// User identifies a chat user plus display metadata.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// DeadlineSpec is the content of a generated deadline before it is stored.
type DeadlineSpec struct {
	Task    string `json:"task"`
	DueDate string `json:"dueDate"`
	Type    string `json:"type"`
}

// Stats summarizes a user's deadlines.
type Stats struct {
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// OverdueUser is one entry of the reminder sweep input.
type OverdueUser struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Deadlines []Deadline `json:"overdueDeadlines"`
}

// InboundEvent is a chat message as seen by the bot, independent of transport metadata.
type InboundEvent struct {
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	ChannelID string `json:"channelId"`
	Timestamp string `json:"timestamp"`
	IsDirect  bool   `json:"isDirect"`
	Mention   bool   `json:"mention,omitempty"`
}

// RosterUser is a configured user as exposed by GET /users.
type RosterUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Active      bool     `json:"active"`
	CheckInDays []string `json:"checkInDays,omitempty"`
	Stats       *Stats   `json:"stats,omitempty"`
}

// BroadcastResult reports one check-in broadcast.
type BroadcastResult struct {
	At        time.Time `json:"at"`
	Sent      int       `json:"sent"`
	Reminders int       `json:"reminders"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// SweepResult reports one overdue-reminder sweep.
type SweepResult struct {
	Users  int `json:"users"`
	Sent   int `json:"sent"`
	Marked int `json:"marked"`
	Failed int `json:"failed"`
}

// Classification is the JSON form of a classifier decision.
type Classification struct {
	Respond           bool     `json:"respond"`
	Variant           string   `json:"variant"`
	Keyword           bool     `json:"keyword"`
	DirectSubstantial bool     `json:"directSubstantial"`
	WithinWindow      bool     `json:"withinWindow"`
	LongMessage       bool     `json:"longMessage"`
	Words             int      `json:"words"`
	Matched           []string `json:"matched,omitempty"`
}

// DeadlineList is GET /users/{id}/deadlines.
type DeadlineList struct {
	UserID   string     `json:"userId"`
	Active   []Deadline `json:"active"`
	Overdue  []Deadline `json:"overdue"`
	DueToday []Deadline `json:"dueToday"`
}

// AddDeadlineRequest is the body of POST /users/{id}/deadlines. With an empty task a deadline is
// generated from the user's role; Context is passed to the generator.
type AddDeadlineRequest struct {
	Task    string `json:"task,omitempty"`
	DueDate string `json:"dueDate,omitempty"`
	Type    string `json:"type,omitempty"`
	Context string `json:"context,omitempty"`
}

// ClassifyRequest is the body of POST /classify. An empty variant uses the running classifier.
type ClassifyRequest struct {
	Text     string `json:"text"`
	IsDirect bool   `json:"isDirect"`
	Variant  string `json:"variant,omitempty"`
}

// CleanupResult reports POST /maintenance/cleanup.
type CleanupResult struct {
	Removed int `json:"removed"`
}
