package models

// Deadline types produced by role-based generation.
const (
	TypeStrategic    = "strategic"
	TypeContent      = "content"
	TypeEfficiency   = "efficiency"
	TypeLeadership   = "leadership"
	TypeProductivity = "productivity"
)

// Defaults for users missing from the roster.
const (
	DefaultUserName = "Warrior"
	DefaultUserRole = "Team Member"
)

// SSE event types published by the bot.
const (
	EventMessageHandled = "message_handled"
	EventBroadcast      = "broadcast"
	EventReminderSweep  = "reminder_sweep"
	EventCleanup        = "cleanup"
	EventDeadlineUpdate = "deadline_update"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultSSEChannelBuffer    = 256
	DefaultRetentionDays       = 30
	DateLayout                 = "2006-01-02"
)
