package classify

// triggerKeywords are matched as substrings of the lowercased message.
var triggerKeywords = []string{
	"hey", "hi", "hello", "morning", "afternoon", "evening",
	"day", "today", "work", "job", "productive", "busy", "tired",
	"good", "bad", "great", "tough", "hard", "easy", "difficult",
	"finished", "completed", "accomplished", "did", "worked",
	"struggled", "failed", "succeeded", "won", "lost",
	"tasks", "goals", "projects", "meetings", "deadline",
	"report", "presentation", "analysis",
	"stayed hard", "took souls", "comfort zone", "grind",
	"thanks", "thank you",
}

// reportPhrases mark an end-of-day report for the comprehensive preset.
var reportPhrases = []string{
	"my day", "today", "report", "did", "accomplished", "struggled",
	"worked on", "finished", "completed", "productive", "challenging",
	"good day", "tough day", "progress", "goals", "tasks", "projects",
	"meetings", "deadline", "achievement", "success", "failure",
	"busy", "hectic", "smooth", "difficult",
	"stayed hard", "took souls", "embraced the suck", "pushed through",
	"comfort zone", "mental toughness", "accountability", "grind", "hustle", "workout",
	"end of day", "eod", "daily update", "status update", "wrap up",
	"summary", "recap", "review",
}

var strugglingKeywords = []string{
	"tired", "failed", "couldn't", "didn't", "bad day", "struggled", "quit",
}
