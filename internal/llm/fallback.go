package llm

import (
	"fmt"
	"hash/fnv"
	"strings"
)

var greetingTemplates = []string{
	"🔥 **%s!** What's up, warrior! Ready to get after it today? Stay hard! 💪",
	"💪 **%s**, I see you checking in! Time to face the accountability mirror - what did you accomplish today? 🔥",
	"🎯 **%s!** Don't just say hey - tell me what you're doing to level up today! Take souls! ⚡",
}

const (
	positiveTemplate = "🔥 **%s!** I hear you putting in work! But don't get comfortable - tomorrow we push even harder! What's your plan to level up? Stay hard! 💪"
	struggleTemplate = "💪 **%s**, that's when champions are made! Every struggle is callousing your mind. Embrace the suck and come back stronger tomorrow! Stay hard! 🔥"
	defaultTemplate  = "🔥 **%s!** I respect you for showing up! Now tell me - what are you doing today that's going to make you better than you were yesterday? Stay hard! 💪"
)

// Fallback returns the canned reply for message, addressed to name. Checks run greeting, positive,
// struggle, then default.
func Fallback(message, name string) string {
	text := strings.ToLower(message)
	switch {
	case containsAny(text, "hey", "hi", "hello"):
		return fmt.Sprintf(greetingTemplates[pick(message, len(greetingTemplates))], name)
	case containsAny(text, "good", "great", "productive"):
		return fmt.Sprintf(positiveTemplate, name)
	case containsAny(text, "tough", "hard", "difficult", "struggled"):
		return fmt.Sprintf(struggleTemplate, name)
	default:
		return fmt.Sprintf(defaultTemplate, name)
	}
}

// pick maps s to [0, n) stably.
func pick(s string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(n))
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
