package intent

import "strings"

var (
	calendarKeywords = []string{
		"meeting", "event", "calendar", "appointment", "schedule",
		"tomorrow", "this week", "next week",
	}
	mailKeywords = []string{
		"email", "message", "mail", "from", "about", "subject", "sent", "find", "search",
	}
)

// Intent records which context sources a question needs. Both may be set.
type Intent struct {
	Calendar bool `json:"hasCalendarIntent"`
	Email    bool `json:"hasEmailIntent"`
}

// None reports whether no source is needed.
func (i Intent) None() bool {
	return !i.Calendar && !i.Email
}

// Detect matches the input against the calendar and mail keyword sets as
// substrings anywhere in the text.
func Detect(input string) Intent {
	lower := strings.ToLower(input)
	return Intent{
		Calendar: containsAny(lower, calendarKeywords),
		Email:    containsAny(lower, mailKeywords),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
