package google

import (
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultOAuthScopes are the read-only scopes the assistant needs: calendar
// events for the primary calendar and Gmail message metadata.
var DefaultOAuthScopes = []string{
	calendar.CalendarReadonlyScope,
	gmail.GmailReadonlyScope,
}
