package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/inboxai/internal/calendar"
	"github.com/teemow/inboxai/internal/gmail"
)

// StartLayout renders event start times as month/day/year with a 12-hour clock.
const StartLayout = "1/2/2006, 3:04:05 PM"

// inboxOverviewLimit caps the RECENT INBOX block.
const inboxOverviewLimit = 5

const (
	preamble = "You are InboxAI, an AI assistant with access to the user's Gmail and Google Calendar data.\n\n"
	useData  = "Use this data to answer the user's question directly. Be concise and helpful.\n\n"
	noData   = "No email or calendar data is currently loaded. Let the user know you need them to grant permissions or that no relevant data was found.\n\n"
)

// Names of the data sets listed in the preamble.
const (
	SourceCalendarEvents = "calendar events"
	SourceSearchResults  = "Gmail search results"
	SourceCurrentEmail   = "current email"
	SourceInboxOverview  = "inbox overview"
)

// Input is everything a prompt is rendered from.
type Input struct {
	Events        []calendar.Event
	SearchResults []gmail.Message
	CurrentEmail  *gmail.CurrentEmail
	Inbox         []gmail.InboxThread
	Question      string

	// Location localizes event start times. Nil means UTC.
	Location *time.Location
}

// Build renders the prompt. Calendar events come first; then exactly one mail
// block, preferring search results over the current email over the inbox
// overview.
func Build(in Input) string {
	var b strings.Builder
	b.WriteString(preamble)
	if sources := Sources(in); len(sources) > 0 {
		fmt.Fprintf(&b, "You currently have access to: %s.\n", strings.Join(sources, ", "))
		b.WriteString(useData)
	} else {
		b.WriteString(noData)
	}

	if len(in.Events) > 0 {
		writeEvents(&b, in.Events, in.Location)
	}
	switch mailSource(in) {
	case SourceSearchResults:
		writeSearchResults(&b, in.SearchResults)
	case SourceCurrentEmail:
		fmt.Fprintf(&b, "=== CURRENT EMAIL ===\nFrom: %s\nSubject: %s\nBody: %s\n\n",
			in.CurrentEmail.Sender, in.CurrentEmail.Subject, in.CurrentEmail.Body)
	case SourceInboxOverview:
		writeInbox(&b, in.Inbox)
	}

	fmt.Fprintf(&b, "User question: %s\n\nAnswer:", in.Question)
	return b.String()
}

// Sources returns the data set names Build lists in the preamble for in.
func Sources(in Input) []string {
	var sources []string
	if len(in.Events) > 0 {
		sources = append(sources, SourceCalendarEvents)
	}
	if src := mailSource(in); src != "" {
		sources = append(sources, src)
	}
	return sources
}

func mailSource(in Input) string {
	switch {
	case len(in.SearchResults) > 0:
		return SourceSearchResults
	case in.CurrentEmail != nil:
		return SourceCurrentEmail
	case len(in.Inbox) > 0:
		return SourceInboxOverview
	}
	return ""
}

// FormatStart renders t in loc with StartLayout.
func FormatStart(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(StartLayout)
}

func writeEvents(b *strings.Builder, events []calendar.Event, loc *time.Location) {
	lines := make([]string, 0, len(events))
	for i, e := range events {
		line := fmt.Sprintf("%d. %s at %s", i+1, e.Title, FormatStart(e.Start, loc))
		if e.Description != "" {
			line += " - " + e.Description
		}
		lines = append(lines, line)
	}
	fmt.Fprintf(b, "=== CALENDAR EVENTS ===\n%s\n\n", strings.Join(lines, "\n"))
}

func writeSearchResults(b *strings.Builder, msgs []gmail.Message) {
	entries := make([]string, 0, len(msgs))
	for i, m := range msgs {
		entries = append(entries, fmt.Sprintf("%d. From: %s\n   Subject: %s\n   Date: %s\n   Preview: %s",
			i+1, m.From, m.Subject, m.Date, m.Snippet))
	}
	fmt.Fprintf(b, "=== EMAIL SEARCH RESULTS ===\n%s\n\n", strings.Join(entries, "\n\n"))
}

func writeInbox(b *strings.Builder, threads []gmail.InboxThread) {
	if len(threads) > inboxOverviewLimit {
		threads = threads[:inboxOverviewLimit]
	}
	lines := make([]string, 0, len(threads))
	for i, t := range threads {
		lines = append(lines, fmt.Sprintf("%d. %s — %s (%s)", i+1, t.Sender, t.Subject, t.Snippet))
	}
	fmt.Fprintf(b, "=== RECENT INBOX ===\n%s\n\n", strings.Join(lines, "\n"))
}
