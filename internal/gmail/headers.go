package gmail

import (
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// metadataHeaders are the only headers requested for each message.
var metadataHeaders = []string{"Subject", "From", "Date"}

// HeaderValue extracts a header value from a Gmail message. Header names are
// compared case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

func headerOr(m *gmail.Message, header, fallback string) string {
	if v := HeaderValue(m, header); v != "" {
		return v
	}
	return fallback
}

// toMessage converts an API message fetched in metadata format.
func toMessage(m *gmail.Message) Message {
	return Message{
		ID:      m.Id,
		Subject: headerOr(m, "Subject", DefaultSubject),
		From:    headerOr(m, "From", DefaultSender),
		Date:    HeaderValue(m, "Date"),
		Snippet: m.Snippet,
	}
}
