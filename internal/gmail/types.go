package gmail

// Defaults for missing headers.
const (
	DefaultSubject = "(No subject)"
	DefaultSender  = "(Unknown sender)"
)

// Message is the metadata of one Gmail message.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// InboxThread is one row of an inbox overview.
type InboxThread struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// CurrentEmail is the message the user currently has open. It is supplied by the
// host rather than fetched.
type CurrentEmail struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Thread converts a message to an inbox overview row.
func (m Message) Thread() InboxThread {
	return InboxThread{Sender: m.From, Subject: m.Subject, Snippet: m.Snippet}
}
