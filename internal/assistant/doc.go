// Package assistant answers one question end to end: it reads the API key,
// gathers calendar and mail context into the session, renders the prompt and
// asks the completion endpoint.
//
// Progress is reported as short human-readable status lines through a
// StatusFunc, mirroring what a chat widget shows while it thinks:
//
//	Checking calendar...
//	Searching emails for: "from:alice"
//	Calendar loaded — 2 event(s) (3/2/2026 - 3/2/2026)
//	Found 3 email(s) for "from:alice"
//
// A missing API key stops the question before any network call is made.
package assistant
