// Package gmail reads message metadata from the user's Gmail mailbox.
//
// Two read paths are provided:
//   - SearchMessages runs a Gmail search query (for example "from:alice" or
//     "budget report") and returns subject, sender, date and snippet for each hit
//   - RecentThreads returns the newest inbox messages as overview rows
//
// Both list message ids first and then fetch each message in metadata format,
// so message bodies never leave Gmail. Missing headers fall back to
// DefaultSubject and DefaultSender.
//
// Example usage:
//
//	client, err := gmail.NewClient(tokens, logger, metrics)
//	if err != nil {
//	    return err
//	}
//	msgs, err := client.SearchMessages(ctx, "from:alice", gmail.DefaultMaxResults)
package gmail
