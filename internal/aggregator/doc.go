// Package aggregator gathers the calendar and mail context for one question.
//
// A Session holds everything the assistant remembers between questions: the
// last calendar events, the last mail search results, the email the user has
// open and the inbox overview. Gather classifies the question, runs the
// selected fetches in parallel (each bounded by its own timeout), waits for all
// of them and folds the results back into the session.
//
// Results are tied to the query that started them. When a newer question is
// gathered on the same session before an older one finishes, the older results
// are dropped instead of overwriting newer context.
//
// Per-source outcomes:
//
//	fetched  results replace the cached value, even when empty
//	timeout  the cached value from the previous question is kept
//	error    calendar keeps its cache; mail search clears it
package aggregator
