// Package prompt renders the gathered mailbox and calendar context plus the
// user's question into the single text block sent to the completion endpoint.
//
// Build is pure: the same Input always renders to the same bytes.
package prompt
