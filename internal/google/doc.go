// Package google provides OAuth2 credentials and error classification for the
// Google APIs used by inboxai.
//
// The TokenProvider interface is the single credential capability the rest of the
// application depends on. FileTokenProvider keeps a refreshable token in the user
// cache directory and can run the interactive consent step when asked to.
//
// Failures are reported with two typed errors: AuthError when no usable token
// could be obtained and NetworkError when a Google endpoint answered with a
// non-success status or could not be reached.
package google
