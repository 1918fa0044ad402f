// Package keystore persists the one piece of state inboxai keeps: the API key
// used for completion requests.
//
// Two backends implement Store. FileStore writes a small JSON document under
// the user's config directory with owner-only permissions. ValkeyStore keeps
// the key in Valkey so several serve replicas share one configuration.
//
// Get performs a single read. A store without a key returns ErrNotConfigured;
// callers surface that state instead of polling.
package keystore
