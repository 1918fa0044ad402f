// Package config loads inboxai settings from the environment.
//
// A .env file in the working directory is read first when present, then
// variables prefixed with INBOXAI_ are applied on top of the defaults. Each
// setting also accepts its unprefixed name as a fallback, so OPENAI_API_KEY or
// VALKEY_URL work as expected. Command-line flags override both.
//
// Observability settings are read separately by the instrumentation package.
package config
