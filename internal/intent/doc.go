// Package intent classifies a free-text question into the context sources it
// needs and derives the source parameters: a Gmail search expression and a
// calendar date window.
//
// All functions are pure and deterministic. Keyword matching is
// case-insensitive; extracted values keep the casing the user typed.
package intent
