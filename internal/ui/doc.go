// Package ui renders analyzer tool lifecycle events in a human-readable
// form for console logging sessions.
package ui
