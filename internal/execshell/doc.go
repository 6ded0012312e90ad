// Package execshell provides a typed wrapper around subprocess execution for
// external analyzer tools, with structured logging of command lifecycle
// events.
package execshell
