// Package registry holds the static catalog of external analyzer tools:
// which tool serves which check category and language, how it is invoked,
// which parser understands its output, and in which order candidates are
// tried. Registrations are append-only and the registry is frozen before a
// run begins, so reads during execution need no locking.
package registry
