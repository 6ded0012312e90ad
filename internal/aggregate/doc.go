// Package aggregate merges per-category findings into a single validated,
// deduplicated, and deterministically ordered report.
package aggregate
