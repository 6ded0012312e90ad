// Package report renders an assembled review report as human-readable
// Markdown or as machine-readable JSON.
package report
