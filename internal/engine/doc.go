// Package engine coordinates a review run: it drives each requested check
// category through its tool fallback chain on a bounded worker pool and
// hands the per-category outcomes to a single collection point.
package engine
