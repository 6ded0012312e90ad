// Package analyzer defines the contract shared by external tool adapters
// and heuristic fallback scanners, the adapters themselves, and the parsers
// that normalize raw tool output into findings.
package analyzer
