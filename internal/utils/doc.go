// Package utils houses the ambient helpers shared by the CLI commands: the
// layered ConfigurationLoader, the LoggerFactory used for structured and
// console logging, and the FlushingWriter wrapping report destinations.
package utils
