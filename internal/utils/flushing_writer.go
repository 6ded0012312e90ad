package utils

import "io"

// flusher is the optional interface buffered report destinations expose.
type flusher interface {
	Flush() error
}

// FlushingWriter pushes rendered report output through to its destination as
// it is produced, flushing after every write when the destination supports it.
type FlushingWriter struct {
	destination io.Writer
}

// NewFlushingWriter wraps the destination writer.
func NewFlushingWriter(destination io.Writer) io.Writer {
	return &FlushingWriter{destination: destination}
}

// Write forwards data to the destination and flushes it when possible.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	bytesWritten, writeError := writer.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushableDestination, canFlush := writer.destination.(flusher); canFlush {
		if flushError := flushableDestination.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}
