package utils

import "io"

type flusher interface {
	Flush() error
}

type flushingWriter struct {
	target io.Writer
}

// NewFlushingWriter wraps target so every write is flushed when target supports it.
func NewFlushingWriter(target io.Writer) io.Writer {
	return flushingWriter{target: target}
}

func (writer flushingWriter) Write(data []byte) (int, error) {
	written, writeError := writer.target.Write(data)
	if writeError != nil {
		return written, writeError
	}
	if flushTarget, canFlush := writer.target.(flusher); canFlush {
		return written, flushTarget.Flush()
	}
	return written, nil
}
