package utils

import (
	"io"
	"sync"
)

// FlushingWriter makes writes to buffered destinations visible immediately by
// invoking Flush after each write when the destination supports it.
type FlushingWriter struct {
	destination io.Writer
	writeMutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers that are already
// flushing are returned unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyFlushing := destination.(*FlushingWriter); alreadyFlushing {
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write delegates to the wrapped writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.writeMutex.Lock()
	defer flushingWriter.writeMutex.Unlock()

	writtenBytes, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return writtenBytes, writeError
	}

	if flushableDestination, supportsFlush := flushingWriter.destination.(interface{ Flush() error }); supportsFlush {
		if flushError := flushableDestination.Flush(); flushError != nil {
			return writtenBytes, flushError
		}
	}

	return writtenBytes, nil
}
