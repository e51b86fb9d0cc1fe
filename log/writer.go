package log

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// DefaultMaxLineSize bounds a single guest output line (64KB).
// Longer lines are cut and the remainder discarded up to the next newline.
const DefaultMaxLineSize = 64 * 1024

// LineWriter is an io.Writer that turns each written line into a log
// record. It is meant for guest stdout/stderr.
type LineWriter struct {
	logger    *slog.Logger
	buffer    bytes.Buffer
	level     slog.Level
	limit     int
	truncated bool
	mu        sync.Mutex
}

// NewLineWriter returns a writer logging lines at level. stream names the
// source in every record ("stdout", "stderr").
func NewLineWriter(logger *slog.Logger, level slog.Level, stream string) *LineWriter {
	return &LineWriter{
		logger: logger.With("stream", stream),
		level:  level,
		limit:  DefaultMaxLineSize,
	}
}

// Write implements io.Writer. It never fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.append(p)
			break
		}
		w.append(p[:i])
		w.emit()
		p = p[i+1:]
	}
	return n, nil
}

// Flush logs a trailing partial line, if any.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buffer.Len() > 0 || w.truncated {
		w.emit()
	}
}

func (w *LineWriter) append(p []byte) {
	remaining := w.limit - w.buffer.Len()
	if len(p) > remaining {
		w.truncated = true
		p = p[:remaining]
	}
	w.buffer.Write(p)
}

func (w *LineWriter) emit() {
	line := bytes.TrimRight(w.buffer.Bytes(), "\r")
	if w.truncated {
		w.logger.Log(context.Background(), w.level, string(line), "truncated", true)
	} else {
		w.logger.Log(context.Background(), w.level, string(line))
	}
	w.buffer.Reset()
	w.truncated = false
}
