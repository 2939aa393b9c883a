package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// logBuffer keeps the most recent log lines for the log pane. Writes never
// block; old lines are dropped once the cap is reached.
type logBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogBuffer(max int) *logBuffer {
	if max <= 0 {
		max = 200
	}
	return &logBuffer{max: max}
}

func (b *logBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
}

// Tail returns the most recent lines, oldest first.
func (b *logBuffer) Tail() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// logHandler is a slog.Handler feeding a shared logBuffer, so everything the
// app logs while the terminal is in raw mode lands in the log pane instead of
// corrupting the screen.
type logHandler struct {
	buf   *logBuffer
	attrs []slog.Attr
}

func newLogHandler(buf *logBuffer) *logHandler {
	return &logHandler{buf: buf}
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *logHandler) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder
	sb.WriteString(rec.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(rec.Message)
	appendAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	rec.Attrs(appendAttr)
	h.buf.append(sb.String())
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &logHandler{buf: h.buf, attrs: merged}
}

func (h *logHandler) WithGroup(string) slog.Handler { return h }
