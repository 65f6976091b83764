// Package notify shows short-lived success/error notifications ("toasts") for
// console actions and records them in the log.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the kind of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Terminal prints styled notifications to a writer. The printed line is the
// user-facing output, so toasts only reach the log at debug level.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[Level]lipgloss.Style
}

// NewTerminal creates a Terminal notifier writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out: out,
		styles: map[Level]lipgloss.Style{
			LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
			LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
			LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
		},
	}
}

var icons = map[Level]string{
	LevelSuccess: "✓",
	LevelError:   "✗",
	LevelInfo:    "•",
}

func (t *Terminal) show(level Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, t.styles[level].Render(icons[level]+" "+msg))
}

// Success shows a success notification.
func (t *Terminal) Success(msg string) {
	slog.Debug(msg, "toast", LevelSuccess)
	t.show(LevelSuccess, msg)
}

// Error shows an error notification.
func (t *Terminal) Error(msg string) {
	slog.Debug(msg, "toast", LevelError)
	t.show(LevelError, msg)
}

// Info shows an informational notification.
func (t *Terminal) Info(msg string) {
	slog.Debug(msg, "toast", LevelInfo)
	t.show(LevelInfo, msg)
}

// Toast is one recorded notification.
type Toast struct {
	Level   Level
	Message string
}

// Recorder keeps notifications in memory, for the TUI status line and tests.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

// Success records a success notification.
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

// Error records an error notification.
func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

// Info records an informational notification.
func (r *Recorder) Info(msg string) { r.add(LevelInfo, msg) }

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
