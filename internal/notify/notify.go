// Package notify delivers short user-facing outcome messages, the terminal
// counterpart of toast notifications.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier receives outcome messages. Implementations must not block.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every message.
var Discard Notifier = Func(func(Level, string) {})

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f97316")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
)

func badge(level Level) string {
	switch level {
	case LevelSuccess:
		return successStyle.Render("✓")
	case LevelWarning:
		return warningStyle.Render("!")
	case LevelError:
		return errorStyle.Render("✗")
	default:
		return infoStyle.Render("i")
	}
}

// Terminal writes one styled line per message.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Notify(level Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s %s\n", badge(level), message)
}

// Log records messages through slog; errors and warnings keep their severity.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(level Level, message string) {
	switch level {
	case LevelError:
		l.Logger.Error(message)
	case LevelWarning:
		l.Logger.Warn(message)
	default:
		l.Logger.Info(message, "level", string(level))
	}
}

// Multi fans a message out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return Func(func(level Level, message string) {
		for _, n := range ns {
			n.Notify(level, message)
		}
	})
}

// Recorder keeps every message; useful for tests and batch output.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

type Message struct {
	Level Level
	Text  string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.Messages = append(r.Messages, Message{Level: level, Text: message})
	r.mu.Unlock()
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
