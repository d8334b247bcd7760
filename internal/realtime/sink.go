package realtime

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/callagent/internal/model"
)

// BalanceSink receives balances from the stream. It is called from the
// stream goroutine and must not block.
type BalanceSink interface {
	OnBalanceUpdate(orgID string, b model.MinuteBalance)
}

// SinkFunc adapts a function to BalanceSink.
type SinkFunc func(orgID string, b model.MinuteBalance)

func (f SinkFunc) OnBalanceUpdate(orgID string, b model.MinuteBalance) { f(orgID, b) }

const (
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorGreen  = "green"
)

// UsageColor grades a usage percentage.
func UsageColor(pct float64) string {
	switch {
	case pct >= 90:
		return ColorRed
	case pct >= 75:
		return ColorOrange
	default:
		return ColorGreen
	}
}

// RemainingColor grades the minutes left.
func RemainingColor(minutes float64) string {
	switch {
	case minutes <= 0:
		return ColorRed
	case minutes < 10:
		return ColorOrange
	default:
		return ColorGreen
	}
}

// Elements names the page elements a widget embedder binds per organization.
type Elements struct {
	Remaining   string
	Used        string
	Total       string
	Usage       string
	ProgressBar string
	Status      string
}

func ElementIDs(orgID string) Elements {
	p := "org-" + orgID + "-"
	return Elements{
		Remaining:   p + "remaining",
		Used:        p + "used",
		Total:       p + "total",
		Usage:       p + "usage",
		ProgressBar: p + "progress",
		Status:      p + "status",
	}
}

var palette = map[string]lipgloss.Color{
	ColorRed:    lipgloss.Color("#ef4444"),
	ColorOrange: lipgloss.Color("#f97316"),
	ColorGreen:  lipgloss.Color("#22c55e"),
}

var (
	orgStyle   = lipgloss.NewStyle().Bold(true)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4b5563"))
)

const barWidth = 20

// TerminalSink prints one line per update with a colored usage bar.
type TerminalSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

func (t *TerminalSink) OnBalanceUpdate(orgID string, b model.MinuteBalance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, RenderBalance(orgID, b))
}

// RenderBalance formats a balance as "org [bar] pct  remaining/total min".
func RenderBalance(orgID string, b model.MinuteBalance) string {
	pct := b.Usage()
	filled := int(pct / 100 * barWidth)
	filled = max(0, min(barWidth, filled))

	usage := lipgloss.NewStyle().Foreground(palette[UsageColor(pct)])
	remaining := lipgloss.NewStyle().Foreground(palette[RemainingColor(b.RemainingMinutes)])

	bar := usage.Render(strings.Repeat("█", filled)) + emptyStyle.Render(strings.Repeat("░", barWidth-filled))
	line := fmt.Sprintf("%s [%s] %s  %s/%s min",
		orgStyle.Render(orgID),
		bar,
		usage.Render(fmt.Sprintf("%5.1f%%", pct)),
		remaining.Render(formatMinutes(b.RemainingMinutes)),
		formatMinutes(b.TotalMinutes),
	)
	if !b.IsActive {
		line += " (inactive)"
	}
	return line
}

func formatMinutes(m float64) string {
	if m == float64(int64(m)) {
		return fmt.Sprintf("%d", int64(m))
	}
	return fmt.Sprintf("%.1f", m)
}
