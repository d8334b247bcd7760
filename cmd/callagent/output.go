package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/callagent/internal/pagination"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cells := make([]string, len(headers))
	for i, h := range headers {
		// Render expands tabs, so style each cell on its own.
		cells[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
	return tw
}

func activeLabel(active bool) string {
	if active {
		return activeStyle.Render("active")
	}
	return offStyle.Render("inactive")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

// pageFooter renders "Page 2 of 7 (61 items)  1 … 2 3 4 … 7".
func pageFooter(p *pagination.Paginator) string {
	if p.TotalPages() <= 1 {
		return dimStyle.Render(fmt.Sprintf("%d items", p.TotalItems()))
	}
	var parts []string
	for _, n := range p.PageNumbers() {
		switch {
		case n == pagination.Ellipsis:
			parts = append(parts, "…")
		case n == p.CurrentPage():
			parts = append(parts, headerStyle.Render("["+strconv.Itoa(n)+"]"))
		default:
			parts = append(parts, strconv.Itoa(n))
		}
	}
	return dimStyle.Render(fmt.Sprintf("Page %d of %d (%d items)  ", p.CurrentPage(), p.TotalPages(), p.TotalItems())) +
		strings.Join(parts, " ")
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) readLine(prompt string) string {
	fmt.Fprint(a.out, prompt)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
