package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"focus-planner/internal/breaks"
	"focus-planner/internal/widget"
)

// Planner theme for the CLI.

const (
	IconDay     = "🗓"
	IconDone    = "✅"
	IconActive  = "▶️"
	IconPending = "▫️"
	IconRepeat  = "♻️"
	IconBreak   = "☕"
	IconError   = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// EntryLine renders one occurrence of the day.
func EntryLine(e widget.Entry) string {
	mark, style := IconPending, Muted
	switch {
	case e.Completed:
		mark, style = IconDone, Good
	case e.Active:
		mark, style = IconActive, Warn
	}
	line := fmt.Sprintf("%s %s–%s %s", mark, e.Start.Format("15:04"), e.End.Format("15:04"), style.Render(e.Title))
	if e.Repeating {
		line += " " + IconRepeat
	}
	if e.Category != "" {
		line += " " + Muted.Render("("+e.Category+")")
	}
	return line
}

// SuggestionLine renders one break suggestion.
func SuggestionLine(s breaks.Suggestion) string {
	style := Muted
	if s.IsHighPriority() {
		style = Warn
	}
	return fmt.Sprintf("%s %s %s %s", s.Type.Icon(), s.StartTime.Format("15:04"),
		style.Render(fmt.Sprintf("%s, %d мин", s.Type.Title(), s.Duration)),
		Muted.Render(fmt.Sprintf("(impact %.0f)", s.ImpactScore)))
}
