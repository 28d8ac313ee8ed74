// Package ui holds the terminal styles of the command line client.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconCastle = "🏯"
	IconScroll = "📜"
	IconEvent  = "🎴"
	IconTime   = "⏳"
	IconMap    = "🗾"
	IconGrave  = "⚰️"
	IconError  = "🧨"
	IconOK     = "✅"
	IconLocked = "🚫"
)

var (
	cPrimary = lipgloss.Color("160") // vermilion
	cAccent  = lipgloss.Color("220") // gold
	cGood    = lipgloss.Color("42")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
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

// Meter renders a 0-100 attribute as a ten cell bar
func Meter(value int) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	full := value / 10
	return Good.Render(strings.Repeat("■", full)) + Muted.Render(strings.Repeat("□", 10-full)) + fmt.Sprintf(" %d", value)
}

// Alive renders the life state of a character
func Alive(alive bool, reason string) string {
	if alive {
		return Good.Render("vivo")
	}
	return Bad.Render(IconGrave + " " + reason)
}
