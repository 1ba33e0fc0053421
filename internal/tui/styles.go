package tui

import (
	"github.com/charmbracelet/lipgloss"

	"quickfx/internal/render"
)

const (
	ColorTitle   = lipgloss.Color("39")
	ColorResult  = lipgloss.Color("42")
	ColorPending = lipgloss.Color("220")
	ColorError   = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(ColorTitle).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	helpStyle     = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
)

func itemStyle(c render.Category) lipgloss.Style {
	switch c {
	case render.CategoryResult:
		return lipgloss.NewStyle().Foreground(ColorResult).Bold(true)
	case render.CategoryPending, render.CategoryWaiting:
		return lipgloss.NewStyle().Foreground(ColorPending)
	case render.CategoryNetwork, render.CategoryError:
		return lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
