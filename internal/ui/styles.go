// Package ui holds the terminal styles for status lines.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Status tags printed in front of every status line.
const (
	TagInfo    = "INFO"
	TagSuccess = "SUCCESS"
	TagWarning = "WARNING"
	TagError   = "ERROR"
	TagDebug   = "DEBUG"
)

// Tag colors
var (
	ColorPurple = lipgloss.Color("141") // info
	ColorBlue   = lipgloss.Color("63")  // success
	ColorYellow = lipgloss.Color("220") // warning
	ColorRed    = lipgloss.Color("196") // error
	ColorGray   = lipgloss.Color("240") // debug
)

// Styles is a set of styles bound to one renderer, so the color profile
// follows the writer the lines end up in.
type Styles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Debug   lipgloss.Style
	Message lipgloss.Style
	Detail  lipgloss.Style
}

// NewStyles creates the status line styles for a renderer.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Info:    r.NewStyle().Foreground(ColorPurple),
		Success: r.NewStyle().Foreground(ColorBlue),
		Warning: r.NewStyle().Foreground(ColorYellow),
		Error:   r.NewStyle().Foreground(ColorRed),
		Debug:   r.NewStyle().Foreground(ColorGray),
		Message: r.NewStyle().Bold(true),
		Detail:  r.NewStyle().Foreground(ColorGray),
	}
}

// Tag returns the style for a status tag.
func (s *Styles) Tag(tag string) lipgloss.Style {
	switch tag {
	case TagSuccess:
		return s.Success
	case TagWarning:
		return s.Warning
	case TagError:
		return s.Error
	case TagDebug:
		return s.Debug
	default:
		return s.Info
	}
}
