package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func colorStyle(color models.AttendanceColor) lipgloss.Style {
	if color == models.AttendanceColorOK {
		return okStyle
	}
	return lowStyle
}

func renderList(w io.Writer, views []models.SubjectView) {
	if len(views) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No subjects yet. Add one with: attendance add NAME ATTENDED MISSED"))
		return
	}

	width := len("Subject")
	for _, view := range views {
		if n := len(view.Name); n > width {
			width = n
		}
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%3s  %-*s  %9s  %7s  %s", "#", width, "Subject", "Attended", "Percent", "Status")))
	for _, view := range views {
		fmt.Fprintln(w, renderRow(view, width))
	}
}

func renderRow(view models.SubjectView, width int) string {
	style := colorStyle(view.Color)
	return fmt.Sprintf("%3d  %-*s  %9s  %s  %s",
		view.Index+1,
		width, view.Name,
		fmt.Sprintf("%d/%d", view.Attended, view.Total),
		style.Render(fmt.Sprintf("%6.2f%%", view.Percentage)),
		style.Render(view.Status),
	)
}

func renderSubject(w io.Writer, verb string, view *models.SubjectView) {
	fmt.Fprintf(w, "%s %d. %s: %d/%d (%s) %s\n",
		verb,
		view.Index+1,
		view.Name,
		view.Attended, view.Total,
		colorStyle(view.Color).Render(fmt.Sprintf("%.2f%%", view.Percentage)),
		colorStyle(view.Color).Render(view.Status),
	)
}
