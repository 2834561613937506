package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#14B8A6"))
	orgStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5E7EB"))
	highStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38BDF8"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
)

// Display prints the per-organization breakdown and the grand summary.
func Display(w io.Writer, r *Report) {
	if r.Len() == 0 {
		fmt.Fprintln(w, dimStyle.Render("No organizations with vulnerable lines found"))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Vulnerable Lines Summary by Organization"))
	fmt.Fprintln(w, dimStyle.Render("========================================"))

	for _, e := range r.entries {
		fmt.Fprintln(w)
		fmt.Fprintln(w, orgStyle.Render(e.Key()))
		fmt.Fprintf(w, "  %s %s vulnerable lines\n", highStyle.Render("High:  "), humanize.Comma(int64(e.Counts.High)))
		fmt.Fprintf(w, "  %s %s vulnerable lines\n", mediumStyle.Render("Medium:"), humanize.Comma(int64(e.Counts.Medium)))
		fmt.Fprintf(w, "  %s %s vulnerable lines\n", lowStyle.Render("Low:   "), humanize.Comma(int64(e.Counts.Low)))
		fmt.Fprintf(w, "  %s %s vulnerable lines\n", totalStyle.Render("Total: "), humanize.Comma(int64(e.Counts.Total)))
	}

	grand := r.GrandTotal()
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Grand Summary"))
	fmt.Fprintf(w, "  Organizations: %d\n", r.Len())
	fmt.Fprintf(w, "  Total Vulnerable Lines: %s\n", humanize.Comma(int64(grand.Total)))
}
