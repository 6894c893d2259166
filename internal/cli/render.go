package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"leadscore/internal/lead"
	"leadscore/internal/verify"
)

var (
	accent  = lipgloss.Color("#7D56F4")
	good    = lipgloss.Color("#04B575")
	warning = lipgloss.Color("#FFB000")
	bad     = lipgloss.Color("#FF5F56")
	dim     = lipgloss.Color("#767676")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle   = lipgloss.NewStyle().Foreground(dim)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Width(22)
)

func verdictColor(v verify.Verdict) lipgloss.Color {
	switch v {
	case verify.VerdictValid:
		return good
	case verify.VerdictProbable:
		return warning
	default:
		return bad
	}
}

// renderResult renders one verification result as a single line.
func renderResult(r verify.Result) string {
	verdict := lipgloss.NewStyle().Bold(true).Foreground(verdictColor(r.Verdict)).Width(9).Render(string(r.Verdict))
	line := fmt.Sprintf("%s %3d  %s", verdict, r.Score, r.Email)
	if r.FailureReason != "" {
		line += "  " + dimStyle.Render(r.FailureReason)
	}
	return line
}

func renderResults(results []verify.Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(renderResult(r))
		b.WriteString("\n")
	}
	s := verify.Summarize(results)
	if s.Total > 1 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d checked · %d valid · %d probable · %d doubtful · %d invalid · %.2f%% valid",
			s.Total, s.Valid, s.Probable, s.Doubtful, s.Invalid, s.PercentValid)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderSummary renders the pipeline statistics box.
func renderSummary(stats lead.Stats, output string) string {
	rows := []struct {
		label string
		value int
	}{
		{"Companies", stats.Companies},
		{"Leads", stats.Leads},
		{"With valid email", stats.WithValidEmail},
		{"Decision makers", stats.DecisionMakers},
		{"Hot leads (80+)", stats.HotLeads},
		{"Below min score", stats.Filtered},
		{"Failed", stats.Failed},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📊 Summary"))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(fmt.Sprintf("%d", r.value))
	}
	if output != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Exported to " + output))
	}
	return boxStyle.Render(b.String()) + "\n"
}
