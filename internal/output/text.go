package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/tgreport/internal/report"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// TextWriter outputs a human-readable terminal summary. Plan bodies are
// omitted; use markdown or json for the full text.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, rep *report.Report) error {
	ew := &errWriter{w: w}
	counts := rep.Counts()
	overall := rep.Conclusion()

	ew.println(headerStyle.Render("Terragrunt Report"))
	if label := repoLabel(rep.Identity); label != "" {
		head := rep.Identity.HeadSHA
		if len(head) > 7 {
			head = head[:7]
		}
		ew.printf("Repository: %s @ %s\n", label, head)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Overall: %s (%d success, %d neutral, %d failure)\n",
		conclusionStyle(overall).Render(string(overall)),
		counts[report.Success], counts[report.Neutral], counts[report.Failure])
	ew.println(strings.Repeat("─", 60))

	width := 0
	for _, it := range rep.Items {
		width = max(width, lipgloss.Width(it.Name))
	}

	for _, it := range rep.Items {
		icon := conclusionStyle(it.Conclusion).Render(conclusionIcon(it.Conclusion))
		pad := strings.Repeat(" ", width-lipgloss.Width(it.Name))
		ew.printf("%s %s%s  %s\n", icon, it.Name, pad, it.Title)
		if it.Offloaded {
			ew.printf("     %s\n", dimStyle.Render(it.Body))
		}
	}

	if u := rep.Identity.RunURL(); u != "" {
		ew.printf("\n%s\n", dimStyle.Render(u))
	}
	return ew.err
}

func conclusionStyle(c report.Conclusion) lipgloss.Style {
	switch c {
	case report.Success:
		return successStyle
	case report.Neutral:
		return neutralStyle
	default:
		return failureStyle
	}
}

func conclusionIcon(c report.Conclusion) string {
	switch c {
	case report.Success:
		return "[ok]"
	case report.Neutral:
		return "[~] "
	case report.Failure:
		return "[!!]"
	default:
		return "[?] "
	}
}
