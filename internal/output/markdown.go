package output

import (
	"io"
	"strings"

	"github.com/dshills/tgreport/internal/report"
)

// Heading starts every rendered narrative.
const Heading = "## Terragrunt Report"

// MarkdownWriter outputs the report as a PR-comment-friendly narrative.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, rep *report.Report) error {
	ew := &errWriter{w: w}
	counts := rep.Counts()
	overall := rep.Conclusion()

	ew.printf("%s\n\n", Heading)
	ew.printf("**Overall:** %s %s (%d success, %d neutral, %d failure)\n\n",
		mdConclusionIcon(overall), overall,
		counts[report.Success], counts[report.Neutral], counts[report.Failure])

	ew.println("| Plan | Conclusion | Result |")
	ew.println("|------|------------|--------|")
	for _, it := range rep.Items {
		ew.printf("| %s | %s %s | %s |\n",
			mdCell(it.Name), mdConclusionIcon(it.Conclusion), it.Conclusion, mdCell(it.Title))
	}
	ew.println("")

	for _, it := range rep.Items {
		ew.printf("<details>\n<summary>%s %s</summary>\n\n", mdConclusionIcon(it.Conclusion), htmlEscaper.Replace(it.Name))
		ew.printf("**%s**\n\n", it.Title)
		ew.printf("%s\n", it.Summary)
		if it.Body != "" {
			ew.printf("\n%s\n", strings.TrimRight(it.Body, "\n"))
		}
		ew.println("\n</details>\n")
	}

	if u := rep.Identity.RunURL(); u != "" {
		ew.printf("*Generated by %s in [this run](%s)*\n", rep.Tool, u)
	}
	return ew.err
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// mdCell makes s safe inside a table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func mdConclusionIcon(c report.Conclusion) string {
	switch c {
	case report.Success:
		return ":white_check_mark:"
	case report.Neutral:
		return ":warning:"
	case report.Failure:
		return ":x:"
	default:
		return ":grey_question:"
	}
}
