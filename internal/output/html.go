package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/dshills/tgreport/internal/report"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// HTMLWriter renders the markdown narrative as a standalone HTML page.
type HTMLWriter struct{}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// The narrative relies on raw <details> blocks.
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

func (h *HTMLWriter) Write(w io.Writer, rep *report.Report) error {
	var src bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&src, rep); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := markdown.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}

	ew := &errWriter{w: w}
	ew.println("<!DOCTYPE html>")
	ew.println(`<html lang="en">`)
	ew.println(`<head><meta charset="utf-8">`)
	ew.printf("<title>Terragrunt Report %s</title>\n", html.EscapeString(repoLabel(rep.Identity)))
	ew.println("</head>")
	ew.println("<body>")
	ew.printf("%s", body.String())
	ew.println("</body>")
	ew.println("</html>")
	return ew.err
}

func repoLabel(id report.RunIdentity) string {
	if id.Owner == "" || id.Repo == "" {
		return ""
	}
	if id.PRNumber > 0 {
		return fmt.Sprintf("%s/%s#%d", id.Owner, id.Repo, id.PRNumber)
	}
	return id.Owner + "/" + id.Repo
}
