package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/report"
)

// Formats accepted by GetWriter.
var Formats = []string{"text", "json", "markdown", "html", "sarif"}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, rep *report.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, apperr.Newf(apperr.KindConfiguration, "unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(rep *report.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return apperr.Wrap(err, apperr.KindIO, "creating output file")
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	if err := writer.Write(w, rep); err != nil {
		return apperr.Wrap(err, apperr.KindIO, fmt.Sprintf("writing %s report", format))
	}
	return nil
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
