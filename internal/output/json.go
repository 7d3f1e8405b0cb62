package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/tgreport/internal/report"
)

// JSONWriter outputs the full report as JSON.
type JSONWriter struct{}

type jsonReport struct {
	*report.Report
	Conclusion report.Conclusion `json:"conclusion"`
	RunURL     string            `json:"runUrl,omitempty"`
}

func (j *JSONWriter) Write(w io.Writer, rep *report.Report) error {
	data, err := json.MarshalIndent(jsonReport{
		Report:     rep,
		Conclusion: rep.Conclusion(),
		RunURL:     rep.Identity.RunURL(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
