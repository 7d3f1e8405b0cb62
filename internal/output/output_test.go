package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Tool:    "tgreport",
		Version: "1.0",
		Identity: report.RunIdentity{
			Owner:     "visable-dev",
			Repo:      "infra-live",
			HeadSHA:   "0123456789abcdef",
			PRNumber:  42,
			ServerURL: "https://github.com",
			RunID:     1001,
		},
		Items: []report.Item{
			{
				Name:       "prod | vpc",
				Conclusion: report.Neutral,
				Title:      "Plan: 1 to add, 0 to change, 0 to destroy.",
				Summary:    "Please find below the full plan for `/prod/vpc.diff`.",
				Body:       report.FenceBody("  + resource \"aws_vpc\" \"main\" {}"),
				Source:     &report.Source{Path: "/work/prod/vpc.diff", RelPath: "/prod/vpc.diff"},
			},
			{
				Name:       "prod/dns",
				Conclusion: report.Success,
				Title:      "No changes. Your infrastructure matches the configuration.",
				Summary:    "Please find below the full plan for `/prod/dns.diff`.",
				Body:       "File /prod/dns.diff is too big. It was uploaded as an artifact of this run.",
				Offloaded:  true,
				Source:     &report.Source{Path: "/work/prod/dns.diff", RelPath: "/prod/dns.diff"},
			},
		},
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	_, err := GetWriter("xml")
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Errorf("GetWriter(xml) err = %v, want configuration error", err)
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Terragrunt Report",
		"visable-dev/infra-live#42 @ 0123456",
		"Overall: neutral (1 success, 1 neutral, 0 failure)",
		"prod | vpc",
		"Plan: 1 to add, 0 to change, 0 to destroy.",
		"uploaded as an artifact",
		"https://github.com/visable-dev/infra-live/actions/runs/1001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "aws_vpc") {
		t.Error("text output should not include plan bodies")
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var got struct {
		Tool       string        `json:"tool"`
		Conclusion string        `json:"conclusion"`
		RunURL     string        `json:"runUrl"`
		Items      []report.Item `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Tool != "tgreport" || got.Conclusion != "neutral" {
		t.Errorf("tool/conclusion = %q/%q", got.Tool, got.Conclusion)
	}
	if got.RunURL == "" {
		t.Error("runUrl missing")
	}
	if len(got.Items) != 2 || !got.Items[1].Offloaded {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, Heading+"\n") {
		t.Errorf("narrative should start with heading, got %q", out[:40])
	}
	for _, want := range []string{
		"**Overall:** :warning: neutral",
		`| prod \| vpc | :warning: neutral |`,
		"<summary>:white_check_mark: prod/dns</summary>",
		"```terraform",
		"Please find below the full plan for `/prod/vpc.diff`.",
		"[this run](https://github.com/visable-dev/infra-live/actions/runs/1001)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "<details>"); n != 2 {
		t.Errorf("got %d <details> sections, want 2", n)
	}
}

func TestMarkdownWriter_NoRunURL(t *testing.T) {
	rep := sampleReport()
	rep.Identity.RunID = 0
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, rep); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "[this run](") {
		t.Error("run link should be omitted without a run id")
	}
}

func TestHTMLWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&HTMLWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Terragrunt Report visable-dev/infra-live#42</title>",
		"<h2>Terragrunt Report</h2>",
		"<table>",
		"<details>",
		`<code class="language-terraform">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestSARIFWriter(t *testing.T) {
	rep := sampleReport()
	rep.Items = append(rep.Items, report.Item{
		Name:       report.NoFilesName,
		Conclusion: report.Failure,
		Title:      report.NoFilesTitle,
	})

	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, rep); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var got sarifLog
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if got.Version != "2.1.0" || len(got.Runs) != 1 {
		t.Fatalf("version/runs = %q/%d", got.Version, len(got.Runs))
	}
	run := got.Runs[0]
	if len(run.Tool.Driver.Rules) != 3 {
		t.Errorf("got %d rules, want 3", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(run.Results))
	}

	wantLevels := []string{"warning", "note", "error"}
	for i, r := range run.Results {
		if r.Level != wantLevels[i] {
			t.Errorf("result %d level = %q, want %q", i, r.Level, wantLevels[i])
		}
	}
	if uri := run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "prod/vpc.diff" {
		t.Errorf("uri = %q", uri)
	}
	if len(run.Results[2].Locations) != 0 {
		t.Error("no-plans result should have no location")
	}
}

func TestWriteReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := WriteReport(sampleReport(), "markdown", path); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), Heading) {
		t.Errorf("file content = %q", data[:20])
	}
}

func TestWriteReport_BadPath(t *testing.T) {
	err := WriteReport(sampleReport(), "json", filepath.Join(t.TempDir(), "missing", "dir", "out.json"))
	if !apperr.Is(err, apperr.KindIO) {
		t.Errorf("err = %v, want io error", err)
	}
}
