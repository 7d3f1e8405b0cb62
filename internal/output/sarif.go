package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/tgreport/internal/report"
)

// SARIFWriter outputs one result per report item in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, rep *report.Report) error {
	sarif := buildSARIF(rep)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

const (
	ruleNoChanges = "tgreport/no-changes"
	ruleChanges   = "tgreport/changes"
	ruleNoPlans   = "tgreport/no-plans"
)

var sarifRules = map[string]sarifRule{
	ruleNoChanges: {ID: ruleNoChanges, Name: "NoChanges", ShortDescription: sarifMessage{Text: "Plan has no infrastructure changes"}, DefaultConfig: sarifDefaultConfig{Level: "note"}},
	ruleChanges:   {ID: ruleChanges, Name: "Changes", ShortDescription: sarifMessage{Text: "Plan changes infrastructure"}, DefaultConfig: sarifDefaultConfig{Level: "warning"}},
	ruleNoPlans:   {ID: ruleNoPlans, Name: "NoPlans", ShortDescription: sarifMessage{Text: "No plan files were found"}, DefaultConfig: sarifDefaultConfig{Level: "error"}},
}

func buildSARIF(rep *report.Report) sarifLog {
	results := make([]sarifResult, 0, len(rep.Items))
	var rules []sarifRule
	seen := make(map[string]bool)

	for _, it := range rep.Items {
		ruleID := ruleFor(it)
		if !seen[ruleID] {
			seen[ruleID] = true
			rules = append(rules, sarifRules[ruleID])
		}

		result := sarifResult{
			RuleID:  ruleID,
			Level:   conclusionToLevel(it.Conclusion),
			Message: sarifMessage{Text: fmt.Sprintf("%s: %s", it.Name, it.Title)},
		}
		if it.Source != nil {
			result.Locations = []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: strings.TrimPrefix(it.Source.RelPath, "/")},
				},
			}}
		}
		results = append(results, result)
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           rep.Tool,
						Version:        rep.Version,
						InformationURI: "https://github.com/dshills/tgreport",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

func ruleFor(it report.Item) string {
	switch {
	case it.Source == nil:
		return ruleNoPlans
	case it.Conclusion == report.Success:
		return ruleNoChanges
	default:
		return ruleChanges
	}
}

// conclusionToLevel maps a check conclusion to a SARIF level.
func conclusionToLevel(c report.Conclusion) string {
	switch c {
	case report.Failure:
		return "error"
	case report.Neutral:
		return "warning"
	default:
		return "note"
	}
}
