package report

import (
	"fmt"
	"strings"

	"github.com/dshills/tgreport/internal/plan"
)

// RunIdentity says where results are published and which run produced them.
type RunIdentity struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	HeadSHA   string `json:"headSha"`
	PRNumber  int    `json:"prNumber,omitempty"`
	ServerURL string `json:"serverUrl,omitempty"`
	RunID     int64  `json:"runId,omitempty"`
}

// RunURL links to the actions overview of the run. It is empty when the run
// id is unknown (local runs).
func (id RunIdentity) RunURL() string {
	if id.RunID == 0 {
		return ""
	}
	server := strings.TrimRight(id.ServerURL, "/")
	if server == "" {
		server = "https://github.com"
	}
	return fmt.Sprintf("%s/%s/%s/actions/runs/%d", server, id.Owner, id.Repo, id.RunID)
}

// FileResult is one discovered plan file after parsing and naming.
type FileResult struct {
	Path       string       `json:"path"`
	RelPath    string       `json:"relPath"`
	Name       string       `json:"name"`
	Outcome    plan.Outcome `json:"-"`
	Conclusion Conclusion   `json:"conclusion"`
	Body       string       `json:"-"`
}

// Source points back at the plan file an Item was built from.
type Source struct {
	Path    string `json:"path"`
	RelPath string `json:"relPath"`
}

// Item is a single status entry: a check run, or one section of a comment.
type Item struct {
	Name       string     `json:"name"`
	Conclusion Conclusion `json:"conclusion"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Body       string     `json:"body,omitempty"`
	// Offloaded is set once Body was replaced by an artifact pointer.
	Offloaded bool    `json:"offloaded,omitempty"`
	Source    *Source `json:"source,omitempty"`
}

// Report is the assembled output of one run.
type Report struct {
	Tool     string      `json:"tool"`
	Version  string      `json:"version"`
	Identity RunIdentity `json:"identity"`
	Items    []Item      `json:"items"`
}

// Conclusion returns the most severe conclusion across all items.
func (r *Report) Conclusion() Conclusion {
	return Worst(r.Items)
}

// Counts tallies items per conclusion.
func (r *Report) Counts() map[Conclusion]int {
	m := make(map[Conclusion]int, 3)
	for _, it := range r.Items {
		m[it.Conclusion]++
	}
	return m
}
