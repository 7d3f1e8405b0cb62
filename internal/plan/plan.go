package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoChangesSentinel is printed by terraform when the plan is empty.
const NoChangesSentinel = "No changes. Your infrastructure matches the configuration."

// summaryRe matches the plan summary line. Multiline mode anchors ^ at every
// line start; FindStringSubmatch returns the first match only, so summaries
// quoted further down (nested module output) are ignored.
var summaryRe = regexp.MustCompile(`(?m)^Plan: (\d+) to add, (\d+) to change, (\d+) to destroy\.`)

// ChangeCount is the number of resources a plan adds, changes and destroys.
type ChangeCount struct {
	Add     uint64 `json:"add"`
	Change  uint64 `json:"change"`
	Destroy uint64 `json:"destroy"`
}

// IsZero reports whether the plan changes nothing.
func (c ChangeCount) IsZero() bool {
	return c.Add == 0 && c.Change == 0 && c.Destroy == 0
}

func (c ChangeCount) String() string {
	return fmt.Sprintf("Plan: %d to add, %d to change, %d to destroy.", c.Add, c.Change, c.Destroy)
}

// Kind tags an Outcome.
type Kind int

const (
	Unparseable Kind = iota
	NoChanges
	Changes
)

func (k Kind) String() string {
	switch k {
	case NoChanges:
		return "no-changes"
	case Changes:
		return "changes"
	default:
		return "unparseable"
	}
}

// Outcome is the parsed result of one plan file.
type Outcome struct {
	Kind  Kind
	Count ChangeCount
	// Raw holds the input text when Kind is Unparseable.
	Raw string
	// Reason explains why parsing failed.
	Reason string
}

// Title returns the one-line summary for the outcome.
func (o Outcome) Title() string {
	switch o.Kind {
	case NoChanges:
		return NoChangesSentinel
	case Changes:
		return o.Count.String()
	default:
		return ""
	}
}

// Parse interprets a plan text.
//
// The no-changes sentinel anywhere in the text wins over everything else.
// Otherwise the first line starting with the plan summary is used. Text with
// neither is Unparseable.
func Parse(text string) Outcome {
	if strings.Contains(text, NoChangesSentinel) {
		return Outcome{Kind: NoChanges}
	}

	m := summaryRe.FindStringSubmatch(text)
	if m == nil {
		return Outcome{Kind: Unparseable, Raw: text, Reason: "no plan summary or no-changes line found"}
	}

	var nums [3]uint64
	for i := range nums {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Outcome{Kind: Unparseable, Raw: text, Reason: fmt.Sprintf("plan count %q out of range", m[i+1])}
		}
		nums[i] = n
	}

	return Outcome{
		Kind:  Changes,
		Count: ChangeCount{Add: nums[0], Change: nums[1], Destroy: nums[2]},
	}
}
