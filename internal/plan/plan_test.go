package plan

import (
	"fmt"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind Kind
		want     ChangeCount
	}{
		{
			name:     "sentinel only",
			text:     NoChangesSentinel,
			wantKind: NoChanges,
		},
		{
			name:     "sentinel wins over summary",
			text:     "Plan: 3 to add, 1 to change, 0 to destroy.\n\n" + NoChangesSentinel + "\n",
			wantKind: NoChanges,
		},
		{
			name:     "summary line",
			text:     "Terraform will perform the following actions:\n\nPlan: 2 to add, 0 to change, 1 to destroy.\n",
			wantKind: Changes,
			want:     ChangeCount{Add: 2, Destroy: 1},
		},
		{
			name:     "zero summary",
			text:     "Plan: 0 to add, 0 to change, 0 to destroy.",
			wantKind: Changes,
		},
		{
			name:     "trailing text on summary line",
			text:     "Plan: 1 to add, 2 to change, 3 to destroy. Extra words\n",
			wantKind: Changes,
			want:     ChangeCount{Add: 1, Change: 2, Destroy: 3},
		},
		{
			name:     "first match wins",
			text:     "Plan: 1 to add, 0 to change, 0 to destroy.\nPlan: 9 to add, 9 to change, 9 to destroy.\n",
			wantKind: Changes,
			want:     ChangeCount{Add: 1},
		},
		{
			name:     "summary not at line start",
			text:     "  Plan: 1 to add, 0 to change, 0 to destroy.\n",
			wantKind: Unparseable,
		},
		{
			name:     "large counts",
			text:     "Plan: 18446744073709551615 to add, 0 to change, 0 to destroy.",
			wantKind: Changes,
			want:     ChangeCount{Add: 18446744073709551615},
		},
		{
			name:     "count overflows uint64",
			text:     "Plan: 18446744073709551616 to add, 0 to change, 0 to destroy.",
			wantKind: Unparseable,
		},
		{
			name:     "garbage",
			text:     "Error: something went wrong",
			wantKind: Unparseable,
		},
		{
			name:     "empty",
			text:     "",
			wantKind: Unparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Count != tt.want {
				t.Errorf("Count = %+v, want %+v", got.Count, tt.want)
			}
			if tt.wantKind == Unparseable {
				if got.Raw != tt.text {
					t.Errorf("Raw = %q, want input text", got.Raw)
				}
				if got.Reason == "" {
					t.Error("Reason should be set for unparseable outcome")
				}
			}
		})
	}
}

func TestParseRoundTripsCounts(t *testing.T) {
	for _, c := range []ChangeCount{
		{},
		{Add: 1},
		{Change: 7},
		{Destroy: 42},
		{Add: 100, Change: 200, Destroy: 300},
	} {
		text := fmt.Sprintf("Plan: %d to add, %d to change, %d to destroy.", c.Add, c.Change, c.Destroy)
		got := Parse(text)
		if got.Kind != Changes || got.Count != c {
			t.Errorf("Parse(%q) = %+v, want Changes %+v", text, got, c)
		}
		if got.Title() != text {
			t.Errorf("Title() = %q, want %q", got.Title(), text)
		}
	}
}

func TestSentinelAnywhere(t *testing.T) {
	noise := strings.Repeat("random line\n", 50)
	got := Parse(noise + "prefix " + NoChangesSentinel + " suffix\n" + noise)
	if got.Kind != NoChanges {
		t.Errorf("Kind = %v, want NoChanges", got.Kind)
	}
	if got.Title() != NoChangesSentinel {
		t.Errorf("Title() = %q", got.Title())
	}
}

func TestChangeCountIsZero(t *testing.T) {
	if !(ChangeCount{}).IsZero() {
		t.Error("zero count should be zero")
	}
	if (ChangeCount{Destroy: 1}).IsZero() {
		t.Error("destroy=1 should not be zero")
	}
}

func TestKindString(t *testing.T) {
	if NoChanges.String() != "no-changes" || Changes.String() != "changes" || Unparseable.String() != "unparseable" {
		t.Error("unexpected Kind strings")
	}
}
