package report

import (
	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/plan"
)

// Conclusion is the review verdict of a check.
type Conclusion string

const (
	Success Conclusion = "success"
	Neutral Conclusion = "neutral"
	Failure Conclusion = "failure"
)

// Rank orders conclusions by severity (higher = worse).
func Rank(c Conclusion) int {
	switch c {
	case Failure:
		return 3
	case Neutral:
		return 2
	case Success:
		return 1
	default:
		return 0
	}
}

// Worst returns the most severe conclusion among items, Success for none.
func Worst(items []Item) Conclusion {
	worst := Success
	for _, it := range items {
		if Rank(it.Conclusion) > Rank(worst) {
			worst = it.Conclusion
		}
	}
	return worst
}

// ParseConclusion validates a conclusion string.
func ParseConclusion(s string) (Conclusion, error) {
	switch c := Conclusion(s); c {
	case Success, Neutral, Failure:
		return c, nil
	}
	return "", apperr.Newf(apperr.KindConfiguration, "unknown conclusion %q", s)
}

// ConclusionFor maps a parsed plan to a conclusion. A plan whose counts are
// all zero is treated like "no changes". Unparseable plans are a format error.
func ConclusionFor(o plan.Outcome) (Conclusion, error) {
	switch o.Kind {
	case plan.NoChanges:
		return Success, nil
	case plan.Changes:
		if o.Count.IsZero() {
			return Success, nil
		}
		return Neutral, nil
	}
	e := apperr.New(apperr.KindFormat, "plan has neither a summary line nor the no-changes line: "+o.Reason)
	e.Detail = o.Raw
	return "", e
}
