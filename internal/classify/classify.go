// Package classify selects a single task type from ranked intent candidates.
//
// Selection is deliberately conservative: a candidate wins only when it is
// confident enough on its own and clearly ahead of the runner-up. Anything
// else classifies as unknown, which the pipeline turns into a terminal deny.
package classify

import (
	"sort"

	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Default policy values. Tunable per deployment, not hard-coded anywhere else.
const (
	DefaultThreshold = 0.5
	DefaultMargin    = 0.1
)

// Policy holds the confidence threshold and tie-break margin.
type Policy struct {
	// Threshold is the minimum confidence the top candidate must reach.
	Threshold float64
	// Margin is the minimum lead the top candidate must hold over the
	// second-highest candidate. A near-tie within the margin is ambiguous.
	Margin float64
}

// DefaultPolicy returns the recommended policy values.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, Margin: DefaultMargin}
}

// Classify picks the winning task type from the candidate list. The second
// return value is false when no candidate qualifies (unknown). Given an
// identical candidate list the result is always the same: sorting is stable
// and the input slice is never modified.
func (p Policy) Classify(cands []intent.Candidate) (taxonomy.TaskType, bool) {
	if len(cands) == 0 {
		return "", false
	}

	ranked := make([]intent.Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	top := ranked[0]
	if top.Confidence < p.Threshold {
		return "", false
	}
	if len(ranked) > 1 && top.Confidence-ranked[1].Confidence < p.Margin {
		return "", false
	}
	return top.Task, true
}
