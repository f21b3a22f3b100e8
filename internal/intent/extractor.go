// Package intent wraps the language-understanding capability that maps a
// free-text prompt onto ranked task type candidates.
//
// The capability is untrusted and non-deterministic; everything downstream
// of the Extractor interface is deterministic and testable with a stub.
package intent

import (
	"context"
	"errors"
	"sort"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Candidate is one ranked hypothesis for the task type behind a prompt.
// Candidates are transient per request and never persisted.
type Candidate struct {
	Task       taxonomy.TaskType `json:"task"`
	Confidence float64           `json:"confidence"`
}

// ErrExtractionFailed wraps any failure of the external capability (timeout,
// unavailable, malformed response). The pipeline treats it as equivalent to
// "no candidates": fail-closed, never an implicit allow.
var ErrExtractionFailed = errors.New("intent extraction failed")

// Extractor produces task type candidates for a prompt, ordered by
// descending confidence. Confidences are in [0,1] and need not sum to 1.
type Extractor interface {
	Extract(ctx context.Context, prompt string) ([]Candidate, error)
}

// sortCandidates orders candidates by descending confidence. The sort is
// stable so that identical candidate lists always produce identical output,
// which keeps classification idempotent.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
}

// clamp bounds a raw score to [0,1].
func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
