package intent

import (
	"context"
	"strings"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

// keywordOrder fixes the iteration order so that ties between tasks with
// equal confidence always resolve the same way.
var keywordOrder = []taxonomy.TaskType{
	taxonomy.TaskFeatureDevelopment,
	taxonomy.TaskProductionSupport,
	taxonomy.TaskIncidentResolution,
	taxonomy.TaskInfrastructureMaintenance,
	taxonomy.TaskLeadGeneration,
	taxonomy.TaskProposalDevelopment,
}

// keywordTable maps each task type to phrases that indicate it.
var keywordTable = map[taxonomy.TaskType][]string{
	taxonomy.TaskFeatureDevelopment: {
		"implement", "develop", "create", "build", "add", "new feature",
		"enhancement", "functionality", "code", "application",
	},
	taxonomy.TaskProductionSupport: {
		"production", "server down", "error", "bug", "hotfix", "debug",
		"issue", "problem", "fix", "logs", "crash",
	},
	taxonomy.TaskIncidentResolution: {
		"ticket", "incident", "troubleshoot", "investigate", "resolve",
		"network", "connectivity", "outage", "itsm",
	},
	taxonomy.TaskInfrastructureMaintenance: {
		"maintenance", "script", "configuration", "server", "infrastructure",
		"update", "patch", "system",
	},
	taxonomy.TaskLeadGeneration: {
		"lead", "prospect", "research", "campaign", "outbound",
		"client", "customer", "sales",
	},
	taxonomy.TaskProposalDevelopment: {
		"proposal", "collateral", "presentation", "meeting",
		"client", "pitch", "document",
	},
}

// KeywordExtractor scores prompts against per-task keyword tables. It is
// fully deterministic and needs no external capability, which makes it the
// default extractor when no model API key is configured.
type KeywordExtractor struct{}

// NewKeywordExtractor returns a KeywordExtractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Extract scores each task type by the number of its keywords occurring in
// the prompt. Confidence saturates with the match count: one match scores
// 0.5, two 0.67, three 0.75, approaching 1. Tasks with no matches are absent.
func (e *KeywordExtractor) Extract(ctx context.Context, prompt string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(prompt)
	var cands []Candidate
	for _, task := range keywordOrder {
		matches := 0
		for _, kw := range keywordTable[task] {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		cands = append(cands, Candidate{
			Task:       task,
			Confidence: float64(matches) / float64(matches+1),
		})
	}

	sortCandidates(cands)
	return cands, nil
}
