package classify

import (
	"testing"

	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

func TestClassify_ClearWinner(t *testing.T) {
	cands := []intent.Candidate{
		{Task: taxonomy.TaskFeatureDevelopment, Confidence: 0.82},
		{Task: taxonomy.TaskProductionSupport, Confidence: 0.3},
	}

	task, ok := DefaultPolicy().Classify(cands)
	if !ok {
		t.Fatal("expected a classification")
	}
	if task != taxonomy.TaskFeatureDevelopment {
		t.Fatalf("classified %s, want feature_development", task)
	}
}

func TestClassify_NearTieIsUnknown(t *testing.T) {
	// 0.52 vs 0.49: both plausible, lead of 0.03 is inside the 0.1 margin.
	cands := []intent.Candidate{
		{Task: taxonomy.TaskIncidentResolution, Confidence: 0.52},
		{Task: taxonomy.TaskInfrastructureMaintenance, Confidence: 0.49},
	}

	if _, ok := DefaultPolicy().Classify(cands); ok {
		t.Fatal("near-tie within margin must classify as unknown")
	}
}

func TestClassify_BelowThresholdIsUnknown(t *testing.T) {
	cands := []intent.Candidate{
		{Task: taxonomy.TaskLeadGeneration, Confidence: 0.49},
	}

	if _, ok := DefaultPolicy().Classify(cands); ok {
		t.Fatal("top candidate below threshold must classify as unknown")
	}
}

func TestClassify_EmptyIsUnknown(t *testing.T) {
	if _, ok := DefaultPolicy().Classify(nil); ok {
		t.Fatal("no candidates must classify as unknown")
	}
}

func TestClassify_MarginBoundary(t *testing.T) {
	// A lead of exactly the margin qualifies.
	cands := []intent.Candidate{
		{Task: taxonomy.TaskProposalDevelopment, Confidence: 0.7},
		{Task: taxonomy.TaskLeadGeneration, Confidence: 0.6},
	}

	task, ok := Policy{Threshold: 0.5, Margin: 0.1}.Classify(cands)
	if !ok || task != taxonomy.TaskProposalDevelopment {
		t.Fatalf("lead equal to margin should classify, got (%s, %v)", task, ok)
	}
}

func TestClassify_ZeroMarginBreaksTiesByOrder(t *testing.T) {
	cands := []intent.Candidate{
		{Task: taxonomy.TaskProductionSupport, Confidence: 0.8},
		{Task: taxonomy.TaskFeatureDevelopment, Confidence: 0.8},
	}

	task, ok := Policy{Threshold: 0.5, Margin: 0}.Classify(cands)
	if !ok || task != taxonomy.TaskProductionSupport {
		t.Fatalf("stable sort should keep the first candidate on a tie, got (%s, %v)", task, ok)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	cands := []intent.Candidate{
		{Task: taxonomy.TaskProductionSupport, Confidence: 0.6},
		{Task: taxonomy.TaskFeatureDevelopment, Confidence: 0.9},
		{Task: taxonomy.TaskIncidentResolution, Confidence: 0.2},
	}

	policy := DefaultPolicy()
	first, firstOK := policy.Classify(cands)
	for i := 0; i < 50; i++ {
		task, ok := policy.Classify(cands)
		if task != first || ok != firstOK {
			t.Fatalf("run %d: got (%s, %v), want (%s, %v)", i, task, ok, first, firstOK)
		}
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	cands := []intent.Candidate{
		{Task: taxonomy.TaskProductionSupport, Confidence: 0.2},
		{Task: taxonomy.TaskFeatureDevelopment, Confidence: 0.9},
	}

	DefaultPolicy().Classify(cands)

	if cands[0].Task != taxonomy.TaskProductionSupport || cands[1].Task != taxonomy.TaskFeatureDevelopment {
		t.Fatal("Classify must not reorder the caller's slice")
	}
}
