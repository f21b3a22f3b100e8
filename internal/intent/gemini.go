package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini-backed extractor.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiExtractor asks a Gemini model to score the prompt against the closed
// task label set. Raw labels are mapped back onto the registry's task types;
// labels the registry does not recognize are dropped.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	reg    *taxonomy.Registry
}

// NewGeminiExtractor creates a GeminiExtractor. The API key is required.
func NewGeminiExtractor(ctx context.Context, cfg GeminiConfig, reg *taxonomy.Registry) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiExtractor{client: client, model: cfg.Model, reg: reg}, nil
}

// Extract calls the model and parses its JSON response into candidates.
// Any failure of the call or the parse surfaces as ErrExtractionFailed.
func (e *GeminiExtractor) Extract(ctx context.Context, prompt string) ([]Candidate, error) {
	result, err := e.client.Models.GenerateContent(ctx,
		e.model,
		genai.Text(e.buildInstruction(prompt)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	cands, err := parseCandidates(e.reg, result.Text())
	if err != nil {
		return nil, err
	}

	slog.Debug("gemini extraction complete", "candidates", len(cands))
	return cands, nil
}

// buildInstruction produces the scoring instruction sent to the model. The
// closed label set is enumerated explicitly so the model cannot invent tasks.
func (e *GeminiExtractor) buildInstruction(prompt string) string {
	var b strings.Builder
	b.WriteString("Score how well the user request matches each task category.\n")
	b.WriteString("Categories:\n")
	for _, t := range e.reg.Tasks() {
		fmt.Fprintf(&b, "- %s (%s)\n", t.ID, t.DisplayName)
	}
	b.WriteString("Respond with a JSON array of objects {\"task\": string, \"score\": number} ")
	b.WriteString("using scores between 0 and 1. Omit categories that do not apply.\n")
	b.WriteString("User request: ")
	b.WriteString(prompt)
	return b.String()
}

// parseCandidates decodes the model's JSON response and maps its labels onto
// the registry's closed task type set.
func parseCandidates(reg *taxonomy.Registry, raw string) ([]Candidate, error) {
	var entries []struct {
		Task  string  `json:"task"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: parsing model response: %v", ErrExtractionFailed, err)
	}

	seen := make(map[taxonomy.TaskType]bool, len(entries))
	var cands []Candidate
	for _, entry := range entries {
		task, ok := reg.MapLabel(entry.Task)
		if !ok {
			slog.Warn("dropping unmapped task label", "label", entry.Task)
			continue
		}
		if seen[task] {
			continue
		}
		seen[task] = true
		cands = append(cands, Candidate{Task: task, Confidence: clamp(entry.Score)})
	}

	sortCandidates(cands)
	return cands, nil
}
