package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/skillgraph"
)

// AnalyzerConfig holds configuration for the LLM analyzer.
type AnalyzerConfig struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultAnalyzerConfig returns sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MaxTokens:   1024,
		Temperature: 0.0,
		Timeout:     30 * time.Second,
	}
}

// LLMAnalyzer implements TextAnalyzer using the LLM provider.
type LLMAnalyzer struct {
	provider llm.Provider
	cfg      AnalyzerConfig
	logger   *zap.Logger
}

// NewLLMAnalyzer creates an LLM-backed analyzer.
func NewLLMAnalyzer(provider llm.Provider, cfg AnalyzerConfig, log *zap.Logger) *LLMAnalyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMAnalyzer{provider: provider, cfg: cfg, logger: log}
}

const analyzeSystemPrompt = `You are reading evidence about a person's technical background: a resume, a project description, or a self-assessment note.

Instructions:
- For each candidate skill the text gives evidence for, report a mention with a salience score.
- Salience reflects depth of evidence: a skill merely listed among buzzwords scores around 0.2-0.3; described project work scores around 0.5-0.7; years of hands-on depth scores 0.8 or above.
- Only use skill IDs from the candidate list. Do NOT invent IDs.
- Quote the strongest supporting phrase from the text as evidence, trimmed to one line.
- Skills the text says nothing about get no mention at all. An empty mentions list is a valid answer.`

// mentionsOutput is the raw LLM response before filtering.
type mentionsOutput struct {
	Mentions []struct {
		SkillID  string  `json:"skill_id"`
		Salience float64 `json:"salience"`
		Evidence string  `json:"evidence"`
	} `json:"mentions"`
}

// Analyze scans text for mentions of the candidate skills.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string, skills []skillgraph.Skill) ([]Mention, error) {
	if strings.TrimSpace(text) == "" || len(skills) == 0 {
		return nil, nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeEvidence)
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: analyzeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnalyzeMessage(text, skills)},
		},
		Schema:      MentionsSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}

	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return nil, mapTimeout(fmt.Errorf("LLM analysis failed: %w", err), "evidence analysis", a.cfg.Timeout)
	}

	var raw mentionsOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	known := make(map[string]bool, len(skills))
	for _, s := range skills {
		known[s.ID] = true
	}

	mentions := make([]Mention, 0, len(raw.Mentions))
	for _, m := range raw.Mentions {
		// The model occasionally returns an ID outside the candidate list
		// despite the instructions. Drop it rather than polluting the model.
		if !known[m.SkillID] {
			a.logger.Debug("dropping mention of unknown skill", zap.String("skill", m.SkillID))
			continue
		}
		mentions = append(mentions, Mention{
			SkillID:  m.SkillID,
			Salience: m.Salience,
			Evidence: m.Evidence,
		})
	}
	return mentions, nil
}

// buildAnalyzeMessage constructs the user message with the candidate list
// and the evidence text.
func buildAnalyzeMessage(text string, skills []skillgraph.Skill) string {
	var b strings.Builder

	b.WriteString("Candidate skills:\n")
	for _, s := range skills {
		fmt.Fprintf(&b, "- %s: %s", s.ID, s.Name)
		if len(s.Keywords) > 0 {
			fmt.Fprintf(&b, " (keywords: %s)", strings.Join(s.Keywords, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nEvidence text:\n")
	b.WriteString(text)

	return b.String()
}
