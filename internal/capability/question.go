package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mentor/internal/llm"
)

// QuestionConfig holds configuration for the LLM question source.
type QuestionConfig struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// MaxPriorQuestions is the maximum number of prior questions to include
	// in the prompt for deduplication.
	MaxPriorQuestions int
}

// DefaultQuestionConfig returns sensible defaults.
func DefaultQuestionConfig() QuestionConfig {
	return QuestionConfig{
		MaxTokens:         512,
		Temperature:       0.7,
		Timeout:           30 * time.Second,
		MaxPriorQuestions: 10,
	}
}

// LLMQuestionSource implements QuestionSource using the LLM provider.
type LLMQuestionSource struct {
	provider llm.Provider
	cfg      QuestionConfig
}

// NewLLMQuestionSource creates an LLM-backed question source.
func NewLLMQuestionSource(provider llm.Provider, cfg QuestionConfig) *LLMQuestionSource {
	return &LLMQuestionSource{provider: provider, cfg: cfg}
}

const questionSystemPrompt = `You are a senior engineer running a spoken technical screening interview.

Rules:
- Ask a single open-ended question probing the given skill at the given difficulty level.
- The question must be answerable in a few sentences of prose. No whiteboard coding, no multi-part questions.
- foundational difficulty asks for definitions and basic usage. intermediate asks how and why. advanced asks about trade-offs, failure modes and design decisions.
- The question must be self-contained: do not reference earlier questions or assume shared context.
- Do not repeat or trivially rephrase any question from the "already asked" list.`

// questionOutput is the raw LLM response.
type questionOutput struct {
	QuestionText string `json:"question_text"`
}

// NextQuestion produces one interview question for the given skill.
func (s *LLMQuestionSource) NextQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestions)
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: questionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildQuestionMessage(input, s.cfg)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return Question{}, mapTimeout(fmt.Errorf("LLM question generation failed: %w", err), "question generation", s.cfg.Timeout)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Question{}, fmt.Errorf("failed to parse question response: %w", err)
	}
	if strings.TrimSpace(raw.QuestionText) == "" {
		return Question{}, fmt.Errorf("LLM returned an empty question")
	}

	return Question{
		SkillID: input.Skill.ID,
		Text:    raw.QuestionText,
	}, nil
}

// buildQuestionMessage constructs the user message from QuestionInput.
func buildQuestionMessage(input QuestionInput, cfg QuestionConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Skill: %s\n", input.Skill.Name)
	fmt.Fprintf(&b, "Description: %s\n", input.Skill.Description)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Skill.Tier)
	if len(input.Skill.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(input.Skill.Keywords, ", "))
	}

	b.WriteString("\nAlready asked in this interview:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildDedup formats prior questions for the prompt, respecting the max
// limit. Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}

	// Keep only the most recent N questions.
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
