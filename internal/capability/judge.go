package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/abhisek/mentor/internal/llm"
)

// JudgeConfig holds configuration for the LLM judge.
type JudgeConfig struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultJudgeConfig returns sensible defaults.
func DefaultJudgeConfig() JudgeConfig {
	return JudgeConfig{
		MaxTokens:   512,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
}

// LLMJudge implements ResponseJudge using the LLM provider.
type LLMJudge struct {
	provider llm.Provider
	cfg      JudgeConfig
}

// NewLLMJudge creates an LLM-backed judge.
func NewLLMJudge(provider llm.Provider, cfg JudgeConfig) *LLMJudge {
	return &LLMJudge{provider: provider, cfg: cfg}
}

const judgeSystemPrompt = `You are a senior engineer scoring one answer from a technical screening interview.

Instructions:
- Score the answer's quality from 0.0 (no understanding) to 1.0 (complete and correct), considering accuracy, depth and relevance to the question.
- A partially correct answer with a real grasp of the core idea lands between 0.4 and 0.7.
- Report your own confidence in the score separately. Mark ambiguous, evasive or off-topic answers with low confidence rather than guessing a score.
- Write one or two sentences of feedback addressed directly to the candidate. Name what was right before what was missing.
- Judge only the answer given. Ignore spelling and grammar.`

var judgeUserTemplate = template.Must(template.New("judge").Parse(`Skill under assessment: {{.Skill.Name}}
Skill description: {{.Skill.Description}}

Question: {{.Question}}

Candidate's answer:
{{.Answer}}`))

// judgmentOutput is the raw LLM response.
type judgmentOutput struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback"`
}

// Judge scores one interview answer.
func (j *LLMJudge) Judge(ctx context.Context, input JudgeInput) (Judgment, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeJudging)
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := judgeUserTemplate.Execute(&buf, input); err != nil {
		return Judgment{}, fmt.Errorf("build judge prompt: %w", err)
	}

	req := llm.Request{
		System: judgeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buf.String()},
		},
		Schema:      JudgmentSchema,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
	}

	resp, err := j.provider.Generate(ctx, req)
	if err != nil {
		return Judgment{}, mapTimeout(fmt.Errorf("LLM judging failed: %w", err), "answer judging", j.cfg.Timeout)
	}

	var raw judgmentOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Judgment{}, fmt.Errorf("failed to parse judgment response: %w", err)
	}

	return Judgment{
		Score:      raw.Score,
		Confidence: raw.Confidence,
		Feedback:   raw.Feedback,
	}, nil
}
