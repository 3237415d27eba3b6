// Package capability wraps the LLM provider behind the three narrow
// abilities the rest of the system needs: reading skill evidence out of
// free text, judging interview answers, and producing interview questions.
// Callers depend on these interfaces, never on a provider directly, so a
// deterministic implementation can stand in for the LLM anywhere.
package capability

import (
	"context"

	"github.com/abhisek/mentor/internal/skillgraph"
)

// Mention is one skill detected in a piece of evidence text.
type Mention struct {
	// SkillID identifies the mentioned skill. Always one of the candidate
	// skills the analyzer was given.
	SkillID string

	// Salience is how prominently the skill figures in the text (0.0-1.0).
	// A passing buzzword scores low; years of described hands-on work
	// scores high.
	Salience float64

	// Evidence is a short quote or summary supporting the mention.
	Evidence string
}

// TextAnalyzer finds skill mentions in free-form evidence text.
type TextAnalyzer interface {
	// Analyze scans text for mentions of the candidate skills. A text that
	// mentions none of them returns an empty slice, not an error.
	Analyze(ctx context.Context, text string, skills []skillgraph.Skill) ([]Mention, error)
}

// JudgeInput is one interview answer to score.
type JudgeInput struct {
	Skill    skillgraph.Skill
	Question string
	Answer   string
}

// Judgment is the judge's verdict on one answer.
type Judgment struct {
	// Score is the answer's quality (0.0-1.0). 0 is no understanding,
	// 1 is a complete and correct answer.
	Score float64

	// Confidence is the judge's own certainty in the score (0.0-1.0).
	// A rambling or ambiguous answer scores low here.
	Confidence float64

	// Feedback is a one- or two-sentence explanation for the learner.
	Feedback string
}

// ResponseJudge scores free-form interview answers.
type ResponseJudge interface {
	Judge(ctx context.Context, input JudgeInput) (Judgment, error)
}

// QuestionInput holds the context for generating one interview question.
type QuestionInput struct {
	// Skill is the target skill for the question.
	Skill skillgraph.Skill

	// PriorQuestions contains the text of questions already asked in this
	// session. Used for deduplication in the prompt.
	PriorQuestions []string
}

// Question is one generated interview question.
type Question struct {
	SkillID string
	Text    string
}

// QuestionSource produces interview questions.
type QuestionSource interface {
	NextQuestion(ctx context.Context, input QuestionInput) (Question, error)
}
