package capability

import "github.com/abhisek/mentor/internal/llm"

// MentionsSchema defines the JSON schema for evidence analysis responses.
var MentionsSchema = &llm.Schema{
	Name:        "skill-mentions",
	Description: "Skills detected in a piece of evidence text, with salience",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mentions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"skill_id": map[string]any{
							"type":        "string",
							"description": "The ID of the mentioned skill, from the candidate list",
						},
						"salience": map[string]any{
							"type":        "number",
							"minimum":     0.0,
							"maximum":     1.0,
							"description": "How prominently the skill figures in the text, from a passing buzzword (low) to described hands-on depth (high)",
						},
						"evidence": map[string]any{
							"type":        "string",
							"description": "A short quote from the text supporting the mention",
						},
					},
					"required":             []any{"skill_id", "salience", "evidence"},
					"additionalProperties": false,
				},
				"description": "One entry per candidate skill the text gives evidence for. Empty when none are mentioned.",
			},
		},
		"required":             []any{"mentions"},
		"additionalProperties": false,
	},
}

// JudgmentSchema defines the JSON schema for answer judging responses.
var JudgmentSchema = &llm.Schema{
	Name:        "answer-judgment",
	Description: "Score and feedback for one interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "Answer quality: 0.0 is no understanding, 1.0 is complete and correct",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "The judge's certainty in the score. Low for ambiguous or off-topic answers.",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences of feedback addressed to the candidate",
			},
		},
		"required":             []any{"score", "confidence", "feedback"},
		"additionalProperties": false,
	},
}

// QuestionSchema defines the JSON schema for interview question responses.
var QuestionSchema = &llm.Schema{
	Name:        "interview-question",
	Description: "A single open-ended technical interview question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question, self-contained and answerable in a few sentences of prose without writing code",
			},
		},
		"required":             []any{"question_text"},
		"additionalProperties": false,
	},
}
