package interview

import (
	"context"
	"fmt"

	"github.com/abhisek/mentor/internal/capability"
	"github.com/abhisek/mentor/internal/skillgraph"
)

// tierTemplates frame the question to the skill's difficulty tier. The verb
// escalates with the tier: explain, apply, design.
var tierTemplates = map[skillgraph.Tier][]string{
	skillgraph.TierFoundational: {
		"Explain %s in your own words. What problem does it solve?",
		"What are the core concepts behind %s, and how do they fit together?",
		"When would you reach for %s, and when would you avoid it?",
	},
	skillgraph.TierIntermediate: {
		"Walk through a time you applied %s in a real project. What decisions did you make?",
		"How would you debug a production issue involving %s? Describe your approach step by step.",
		"Compare two common approaches within %s and explain when each wins.",
	},
	skillgraph.TierAdvanced: {
		"Design a system that leans heavily on %s. What are the failure modes and how do you mitigate them?",
		"How does %s behave at scale? Describe the bottlenecks you would expect and how to measure them.",
		"What tradeoffs does %s force on an architecture, and how have you navigated them?",
	},
}

// StaticBank is a deterministic question source built from tier templates.
// It never fails, which makes it the fallback when a capability-backed
// generator is unavailable or errors out.
type StaticBank struct{}

// NewStaticBank returns the template-based question source.
func NewStaticBank() *StaticBank {
	return &StaticBank{}
}

// NextQuestion picks the first template for the skill's tier that has not
// been asked this session. When every template was used it numbers a
// follow-up so the question text stays unique.
func (b *StaticBank) NextQuestion(_ context.Context, input capability.QuestionInput) (capability.Question, error) {
	templates := tierTemplates[input.Skill.Tier]
	if len(templates) == 0 {
		templates = tierTemplates[skillgraph.TierFoundational]
	}

	prior := make(map[string]bool, len(input.PriorQuestions))
	for _, q := range input.PriorQuestions {
		prior[q] = true
	}

	for _, tpl := range templates {
		text := fmt.Sprintf(tpl, input.Skill.Name)
		if !prior[text] {
			return capability.Question{SkillID: input.Skill.ID, Text: text}, nil
		}
	}

	// All templates used for this skill: number a follow-up.
	for n := 2; ; n++ {
		text := fmt.Sprintf("Follow-up %d: %s", n, fmt.Sprintf(templates[0], input.Skill.Name))
		if !prior[text] {
			return capability.Question{SkillID: input.Skill.ID, Text: text}, nil
		}
	}
}
