package capability

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/abhisek/mentor/internal/skillgraph"
)

// Keyword matching can establish that a skill appears, not how deeply it is
// known, so its salience starts low and saturates well below 1.0.
const (
	keywordBaseSalience = 0.3
	keywordStepSalience = 0.15
	keywordMaxSalience  = 0.9
)

// KeywordAnalyzer is a deterministic TextAnalyzer that matches skill
// keywords literally. It serves as the no-LLM fallback for ingestion and
// keeps tests independent of a provider.
type KeywordAnalyzer struct{}

// Analyze matches each skill's name and keywords against the text. Salience
// grows with the number of distinct matched terms.
func (KeywordAnalyzer) Analyze(_ context.Context, text string, skills []skillgraph.Skill) ([]Mention, error) {
	if strings.TrimSpace(text) == "" || len(skills) == 0 {
		return nil, nil
	}

	lower := strings.ToLower(text)
	norm := strings.Join(strings.Fields(lower), " ")
	tokens := tokenize(lower)

	var mentions []Mention
	for _, s := range skills {
		matched := matchedTerms(s, tokens, norm)
		if len(matched) == 0 {
			continue
		}
		salience := keywordBaseSalience + keywordStepSalience*float64(len(matched)-1)
		if salience > keywordMaxSalience {
			salience = keywordMaxSalience
		}
		mentions = append(mentions, Mention{
			SkillID:  s.ID,
			Salience: salience,
			Evidence: "matched: " + strings.Join(matched, ", "),
		})
	}
	return mentions, nil
}

// matchedTerms returns the skill's distinct terms found in the text, sorted
// for deterministic evidence strings.
func matchedTerms(s skillgraph.Skill, tokens map[string]bool, norm string) []string {
	terms := make([]string, 0, len(s.Keywords)+1)
	terms = append(terms, strings.ToLower(s.Name))
	for _, k := range s.Keywords {
		terms = append(terms, strings.ToLower(k))
	}

	seen := make(map[string]bool, len(terms))
	var matched []string
	for _, term := range terms {
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		if matchTerm(term, tokens, norm) {
			matched = append(matched, term)
		}
	}
	sort.Strings(matched)
	return matched
}

// matchTerm checks a single term. Multi-word terms match as substrings of
// the whitespace-normalized text; single words must match a whole token, so
// "go" does not fire inside "mongodb".
func matchTerm(term string, tokens map[string]bool, norm string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(norm, term)
	}
	return tokens[term]
}

// tokenize splits lowercased text into tokens, keeping the symbol runes
// that appear inside tech names like c++, c# and node.js.
func tokenize(lower string) map[string]bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})

	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			tokens[f] = true
		}
	}
	return tokens
}
