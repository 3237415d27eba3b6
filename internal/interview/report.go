package interview

import "time"

// Band buckets an answer score for feedback display.
type Band string

const (
	BandStrong     Band = "strong"
	BandSolid      Band = "solid"
	BandDeveloping Band = "developing"
	BandNeedsWork  Band = "needs-work"
)

// BandOf maps a score to its feedback band.
func BandOf(score float64) Band {
	switch {
	case score >= 0.8:
		return BandStrong
	case score >= 0.6:
		return BandSolid
	case score >= 0.4:
		return BandDeveloping
	default:
		return BandNeedsWork
	}
}

// ItemResult is one question's outcome in the report. Scored is false when
// the judge failed for this item even after the finishing retry.
type ItemResult struct {
	SkillID   string
	SkillName string
	Question  string
	Answer    string
	Scored    bool
	Score     float64
	Band      Band
	Feedback  string
}

// Report summarizes a completed session.
type Report struct {
	SessionID    string
	LearnerID    string
	Role         string
	Duration     time.Duration
	Items        []ItemResult
	Average      float64 // mean over scored items
	Observations int     // observations merged into the model
}

// buildReport converts a finished session into its report.
func buildReport(s *Session, observations int) *Report {
	report := &Report{
		SessionID:    s.ID,
		LearnerID:    s.LearnerID,
		Role:         s.Role,
		Duration:     s.FinishedAt.Sub(s.StartedAt),
		Observations: observations,
	}

	sum := 0.0
	scored := 0
	for _, it := range s.Items {
		if !it.Answered {
			continue
		}
		result := ItemResult{
			SkillID:   it.SkillID,
			SkillName: it.SkillName,
			Question:  it.Question,
			Answer:    it.Answer,
			Scored:    it.Scored,
			Feedback:  it.Feedback,
		}
		if it.Scored {
			result.Score = it.Score
			result.Band = BandOf(it.Score)
			sum += it.Score
			scored++
		}
		report.Items = append(report.Items, result)
	}
	if scored > 0 {
		report.Average = sum / float64(scored)
	}
	return report
}
