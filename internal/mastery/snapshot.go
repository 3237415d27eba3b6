package mastery

import (
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/store"
)

// Snapshot captures the learner's raw estimates for persistence. Confidence
// is stored undecayed together with its timestamp, so a restored model decays
// from the same point the saved one did.
func (m *Model) Snapshot(learnerID string) *store.MasterySnapshot {
	ls := m.learner(learnerID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	snap := &store.MasterySnapshot{Skills: make(map[string]store.SkillEstimate, len(ls.estimates))}
	for skillID, est := range ls.estimates {
		snap.Skills[skillID] = store.SkillEstimate{
			Mastery:    est.Mastery,
			Confidence: est.Confidence,
			UpdatedAt:  est.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return snap
}

// Restore replaces the learner's estimates with a saved snapshot. Entries
// with unparsable timestamps are dropped rather than poisoning the model.
func (m *Model) Restore(learnerID string, snap *store.MasterySnapshot) {
	if snap == nil {
		return
	}

	estimates := make(map[string]Estimate, len(snap.Skills))
	for skillID, saved := range snap.Skills {
		updatedAt, err := time.Parse(time.RFC3339, saved.UpdatedAt)
		if err != nil {
			m.logger.Debug("dropping snapshot entry with bad timestamp",
				zap.String("learner", learnerID),
				zap.String("skill", skillID),
				zap.String("updated_at", saved.UpdatedAt),
			)
			continue
		}
		estimates[skillID] = Estimate{
			SkillID:    skillID,
			Mastery:    saved.Mastery,
			Confidence: saved.Confidence,
			UpdatedAt:  updatedAt,
		}
	}

	ls := m.learner(learnerID)
	ls.mu.Lock()
	ls.estimates = estimates
	ls.mu.Unlock()
}
