package progress

import (
	"time"

	"github.com/abhisek/mentor/internal/roadmap"
	"github.com/abhisek/mentor/internal/store"
)

// snapshotVersion tags persisted snapshot payloads so a future format change
// can migrate or skip old rows.
const snapshotVersion = 1

func storedRoadmap(rm *roadmap.Roadmap) *store.RoadmapSnapshot {
	snap := &store.RoadmapSnapshot{
		Role:        rm.Role,
		GeneratedAt: rm.GeneratedAt.UTC().Format(time.RFC3339Nano),
		Units:       make([]store.RoadmapUnitData, 0, len(rm.Units)),
	}
	for _, u := range rm.Units {
		snap.Units = append(snap.Units, store.RoadmapUnitData{
			ID:            u.ID,
			SkillID:       u.SkillID,
			Kind:          string(u.Kind),
			TargetDelta:   u.TargetDelta,
			EffortMinutes: u.EffortMinutes,
		})
	}
	return snap
}

// roadmapFromStored rebuilds a roadmap from its persisted form. Skill names
// and resources are not persisted; they come back from the graph, so a
// renamed skill shows its current name. A skill dropped from the graph keeps
// its ID as the display name.
func (t *Tracker) roadmapFromStored(learnerID string, data *store.RoadmapSnapshot) *roadmap.Roadmap {
	rm := &roadmap.Roadmap{
		LearnerID: learnerID,
		Role:      data.Role,
		Units:     make([]roadmap.Unit, 0, len(data.Units)),
	}
	if at, err := time.Parse(time.RFC3339Nano, data.GeneratedAt); err == nil {
		rm.GeneratedAt = at
	}
	for _, u := range data.Units {
		unit := roadmap.Unit{
			ID:            u.ID,
			SkillID:       u.SkillID,
			SkillName:     u.SkillID,
			Kind:          roadmap.Kind(u.Kind),
			TargetDelta:   u.TargetDelta,
			EffortMinutes: u.EffortMinutes,
		}
		if sk, err := t.graph.Skill(u.SkillID); err == nil {
			unit.SkillName = sk.Name
			unit.Resources = sk.Resources
		}
		rm.Units = append(rm.Units, unit)
	}
	return rm
}
