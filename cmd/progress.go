package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record completions and show roadmap progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		unitID, _ := cmd.Flags().GetString("complete")
		fraction, _ := cmd.Flags().GetFloat64("fraction")
		role, _ := cmd.Flags().GetString("role")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		learner := a.Config.Learner
		now := time.Now().UTC()

		if unitID != "" {
			ev := progress.Event{
				RefID:      unitID,
				Kind:       progress.KindUnit,
				Fraction:   fraction,
				OccurredAt: now,
			}
			if err := a.Tracker.Record(ctx, learner, ev); err != nil {
				return err
			}
			fmt.Printf("Recorded %s at %.0f%%.\n\n", unitID, fraction*100)
		}

		if role == "" {
			latest, err := a.Store.LatestSnapshot(ctx, learner)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			if latest == nil || latest.Data.Roadmap == nil {
				if unitID != "" {
					// The mark is stored; it folds in once a roadmap exists.
					return nil
				}
				return fmt.Errorf(`no roadmap yet: run "mentor roadmap --role <role>" first`)
			}
			role = latest.Data.Roadmap.Role
		}

		snap, err := a.Tracker.Snapshot(ctx, learner, role, now)
		if err != nil {
			return err
		}

		fmt.Printf("Progress for %s: %d/%d units complete, %s remaining",
			snap.Role, snap.Completed, snap.Total, formatMinutes(snap.RemainingMinutes))
		if snap.Sessions > 0 {
			fmt.Printf(", %d interview sessions", snap.Sessions)
		}
		fmt.Println()
		fmt.Println(strings.Repeat("─", 84))

		for i, up := range snap.Units {
			u := up.Unit
			name := u.SkillName
			if len(name) > 30 {
				name = name[:27] + "..."
			}
			fmt.Printf(" %s %2d. %-26s  %-30s  %4.0f%%  %6s\n",
				statusMarker(up.Status), i+1, u.ID, name,
				up.Fraction*100, formatMinutes(u.EffortMinutes))
		}
		return nil
	},
}

func statusMarker(s progress.Status) string {
	switch s {
	case progress.StatusCompleted:
		return "✓"
	case progress.StatusInProgress:
		return "~"
	default:
		return "·"
	}
}

func init() {
	progressCmd.Flags().String("complete", "", "Record a completion mark for this roadmap unit")
	progressCmd.Flags().Float64("fraction", 1.0, "Completed fraction for --complete, 0 to 1")
	progressCmd.Flags().String("role", "", "Role to show progress against (default: last generated roadmap's role)")
}
