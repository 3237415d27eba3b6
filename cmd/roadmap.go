package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Generate the learning roadmap for a target role",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		showResources, _ := cmd.Flags().GetBool("resources")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Tracker.Snapshot(cmd.Context(), a.Config.Learner, role, time.Now().UTC())
		if err != nil {
			return err
		}

		if len(snap.Units) == 0 {
			fmt.Printf("Nothing to plan: every %s target is met and fresh.\n", role)
			return nil
		}

		total := 0
		for _, up := range snap.Units {
			total += up.Unit.EffortMinutes
		}
		fmt.Printf("Roadmap for %s: %d units, %s\n", role, len(snap.Units), formatMinutes(total))
		fmt.Println(strings.Repeat("─", 84))
		fmt.Printf("%3s  %-26s  %-6s  %-30s  %6s  %6s\n",
			"#", "Unit", "Kind", "Skill", "Delta", "Effort")
		fmt.Println(strings.Repeat("─", 84))

		for i, up := range snap.Units {
			u := up.Unit
			name := u.SkillName
			if len(name) > 30 {
				name = name[:27] + "..."
			}
			fmt.Printf("%3d  %-26s  %-6s  %-30s  %+6.2f  %6s\n",
				i+1, u.ID, u.Kind, name, u.TargetDelta, formatMinutes(u.EffortMinutes))
			if showResources {
				for _, r := range u.Resources {
					fmt.Printf("     %s: %s\n", r.Title, r.URL)
				}
			}
		}

		fmt.Printf("\nMark units done with: mentor progress --complete <unit>\n")
		return nil
	},
}

// formatMinutes renders effort as hours and minutes.
func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func init() {
	roadmapCmd.Flags().String("role", "", "Target role from the skill graph")
	roadmapCmd.Flags().Bool("resources", true, "Show learning resources under each unit")
	_ = roadmapCmd.MarkFlagRequired("role")
}
