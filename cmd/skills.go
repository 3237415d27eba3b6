package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/skillgraph"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect the skill graph",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills in dependency order (optionally filtered by tier or role)",
	RunE: func(cmd *cobra.Command, args []string) error {
		tierName, _ := cmd.Flags().GetString("tier")
		role, _ := cmd.Flags().GetString("role")

		g, err := loadGraph()
		if err != nil {
			return err
		}

		skills := g.TopologicalOrder()
		var targets map[string]float64

		switch {
		case tierName != "" && role != "":
			return fmt.Errorf("use --tier or --role, not both")
		case tierName != "":
			tier, err := skillgraph.ParseTier(tierName)
			if err != nil {
				return err
			}
			var filtered []skillgraph.Skill
			for _, s := range skills {
				if s.Tier == tier {
					filtered = append(filtered, s)
				}
			}
			if len(filtered) == 0 {
				return fmt.Errorf("no skills at tier %q", tierName)
			}
			skills = filtered
		case role != "":
			targets, err = g.RoleTargets(role)
			if err != nil {
				return err
			}
			var filtered []skillgraph.Skill
			for _, s := range skills {
				if _, ok := targets[s.ID]; ok {
					filtered = append(filtered, s)
				}
			}
			skills = filtered
		}

		// Header.
		if targets != nil {
			fmt.Printf("%-24s  %-36s  %-14s  %6s  %s\n",
				"ID", "Name", "Tier", "Target", "Prerequisites")
		} else {
			fmt.Printf("%-24s  %-36s  %-14s  %s\n",
				"ID", "Name", "Tier", "Prerequisites")
		}
		fmt.Println(strings.Repeat("─", 100))

		for _, s := range skills {
			name := s.Name
			if len(name) > 36 {
				name = name[:33] + "..."
			}
			prereqs := strings.Join(s.Prerequisites, ", ")
			if targets != nil {
				fmt.Printf("%-24s  %-36s  %-14s  %6.2f  %s\n",
					s.ID, name, s.Tier.DisplayName(), targets[s.ID], prereqs)
			} else {
				fmt.Printf("%-24s  %-36s  %-14s  %s\n",
					s.ID, name, s.Tier.DisplayName(), prereqs)
			}
		}

		fmt.Printf("\n%d skills\n", len(skills))
		return nil
	},
}

var skillsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the skill graph document",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph()
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d skills, %d roles, no cycles\n", len(g.Skills()), len(g.Roles()))
		return nil
	},
}

func init() {
	skillsListCmd.Flags().String("tier", "", "Filter by tier (foundational, intermediate, advanced)")
	skillsListCmd.Flags().String("role", "", "Show only a role's target skills with their levels")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsValidateCmd)
}
