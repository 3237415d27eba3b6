package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/app"
	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/mastery"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mastery estimates and LLM usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, _ := cmd.Flags().GetString("skill")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if skillID != "" {
			return printSkillHistory(cmd, a, skillID)
		}
		return printOverview(cmd, a)
	},
}

func printOverview(cmd *cobra.Command, a *app.App) error {
	now := time.Now().UTC()
	learner := a.Config.Learner

	ests := a.Model.All(learner, now)
	if len(ests) == 0 {
		fmt.Printf("No estimates for %s yet. Ingest evidence or run an interview first.\n", learner)
		return nil
	}

	fmt.Printf("Mastery for %s\n", learner)
	fmt.Println(strings.Repeat("─", 82))
	fmt.Printf("%-24s  %-30s  %7s  %10s  %s\n",
		"Skill", "Name", "Mastery", "Confidence", "Level")
	fmt.Println(strings.Repeat("─", 82))

	for _, est := range ests {
		name := est.SkillID
		if sk, err := a.Graph.Skill(est.SkillID); err == nil {
			name = sk.Name
		}
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Printf("%-24s  %-30s  %7.2f  %10.2f  %s\n",
			est.SkillID, name, est.Mastery, est.Confidence,
			mastery.LevelOf(est.Mastery).DisplayName())
	}

	usage, err := a.Store.LLMUsage(cmd.Context())
	if err != nil {
		return fmt.Errorf("querying usage: %w", err)
	}
	if usage.Calls > 0 {
		fmt.Printf("\nLLM usage: %d calls (%d failed), %d input / %d output tokens\n",
			usage.Calls, usage.Failures, usage.InputTokens, usage.OutputTokens)
		if a.Provider != nil {
			model := a.Provider.ModelID()
			if cost := llm.LookupCost(model); cost != nil {
				c := cost.Cost(int(usage.InputTokens), int(usage.OutputTokens))
				fmt.Printf("Estimated cost at %s pricing: %s\n", model, formatCost(c))
			}
		}
	}
	return nil
}

func printSkillHistory(cmd *cobra.Command, a *app.App, skillID string) error {
	sk, err := a.Graph.Skill(skillID)
	if err != nil {
		return err
	}
	learner := a.Config.Learner

	points, err := a.Tracker.History(cmd.Context(), learner, skillID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Printf("No observations for %s yet.\n", skillID)
		return nil
	}

	if est, ok := a.Model.Current(learner, skillID, time.Now().UTC()); ok {
		fmt.Printf("%s: mastery %.2f, confidence %.2f (%s)\n",
			sk.Name, est.Mastery, est.Confidence, mastery.LevelOf(est.Mastery))
	}
	fmt.Println(strings.Repeat("─", 64))
	fmt.Printf("%-20s  %-10s  %7s  %10s\n", "Observed", "Source", "Mastery", "Confidence")
	fmt.Println(strings.Repeat("─", 64))
	for _, p := range points {
		fmt.Printf("%-20s  %-10s  %7.2f  %10.2f\n",
			p.At.Local().Format("2006-01-02 15:04:05"), p.Source, p.Mastery, p.Confidence)
	}
	return nil
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	statsCmd.Flags().String("skill", "", "Show the observation history for one skill")
}
