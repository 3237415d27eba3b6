package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/interview"
	"github.com/abhisek/mentor/internal/progress"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an adaptive mock interview for a role",
	Long: "Runs a question/answer session targeting your weakest, least-certain skills " +
		"for the role. Answers are judged and merged into the mastery model; difficulty " +
		"adapts to how the session is going.",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		n, _ := cmd.Flags().GetInt("questions")
		reportPath, _ := cmd.Flags().GetString("report")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		learner := a.Config.Learner

		sess, err := a.Engine.Start(ctx, learner, role, n)
		if err != nil {
			return err
		}

		fmt.Printf("Interview for %s: %d questions. Ctrl+C abandons the session.\n\n",
			role, sess.QuestionCount)

		// Start asks the first question; each Turn carries the next one.
		first := sess.Items[len(sess.Items)-1]
		qNum := 1
		skillName, question := first.SkillName, first.Question

		for {
			fmt.Printf("Q%d [%s]\n%s\n", qNum, skillName, question)

			answer, err := (&promptui.Prompt{Label: "Answer"}).Run()
			if err != nil {
				// Interrupt or closed input; nothing is merged.
				_ = a.Engine.Abandon(sess.ID)
				fmt.Println("\nInterview abandoned.")
				return nil
			}

			turn, err := a.Engine.Submit(ctx, sess.ID, answer)
			if err != nil {
				return err
			}
			printJudgment(turn.Item)
			if turn.Done {
				break
			}
			qNum++
			question = turn.NextQuestion
			skillName = turn.NextSkillID
			if sk, err := a.Graph.Skill(turn.NextSkillID); err == nil {
				skillName = sk.Name
			}
		}

		report, err := a.Engine.Finish(ctx, sess.ID)
		if err != nil {
			return err
		}
		printReport(report)

		// A finished interview counts as a completed session in progress.
		ev := progress.Event{
			RefID:      report.SessionID,
			Kind:       progress.KindSession,
			Fraction:   1,
			OccurredAt: time.Now().UTC(),
		}
		if err := a.Tracker.Record(ctx, learner, ev); err != nil {
			a.Logger.Warn("recording session completion", zap.Error(err))
		}

		if reportPath != "" {
			raw, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
			if err := os.WriteFile(reportPath, raw, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("Report written to %s\n", reportPath)
		}
		return nil
	},
}

func printJudgment(item interview.Item) {
	if !item.Scored {
		fmt.Println("  recorded (scoring unavailable right now)")
		fmt.Println()
		return
	}
	fmt.Printf("  %.2f %s", item.Score, interview.BandOf(item.Score))
	if item.Feedback != "" {
		fmt.Printf(": %s", item.Feedback)
	}
	fmt.Println()
	fmt.Println()
}

func printReport(r *interview.Report) {
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("Interview report for %s (%s)\n", r.Role, r.Duration.Round(time.Second))
	fmt.Println(strings.Repeat("─", 72))

	for i, item := range r.Items {
		name := item.SkillName
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		if !item.Scored {
			fmt.Printf("%2d. %-32s  %s\n", i+1, name, "(unscored)")
			continue
		}
		fmt.Printf("%2d. %-32s  %.2f  %s\n", i+1, name, item.Score, item.Band)
	}

	fmt.Printf("\nAverage score %.2f, %d observation(s) merged into the model.\n",
		r.Average, r.Observations)
}

func init() {
	interviewCmd.Flags().String("role", "", "Target role from the skill graph")
	interviewCmd.Flags().IntP("questions", "n", 0, "Number of questions (0 = config default)")
	interviewCmd.Flags().String("report", "", "Write the JSON report to this file")
	_ = interviewCmd.MarkFlagRequired("role")
}
