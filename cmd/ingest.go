package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/app"
	"github.com/abhisek/mentor/internal/extractor"
	"github.com/abhisek/mentor/internal/mastery"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest skill evidence",
}

var ingestResumeCmd = &cobra.Command{
	Use:   "resume <file>",
	Short: "Extract skill evidence from a resume (plain text or HTML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading resume: %w", err)
		}

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		obs, err := a.Extractor.Extract(cmd.Context(), string(text), mastery.SourceResume)
		if err != nil {
			return err
		}
		return mergeAndCheckpoint(cmd, a, obs)
	},
}

// repoDoc is the JSON shape of one repository entry: a name plus the
// byte-per-language histogram as reported by the hosting platform.
type repoDoc struct {
	Name      string           `json:"name"`
	Languages map[string]int64 `json:"languages"`
}

var ingestReposCmd = &cobra.Command{
	Use:   "repos <file>",
	Short: "Extract skill evidence from a repository language summary (JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading repository summary: %w", err)
		}
		var docs []repoDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return fmt.Errorf("parsing repository summary: %w", err)
		}

		repos := make([]extractor.RepositoryEvidence, len(docs))
		for i, d := range docs {
			repos[i] = extractor.RepositoryEvidence{Name: d.Name, Languages: d.Languages}
		}

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		obs, err := a.Extractor.ExtractRepositories(repos)
		if err != nil {
			return err
		}
		return mergeAndCheckpoint(cmd, a, obs)
	},
}

var ingestNoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Record a manual skill attestation",
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, _ := cmd.Flags().GetString("skill")
		strength, _ := cmd.Flags().GetFloat64("strength")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Graph.Skill(skillID); err != nil {
			return err
		}
		obs, err := mastery.NewObservation(skillID, strength,
			a.Config.Extractor.SourceConfidence.Manual, mastery.SourceManual)
		if err != nil {
			return err
		}
		return mergeAndCheckpoint(cmd, a, []mastery.Observation{obs})
	},
}

// mergeAndCheckpoint merges extracted observations into the model and saves
// a mastery snapshot, so the next process start hydrates the updated state.
func mergeAndCheckpoint(cmd *cobra.Command, a *app.App, obs []mastery.Observation) error {
	if len(obs) == 0 {
		fmt.Println("No skills matched; nothing merged.")
		return nil
	}

	ctx := cmd.Context()
	learner := a.Config.Learner
	now := time.Now().UTC()

	fmt.Printf("%-24s  %-10s  %8s  %s\n", "Skill", "Source", "Strength", "Estimate")
	fmt.Println(strings.Repeat("─", 64))
	for _, o := range obs {
		est, err := a.Model.Merge(ctx, learner, o, now)
		if err != nil {
			return fmt.Errorf("merging %s: %w", o.SkillID, err)
		}
		fmt.Printf("%-24s  %-10s  %8.2f  %.2f (confidence %.2f)\n",
			o.SkillID, o.Source, o.Strength, est.Mastery, est.Confidence)
	}

	if err := a.Tracker.Checkpoint(ctx, learner, now); err != nil {
		return err
	}
	fmt.Printf("\nMerged %d observation(s) for %s.\n", len(obs), learner)
	return nil
}

func init() {
	ingestNoteCmd.Flags().String("skill", "", "Skill ID from the graph")
	ingestNoteCmd.Flags().Float64("strength", 0, "Attested strength, 0 to 1")
	_ = ingestNoteCmd.MarkFlagRequired("skill")
	_ = ingestNoteCmd.MarkFlagRequired("strength")

	ingestCmd.AddCommand(ingestResumeCmd)
	ingestCmd.AddCommand(ingestReposCmd)
	ingestCmd.AddCommand(ingestNoteCmd)
}
