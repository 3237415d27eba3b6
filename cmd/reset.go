package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe a learner's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		learner := a.Config.Learner
		if !yes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Delete all events and snapshots for %q", learner),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := a.Store.DeleteLearner(cmd.Context(), learner); err != nil {
			return err
		}
		fmt.Printf("Learner %q reset. LLM call records are kept.\n", learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
