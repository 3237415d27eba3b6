package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/mentor/internal/app"
	"github.com/abhisek/mentor/internal/config"
	"github.com/abhisek/mentor/internal/skillgraph"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Skill gap analysis and adaptive learning roadmaps",
	Long:  "Mentor is a terminal coach that maps your evidence onto a skill graph, estimates mastery, and plans the shortest path to a target role.",
}

// Execute runs the root command.
func Execute() error {
	// Provider API keys may live in a .env file; load it before anything
	// reads the environment.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	defaults := config.Default()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is mentor.yaml in . or ~/.config/mentor)")
	rootCmd.PersistentFlags().String("db", "", "database path or postgres:// DSN (overrides MENTOR_DB)")
	rootCmd.PersistentFlags().String("learner", defaults.Learner, "learner profile to operate on")
	rootCmd.PersistentFlags().String("graph", defaults.Graph, "path to the skill graph document")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")

	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("learner", rootCmd.PersistentFlags().Lookup("learner"))
	_ = viper.BindPFlag("graph", rootCmd.PersistentFlags().Lookup("graph"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves flags, environment, and the optional config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildApp loads the configuration and wires the full engine behind it.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}

// loadGraph is for commands that only inspect the skill graph and never
// touch the store or a capability.
func loadGraph() (*skillgraph.Graph, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	g, err := skillgraph.Load(cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("loading skill graph: %w", err)
	}
	return g, nil
}
