package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show LLM provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := llm.ConfigFromEnv()
		source := "MENTOR_* environment"
		if cfg.Validate() != nil {
			discovered, ok := llm.DiscoverConfig()
			if !ok {
				fmt.Println("No LLM provider configured.")
				fmt.Println("Capabilities run deterministically: keyword extraction, static question bank, unscored answers.")
				fmt.Println()
				printKeyProbes()
				return nil
			}
			cfg = discovered
			source = "discovered API key"
		}

		fmt.Printf("Active provider: %s (%s)\n", cfg.Provider, source)
		fmt.Printf("Model:           %s\n", modelFor(cfg))
		fmt.Printf("Timeout:         %s\n", cfg.Timeout)
		fmt.Printf("Retries:         %d attempts, %s initial wait\n",
			cfg.Retry.MaxAttempts, cfg.Retry.InitialWait)
		fmt.Println()
		printKeyProbes()
		return nil
	},
}

// modelFor returns the model the selected provider would use.
func modelFor(cfg llm.Config) string {
	switch cfg.Provider {
	case "anthropic":
		return cfg.Anthropic.Model
	case "openai":
		return cfg.OpenAI.Model
	case "gemini":
		return cfg.Gemini.Model
	case "openrouter":
		return cfg.OpenRouter.Model
	case "mock":
		return "mock"
	default:
		return "?"
	}
}

func printKeyProbes() {
	fmt.Println("Key environment variables:")
	for _, env := range []string{
		"MENTOR_LLM_PROVIDER",
		"MENTOR_ANTHROPIC_API_KEY",
		"MENTOR_OPENAI_API_KEY",
		"MENTOR_GEMINI_API_KEY",
		"MENTOR_OPENROUTER_API_KEY",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
		"OPENROUTER_API_KEY",
	} {
		mark := "✗"
		if os.Getenv(env) != "" {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, env)
	}
}
