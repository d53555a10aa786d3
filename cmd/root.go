package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/tui"
)

var (
	providerFlag string
	modelFlag    string
	profileFlag  string
	sessionFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "geochat",
	Short: "Geographic question answering assistant",
	Long: `GeoChat answers questions about places by letting a language model call
geographic tools: geocoding, geodesic distance, map tiles, OpenStreetMap
features, satellite imagery search and web search.

Supported providers:
  openai      - OpenAI API (default, requires OPENAI_API_KEY)
  anthropic   - Anthropic API (requires ANTHROPIC_API_KEY)
  openrouter  - OpenRouter (requires OPENROUTER_API_KEY)
  ollama      - local Ollama server
  litellm     - LiteLLM proxy (base_url, default http://localhost:4000)`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.openSession(sessionFlag)
	if err != nil {
		return err
	}

	return tui.Run(sess, tui.Options{
		Model:    rt.modelLabel(),
		Profiles: rt.profiles,
		Theme:    rt.cfg.Theme,
	})
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "LLM provider ("+strings.Join(llm.Providers, ", ")+")")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (provider-specific)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Assistant profile for new sessions")
	rootCmd.Flags().StringVarP(&sessionFlag, "session", "s", "", "Resume a saved session by id")
}
