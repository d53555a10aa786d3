package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage geochat configuration",
	Long: `Manage geochat configuration including API keys, service endpoints and
defaults. Environment variables (GEOCHAT_<KEY>, or OPENAI_API_KEY and friends)
override the file.

Examples:
  geochat config                          # Show current config
  geochat config set openai <key>         # Set OpenAI API key
  geochat config set provider anthropic   # Set default provider
  geochat config set max_model_calls 8    # Raise the per-turn budget
  geochat config delete openai            # Remove OpenAI API key`,
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Short names: openai, anthropic, openrouter (API keys), nats (NATS URL).
Run 'geochat config keys' for every key.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Set %s successfully.\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := config.Canonical(args[0])
		if err != nil {
			return err
		}
		if val, ok := config.ListKeys()[key]; ok {
			fmt.Printf("%s: %s\n", key, val)
			return nil
		}
		val, err := config.Value(key)
		if err != nil {
			return err
		}
		if val == "" {
			fmt.Printf("%s is not set\n", key)
			return nil
		}
		fmt.Printf("%s: %s (default)\n", key, val)
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"remove", "unset"},
	Short:   "Delete a configuration value",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key",
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range config.Keys() {
			fmt.Println(key)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.ConfigPath())
	},
}

func showConfig() {
	fmt.Printf("Configuration file: %s\n\n", config.ConfigPath())

	keys := config.ListKeys()
	if len(keys) == 0 {
		fmt.Println("No configuration set.")
		fmt.Println("\nUse 'geochat config set <key> <value>' to configure.")
		return
	}

	for _, k := range config.Keys() {
		if v, ok := keys[k]; ok {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
