package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/config"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/profiles"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List assistant profiles",
	Long: `List assistant profiles.

Profiles are markdown files with YAML frontmatter, read from
.geochat/profiles in the working directory and then
~/.config/geochat/profiles:

  ---
  name: imagery
  description: Satellite scene finder
  tools: [geocode, stac_search]
  max_model_calls: 3
  ---
  Prefer scenes with low cloud cover.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := profiles.NewRegistry(profiles.NewLoader(config.ProfilePaths(), logging.New(os.Stderr, "warn", "text")))
		if err := reg.Refresh(); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTOOLS\tBUDGET\tSOURCE\tDESCRIPTION")
		for _, p := range reg.List() {
			toolList := "all"
			if p.HasRestrictedTools() {
				toolList = strings.Join(p.Tools, ",")
			}
			budget := "default"
			if p.MaxModelCalls > 0 {
				budget = fmt.Sprint(p.MaxModelCalls)
			}
			source := p.FilePath
			if p.BuiltIn {
				source = "built-in"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, toolList, budget, source, p.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
