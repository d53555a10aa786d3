package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/config"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		reg := tools.NewRegistry()
		reg.SetLogger(logging.Discard())
		if err := tools.RegisterGeo(reg, tools.GeoOptions{
			NominatimURL:   cfg.NominatimURL,
			OverpassURL:    cfg.OverpassURL,
			STACURL:        cfg.STACURL,
			STACCollection: cfg.STACCollection,
			STACMaxItems:   cfg.STACMaxItems,
			SearchURL:      cfg.SearchURL,
			UserAgent:      cfg.UserAgent,
		}); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, def := range reg.List() {
			fmt.Fprintf(w, "%s\t%s\n", def.Name, def.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
