package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/render"
	"github.com/simonyos/geochat/internal/session"
	"github.com/simonyos/geochat/internal/tools"
)

var (
	askSessionFlag string
	askGeoJSONFlag string
	askJSONFlag    bool
	askQuietFlag   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Long: `Run a single turn and print the answer. Tool calls are reported on stderr
as they happen.

Examples:
  geochat ask "How far is Bangalore from Mumbai?"
  geochat ask --geojson hospitals.geojson "Map the hospitals in Koramangala"
  geochat ask --session <id> "And how far is that from Chennai?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.openSession(askSessionFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var final agent.StreamEvent
	for ev := range sess.Stream(ctx, strings.Join(args, " ")) {
		switch ev.Type {
		case "tool_start":
			if !askQuietFlag {
				fmt.Fprintf(os.Stderr, "→ %s %s\n", ev.ToolName, ev.ToolArgs)
			}
		case "tool_result":
			if !askQuietFlag && ev.Result != nil {
				fmt.Fprintf(os.Stderr, "  %s\n", render.Describe(*ev.Result))
			}
		case "done", "error":
			final = ev
		}
	}

	if final.Error != nil && errors.Is(final.Error, session.ErrEmptyMessage) {
		return final.Error
	}

	if askJSONFlag {
		out := struct {
			SessionID string         `json:"session_id"`
			Turn      map[string]any `json:"turn"`
			Answer    string         `json:"answer"`
		}{sess.ID, final.Turn.Summary(), final.Turn.Answer}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Println(final.Turn.Answer)
		if !askQuietFlag {
			fmt.Fprintf(os.Stderr, "\nsession %s\n", sess.ID)
		}
	}

	if askGeoJSONFlag != "" {
		if err := writeMap(askGeoJSONFlag, sess.LastResults()); err != nil {
			return err
		}
	}

	if final.Turn.State == agent.Failed {
		return fmt.Errorf("turn failed: %w", final.Turn.Err)
	}
	return nil
}

func writeMap(path string, results []tools.Result) error {
	m, err := render.BuildMap(results)
	if err != nil {
		return err
	}
	data, err := m.FeatureCollection().MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	askCmd.Flags().StringVarP(&askSessionFlag, "session", "s", "", "Continue a saved session")
	askCmd.Flags().StringVar(&askGeoJSONFlag, "geojson", "", "Write located results to this GeoJSON file")
	askCmd.Flags().BoolVar(&askJSONFlag, "json", false, "Print the turn as JSON")
	askCmd.Flags().BoolVarP(&askQuietFlag, "quiet", "q", false, "Only print the answer")
	rootCmd.AddCommand(askCmd)
}
