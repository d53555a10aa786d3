package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/broadcast"
	"github.com/simonyos/geochat/internal/config"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/render"
	"github.com/simonyos/geochat/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Manage saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions()
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		p, err := store.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Session %s (%s), %d turns, %d tokens\n\n", p.ID, p.Profile, p.Turns, p.Usage.TotalTokens)
		for _, msg := range p.Conversation.Messages() {
			switch {
			case msg.Role == "system":
				continue
			case msg.Result != nil:
				fmt.Printf("  [%s] %s\n", msg.Name, render.Describe(*msg.Result))
			case msg.Content != "":
				fmt.Printf("%s: %s\n", msg.Role, msg.Content)
			}
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

var sessionsWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Follow a session's turn events over NATS",
	Long: `Print the events of a session as they are published. Requires nats_url
to be configured both here and in the process running the session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("nats_url is not configured (use 'geochat config set nats <url>')")
		}

		bc := broadcast.DefaultConfig()
		bc.URL = cfg.NATSURL
		pub, err := broadcast.Connect(bc, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))
		if err != nil {
			return err
		}
		defer pub.Close()

		sub, err := pub.Subscribe(args[0], printEvent)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()

		fmt.Fprintf(os.Stderr, "watching %s (ctrl+c to stop)\n", broadcast.Subject(args[0]))
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		<-ctx.Done()
		return nil
	},
}

func printEvent(ev broadcast.Event) {
	ts := ev.Timestamp.Format(time.TimeOnly)
	switch ev.Type {
	case "tool_start":
		fmt.Printf("%s → %s %s\n", ts, ev.Tool, ev.Args)
	case "tool_result":
		if ev.Result != nil {
			fmt.Printf("%s   %s: %s\n", ts, ev.Tool, render.Describe(*ev.Result))
		}
	case "finish":
		fmt.Printf("%s %s: %s\n", ts, ev.State, ev.Answer)
	default:
		fmt.Printf("%s %s\n", ts, ev.Type)
	}
}

func openStore() (*session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return session.NewStore(cfg.SessionDir())
}

func listSessions() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	ids, err := store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	var saved []*session.Persisted
	for _, id := range ids {
		p, err := store.Load(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", id, err)
			continue
		}
		saved = append(saved, p)
	}
	sortNewestFirst(saved)

	if jsonListFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(saved)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROFILE\tTURNS\tTOKENS\tUPDATED")
	for _, p := range saved {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Profile, p.Turns, p.Usage.TotalTokens, p.UpdatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func sortNewestFirst(saved []*session.Persisted) {
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].UpdatedAt.After(saved[j].UpdatedAt)
	})
}

var jsonListFlag bool

func init() {
	sessionsListCmd.Flags().BoolVar(&jsonListFlag, "json", false, "Print full session records as JSON")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsWatchCmd)
	rootCmd.AddCommand(sessionsCmd)
}
