package cmd

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/spf13/cobra"

	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/server"
)

const version = "0.1.0"

var (
	addrFlag        string
	turnTimeoutFlag time.Duration
	noBannerFlag    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP and websockets",
	Long: `Start the HTTP API.

Routes:
  GET    /health
  POST   /api/sessions                  create a session {"profile": "..."}
  GET    /api/sessions                  list sessions
  GET    /api/sessions/{id}             session history
  DELETE /api/sessions/{id}
  POST   /api/sessions/{id}/messages    run a turn {"text": "..."}
  GET    /api/sessions/{id}/geojson     last turn's results as GeoJSON
  GET    /api/sessions/{id}/ws          websocket streaming turn events`,
	RunE: runServe,
}

func printBanner() {
	tpl := "{{ .Title \"GeoChat\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !noBannerFlag {
		printBanner()
	}

	addr := addrFlag
	if addr == "" {
		addr = rt.cfg.ListenAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:        addr,
		TurnTimeout: turnTimeoutFlag,
	}, rt.sessions, logging.Component(rt.logger, "server"))

	rt.logger.Info("serving",
		"provider", rt.modelLabel(),
		"tools", len(rt.tools.Names()),
		"broadcast", rt.publisher != nil,
	)
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().DurationVar(&turnTimeoutFlag, "turn-timeout", 5*time.Minute, "Deadline for a single turn")
	serveCmd.Flags().BoolVar(&noBannerFlag, "no-banner", false, "Do not print the startup banner")
	rootCmd.AddCommand(serveCmd)
}
