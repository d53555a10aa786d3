package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/simonyos/geochat/internal/broadcast"
	"github.com/simonyos/geochat/internal/config"
	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/profiles"
	"github.com/simonyos/geochat/internal/session"
	"github.com/simonyos/geochat/internal/tools"
)

// runtime holds everything a command needs to run turns
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	provider  llm.Provider
	tools     *tools.Registry
	profiles  *profiles.Registry
	sessions  *session.Manager
	publisher *broadcast.Publisher

	closers []io.Closer
}

// newRuntime wires config, logging, tools, profiles, the model provider and
// the session manager. logTo receives the log output; nil logs to
// <data_dir>/geochat.log so the terminal UI stays clean.
func newRuntime(logTo io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}

	if logTo == nil {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "geochat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		rt.closers = append(rt.closers, f)
		logTo = f
	}
	rt.logger = logging.New(logTo, cfg.LogLevel, cfg.LogFormat)

	rt.tools = tools.NewRegistry()
	rt.tools.SetTimeout(cfg.ToolTimeout())
	rt.tools.SetLogger(logging.Component(rt.logger, "tools"))
	err = tools.RegisterGeo(rt.tools, tools.GeoOptions{
		NominatimURL:   cfg.NominatimURL,
		OverpassURL:    cfg.OverpassURL,
		STACURL:        cfg.STACURL,
		STACCollection: cfg.STACCollection,
		STACMaxItems:   cfg.STACMaxItems,
		SearchURL:      cfg.SearchURL,
		UserAgent:      cfg.UserAgent,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.profiles = profiles.NewRegistry(profiles.NewLoader(config.ProfilePaths(), logging.Component(rt.logger, "profiles")))
	if err := rt.profiles.Refresh(); err != nil {
		rt.logger.Warn("profiles_refresh_failed", "error", err.Error())
	}

	rt.provider, err = llm.New(cfg, providerFlag, modelFlag)
	if err != nil {
		rt.Close()
		return nil, err
	}

	store, err := session.NewStore(cfg.SessionDir())
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := session.Options{
		Provider:      rt.provider,
		Tools:         rt.tools,
		Profiles:      rt.profiles,
		MaxModelCalls: cfg.MaxModelCalls,
		Temperature:   cfg.Temperature,
		Collection:    cfg.STACCollection,
		Store:         store,
		Logger:        logging.Component(rt.logger, "session"),
	}

	if cfg.NATSURL != "" {
		bc := broadcast.DefaultConfig()
		bc.URL = cfg.NATSURL
		pub, err := broadcast.Connect(bc, logging.Component(rt.logger, "broadcast"))
		if err != nil {
			// turns still run without live events
			rt.logger.Warn("broadcast_disabled", "url", cfg.NATSURL, "error", err.Error())
		} else {
			rt.publisher = pub
			rt.closers = append(rt.closers, pub)
			opts.Handler = pub.Handler
		}
	}

	rt.sessions = session.NewManager(opts)
	return rt, nil
}

// modelLabel names the provider and model for display
func (rt *runtime) modelLabel() string {
	model := modelFlag
	if model == "" {
		model = rt.cfg.Model
	}
	if model == "" {
		return rt.provider.Name()
	}
	return rt.provider.Name() + "/" + model
}

// openSession resumes id when set, otherwise starts a new session
func (rt *runtime) openSession(id string) (*session.Session, error) {
	if id != "" {
		return rt.sessions.Get(id)
	}
	return rt.sessions.Create(profileFlag)
}

// Close releases log files and connections
func (rt *runtime) Close() error {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
	return nil
}
