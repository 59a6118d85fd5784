// Package app wires configuration, storage, the thread directory and the
// HTTP surface into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"chatrelay/internal/retention"
	"chatrelay/pkg/config"
	"chatrelay/pkg/directory"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/notify"
	"chatrelay/pkg/relay"
	"chatrelay/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg       *config.Config
	source    string
	version   string
	commit    string
	buildDate string

	st       store.ContentStore
	dir      directory.ThreadDirectory
	slack    *directory.Slack
	svc      *relay.Service
	notifier notify.Notifier

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// content store, the thread directory and the relay service. Call Run to
// start the HTTP server and block until shutdown.
func New(cfg *config.Config, source, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	backend := cfg.Store.Backend
	if backend == "" {
		backend = "file"
	}
	path := cfg.Store.Path
	if path == "" {
		path = "./.content"
	}
	st, err := store.Open(backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store at %s: %w", backend, path, err)
	}

	a := &App{
		cfg: cfg, source: source,
		version: version, commit: commit, buildDate: buildDate,
		st: st,
	}
	a.setupDirectory()

	a.svc = relay.New(a.dir, []byte(cfg.Chat.SigningSecret), cfg.Slack.ChannelID, relay.Options{
		MaxMessageLen: cfg.Chat.MaxMessageLen,
		PollLimit:     cfg.Chat.PollLimit,
	})

	if a.slack != nil && cfg.Slack.ChannelID != "" {
		a.notifier = notify.NewChannel(a.slack, cfg.Slack.ChannelID)
	} else {
		a.notifier = notify.Noop{}
	}
	return a, nil
}

func (a *App) setupDirectory() {
	switch a.cfg.Chat.Directory {
	case "memory":
		// development backend: threads live in process memory
		a.dir = directory.NewMemory()
		logger.Warn("using in-memory thread directory; conversations do not survive restarts")
	default:
		var opts []directory.SlackOption
		if a.cfg.Slack.APIBase != "" {
			opts = append(opts, directory.WithAPIBase(a.cfg.Slack.APIBase))
		}
		a.slack = directory.NewSlack(a.cfg.Slack.APIToken, opts...)
		a.dir = a.slack
	}
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is cancelled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	retCancel, err := retention.Start(ctx, a.cfg, a.st)
	if err != nil {
		return err
	}
	defer retCancel()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (a *App) shutdown() {
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_error", "err", err.Error())
		}
	}
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			logger.Warn("store_close_error", "err", err.Error())
		}
	}
	logger.Info("shutdown_complete")
}
