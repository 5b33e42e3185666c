package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ltvpilot/internal/config"
	"ltvpilot/internal/controller"
	"ltvpilot/internal/logger"
	"ltvpilot/internal/poll"
	"ltvpilot/internal/session"
	"ltvpilot/internal/store/alertlog"
	"ltvpilot/internal/store/sessionstore"
	"ltvpilot/internal/transport/http/dash"
)

// App is the assembled process: the HTTP surface plus the session and
// polling lifecycle behind it.
type App struct {
	cfg      *config.Config
	server   *dash.Server
	sessions *session.Manager
	state    *controller.Controller
	poller   *poll.Scheduler

	sessionDB *sessionstore.Store
	alertDB   *alertlog.Store
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run restores any persisted session and serves until ctx cancels.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	a.state.LoadCached()
	restored, err := a.sessions.Restore()
	if err != nil {
		logger.Warnf("session restore failed: %v", err)
	} else if restored {
		logger.Infof("session restored for %s, polling started", a.sessions.Username())
	} else {
		logger.Infof("no persisted session, starting at login view")
	}
	logger.Infof("dashboard API listening on %s", a.server.Addr())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(groupCtx); err != nil {
			return fmt.Errorf("dashboard http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func (a *App) close() {
	a.poller.Stop()
	if a.sessionDB != nil {
		if err := a.sessionDB.Close(); err != nil {
			logger.Warnf("closing session store: %v", err)
		}
	}
	if a.alertDB != nil {
		if err := a.alertDB.Close(); err != nil {
			logger.Warnf("closing alert log: %v", err)
		}
	}
}

// Sessions exposes the session manager (for testing harnesses).
func (a *App) Sessions() *session.Manager {
	if a == nil {
		return nil
	}
	return a.sessions
}
