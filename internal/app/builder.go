package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ltvpilot/internal/bindings"
	"ltvpilot/internal/config"
	"ltvpilot/internal/controller"
	"ltvpilot/internal/dispatch"
	"ltvpilot/internal/gateway/notifier"
	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/poll"
	"ltvpilot/internal/report"
	"ltvpilot/internal/session"
	"ltvpilot/internal/store/alertlog"
	"ltvpilot/internal/store/sessionstore"
	"ltvpilot/internal/transport/http/dash"
	"ltvpilot/internal/view"
)

// AppBuilder assembles the controller stack in dependency order. The
// override hooks keep the wiring testable without real stores or a
// real service.
type AppBuilder struct {
	cfg *config.Config

	sessionStoreFn func(string) (*sessionstore.Store, error)
	alertLogFn     func(string) (*alertlog.Store, error)
	clientFn       func(config.APIConfig, strategy.TokenSource) (*strategy.Client, error)
	notifierFn     func(config.TelegramConfig) notifier.Notifier
	bindingsFn     func(string) (*bindings.Registry, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:            cfg,
		sessionStoreFn: sessionstore.Open,
		alertLogFn:     alertlog.Open,
		clientFn:       strategy.NewClient,
		notifierFn:     buildTelegram,
		bindingsFn:     bindings.NewRegistry,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithSessionStore overrides the session store constructor.
func WithSessionStore(fn func(string) (*sessionstore.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.sessionStoreFn = fn }
}

// WithAlertLog overrides the alert log constructor.
func WithAlertLog(fn func(string) (*alertlog.Store, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.alertLogFn = fn }
}

// Build wires the application. ctx outlives requests; the poll loop
// runs on it.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	reporter := report.NewReporter()
	views := view.NewRouter()

	sessionDB, err := b.sessionStoreFn(filepath.Join(cfg.App.DataDir, "session.db"))
	if err != nil {
		return nil, fmt.Errorf("opening session store failed: %w", err)
	}
	alertDB, err := b.alertLogFn(filepath.Join(cfg.App.DataDir, "alerts.db"))
	if err != nil {
		return nil, fmt.Errorf("opening alert log failed: %w", err)
	}

	sessions := session.NewManager(sessionDB, views, reporter)
	client, err := b.clientFn(cfg.API, sessions)
	if err != nil {
		return nil, fmt.Errorf("building strategy client failed: %w", err)
	}

	var mirror *controller.Mirror
	if cfg.Notify.Telegram.Enabled {
		notify := b.notifierFn(cfg.Notify.Telegram)
		mirror = controller.NewMirror(alertDB, notify, reporter, cfg.Notify.Telegram.WithChart)
	}
	state := controller.NewController(sessionDB, mirror, reporter)
	state.BindViews(views)

	interval := time.Duration(cfg.Poll.IntervalSeconds) * time.Second
	poller := poll.NewScheduler(client, state, reporter, interval, cfg.Poll.TransactionsPerPage)
	sessions.Attach(ctx, client, poller)

	dispatcher := dispatch.NewDispatcher(client, poller, reporter)
	table, err := b.bindingsFn(cfg.Bindings.Path)
	if err != nil {
		return nil, fmt.Errorf("loading action bindings failed: %w", err)
	}

	apiRouter := dash.NewRouter(sessions, views, state, dispatcher, table, reporter, client)
	server, err := dash.NewServer(cfg.App.HTTPAddr, apiRouter)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		server:    server,
		sessions:  sessions,
		state:     state,
		poller:    poller,
		sessionDB: sessionDB,
		alertDB:   alertDB,
	}, nil
}

func buildTelegram(cfg config.TelegramConfig) notifier.Notifier {
	return notifier.NewTelegram(cfg.BotToken, cfg.ChatID)
}
