package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alecthomas/errors"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/providers"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Option configures an Application.
type Option func(*settings)

type settings struct {
	envFiles []string
	modules  []container.Module
	debug    bool
}

// WithEnvFiles loads the given .env files instead of ".env".
func WithEnvFiles(files ...string) Option {
	return func(s *settings) { s.envFiles = append(s.envFiles, files...) }
}

// WithModules installs application modules after the framework modules.
func WithModules(modules ...container.Module) Option {
	return func(s *settings) { s.modules = append(s.modules, modules...) }
}

// WithDebug forces APP_DEBUG on, whatever the environment says.
func WithDebug(debug bool) Option {
	return func(s *settings) { s.debug = s.debug || debug }
}

// Application owns the registry and the scope the whole program is resolved
// from. The framework modules are always installed first.
type Application struct {
	registry *container.Registry
	scope    *container.Scope
	config   *config.Config
	logger   *slog.Logger
}

// New installs the framework and application modules and prepares the scope.
//
// Configuration and the logger are resolved from a short-lived bootstrap
// scope so the application scope can be created with that logger. Both are
// then handed to the application scope together with the scope itself.
//
//	application, err := app.New(app.WithModules(orders.Module{}))
func New(options ...Option) (*Application, error) {
	s := &settings{}
	for _, option := range options {
		option(s)
	}

	registry := container.NewRegistry()
	if err := registry.Install(providers.Framework(s.envFiles...)...); err != nil {
		return nil, errors.Wrap(err, "failed to install framework")
	}
	if err := registry.Install(s.modules...); err != nil {
		return nil, errors.Wrap(err, "failed to install application")
	}

	boot := container.NewScope(container.WithRegistry(registry))
	cfg, err := container.Get[*config.Config](boot)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if s.debug {
		cfg.App.Debug = true
	}
	logger, err := container.Get[*slog.Logger](boot)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	scope := container.NewScope(container.WithRegistry(registry), container.WithLogger(logger))
	container.Use(scope, cfg)
	container.Use(scope, logger)
	container.Use(scope, scope)

	return &Application{registry: registry, scope: scope, config: cfg, logger: logger}, nil
}

// Registry returns the application registry.
func (a *Application) Registry() *container.Registry { return a.registry }

// Scope returns the application scope.
func (a *Application) Scope() *container.Scope { return a.scope }

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Serve runs the inspector server on INSPECT_ADDR until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	server, err := container.Get[*http.Server](a.scope)
	if err != nil {
		return errors.WithStack(err)
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", server.Addr)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is like Serve but accepts connections on ln.
func (a *Application) ServeListener(ctx context.Context, ln net.Listener) error {
	server, err := container.Get[*http.Server](a.scope)
	if err != nil {
		_ = ln.Close()
		return errors.WithStack(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()
	a.logger.Info("Inspector listening",
		"addr", ln.Addr().String(),
		"app", a.config.App.Name,
		"env", a.config.App.Env)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "inspector server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down inspector server")
	}
	a.logger.Info("Inspector stopped")
	return nil
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
