package providers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/inspect"
	"github.com/km-arc/go-inject/framework/logging"
	"github.com/km-arc/go-inject/framework/routing"
)

// Framework returns the modules every application installs, in order.
func Framework(envFiles ...string) []container.Module {
	return []container.Module{
		&ConfigProvider{EnvFiles: envFiles},
		&LoggingProvider{},
		&RoutingProvider{},
		&InspectProvider{},
		&ServerProvider{},
	}
}

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider loads the application configuration from .env files and the
// environment.
//
// Provides:
//   - *config.Config
type ConfigProvider struct {
	EnvFiles []string
}

func (p *ConfigProvider) Name() string { return "config provider" }

func (p *ConfigProvider) Register(r *container.Registry) error {
	envFiles := p.EnvFiles
	return r.Provide(func() (*config.Config, error) {
		return config.Load(envFiles...)
	})
}

// ── LoggingProvider ───────────────────────────────────────────────────────────

// LoggingProvider registers the structured logger.
//
// Provides:
//   - *slog.Logger, from *config.Config
type LoggingProvider struct{}

func (p *LoggingProvider) Name() string { return "logging provider" }

func (p *LoggingProvider) Register(r *container.Registry) error {
	return r.Provide(logging.New)
}

// ── RoutingProvider ───────────────────────────────────────────────────────────

// RoutingProvider registers the HTTP router.
//
// Provides:
//   - *routing.Router, from *slog.Logger
type RoutingProvider struct{}

func (p *RoutingProvider) Name() string { return "routing provider" }

func (p *RoutingProvider) Register(r *container.Registry) error {
	return r.Provide(routing.New)
}

// ── InspectProvider ───────────────────────────────────────────────────────────

// InspectProvider registers the container inspector and the handler serving
// it. The *container.Scope it depends on is never constructed: the kernel
// hands each scope to itself with Use.
//
// Provides:
//   - *inspect.Inspector, from *container.Scope
//   - http.Handler, from *inspect.Inspector and *routing.Router
type InspectProvider struct{}

func (p *InspectProvider) Name() string { return "inspect provider" }

func (p *InspectProvider) Register(r *container.Registry) error {
	return r.Install(container.Constructors{
		inspect.New,
		func(inspector *inspect.Inspector, router *routing.Router) http.Handler {
			inspector.Routes(router)
			return router
		},
	})
}

// ── ServerProvider ────────────────────────────────────────────────────────────

// ServerProvider registers the inspector HTTP server.
//
// Provides:
//   - *http.Server, from *config.Config, *slog.Logger and http.Handler
type ServerProvider struct{}

func (p *ServerProvider) Name() string { return "server provider" }

func (p *ServerProvider) Register(r *container.Registry) error {
	return r.Provide(NewServer)
}

// NewServer builds the HTTP server listening on cfg.Inspect.Addr.
func NewServer(cfg *config.Config, logger *slog.Logger, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Inspect.Addr,
		Handler:           handler,
		ReadTimeout:       time.Second * 10,
		WriteTimeout:      time.Second * 10,
		ReadHeaderTimeout: time.Second * 5,
		ErrorLog:          logging.Legacy(logger, slog.LevelError),
	}
}
