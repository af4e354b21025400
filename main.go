package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/kong"

	"github.com/km-arc/go-inject/app"
	"github.com/km-arc/go-inject/framework/container"
	kernel "github.com/km-arc/go-inject/framework/app"
)

// Globals are flags shared by every command.
type Globals struct {
	EnvFile []string `help:"Load these .env files instead of .env." placeholder:"FILE"`
	Debug   bool     `help:"Enable debug logging."`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Print the version and exit."`

	Graph GraphCmd `cmd:"" help:"Print the dependency tree of the sample application."`
	Check CheckCmd `cmd:"" help:"Validate the sample application graph without constructing it."`
	Serve ServeCmd `cmd:"" help:"Run the inspector HTTP server until interrupted."`
}

func main() {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
	}
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("go-inject"),
		kong.Description("Inspect the dependency graph of the sample order application."),
		kong.UsageOnError(),
		kong.Vars{"version": version})
	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

func newApplication(g *Globals) (*kernel.Application, error) {
	return kernel.New(
		kernel.WithEnvFiles(g.EnvFile...),
		kernel.WithDebug(g.Debug),
		kernel.WithModules(app.Module{}),
	)
}

// ── graph ─────────────────────────────────────────────────────────────────────

type GraphCmd struct {
	Roots []string `arg:"" optional:"" help:"Types to print, by name (default: API)."`
}

func (c *GraphCmd) Run(g *Globals) error {
	application, err := newApplication(g)
	if err != nil {
		return err
	}
	registry := application.Registry()
	roots, err := lookupRoots(registry, orDefault(c.Roots, "API"))
	if err != nil {
		return err
	}
	return writeTree(os.Stdout, registry, roots)
}

// ── check ─────────────────────────────────────────────────────────────────────

type CheckCmd struct {
	Roots []string `arg:"" optional:"" help:"Types to check, by name (default: every registered type)."`
}

func (c *CheckCmd) Run(g *Globals) error {
	application, err := newApplication(g)
	if err != nil {
		return err
	}
	roots, err := lookupRoots(application.Registry(), c.Roots)
	if err != nil {
		return err
	}
	if err := application.Scope().Validate(roots...); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

// ── serve ─────────────────────────────────────────────────────────────────────

type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	application, err := newApplication(g)
	if err != nil {
		return err
	}
	// Resolving the API mounts /orders next to the inspector routes.
	if _, err := container.Get[*app.API](application.Scope()); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.Serve(ctx)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func orDefault(names []string, fallback ...string) []string {
	if len(names) == 0 {
		return fallback
	}
	return names
}

func lookupRoots(registry *container.Registry, names []string) ([]reflect.Type, error) {
	roots := make([]reflect.Type, 0, len(names))
	for _, name := range names {
		p, ok := registry.Find(name)
		if !ok {
			return nil, errors.Errorf("unknown type %q", name)
		}
		roots = append(roots, p.Type)
	}
	return roots, nil
}

// writeTree prints the dependencies of each root as an indented tree.
// Unregistered types are marked missing and a type already on the current
// path is marked as a cycle instead of being expanded again.
func writeTree(w io.Writer, registry *container.Registry, roots []reflect.Type) error {
	for _, root := range roots {
		if _, err := fmt.Fprintln(w, container.TypeName(root)); err != nil {
			return errors.WithStack(err)
		}
		if err := writeDeps(w, registry, root, "", map[reflect.Type]bool{root: true}); err != nil {
			return err
		}
	}
	return nil
}

func writeDeps(w io.Writer, registry *container.Registry, typ reflect.Type, prefix string, path map[reflect.Type]bool) error {
	p, ok := registry.Lookup(typ)
	if !ok {
		return nil
	}
	for i, dep := range p.Requires {
		branch, indent := "├── ", "│   "
		if i == len(p.Requires)-1 {
			branch, indent = "└── ", "    "
		}
		label := container.TypeName(dep)
		_, registered := registry.Lookup(dep)
		switch {
		case path[dep]:
			label += " (cycle)"
		case !registered:
			label += " (missing)"
		}
		if _, err := fmt.Fprintln(w, prefix+branch+label); err != nil {
			return errors.WithStack(err)
		}
		if path[dep] || !registered {
			continue
		}
		path[dep] = true
		if err := writeDeps(w, registry, dep, prefix+indent, path); err != nil {
			return err
		}
		delete(path, dep)
	}
	return nil
}
