// Package inspect exposes a read-only HTTP view of a container scope.
package inspect

import (
	"net/http"
	"reflect"

	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/routing"
)

// TypeInfo describes one registered provider.
type TypeInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Requires []string `json:"requires"`
	Source   string   `json:"source"`
	Resolved bool     `json:"resolved"`
}

// Inspector reports on the registry and cache of a single scope.
type Inspector struct {
	scope *container.Scope
}

// New creates an Inspector over scope. It never constructs anything.
func New(scope *container.Scope) *Inspector {
	return &Inspector{scope: scope}
}

// Routes mounts the inspector endpoints on r.
//
//	GET /healthz
//	GET /types
//	GET /types/{name}
//	GET /instances
//	GET /validate?root=Name
func (i *Inspector) Routes(r *routing.Router) {
	r.Get("/healthz", i.healthz)
	r.Get("/types", i.listTypes)
	r.Get("/types/{name}", i.showType)
	r.Get("/instances", i.listInstances)
	r.Get("/validate", i.validate)
}

// Types returns every registered provider, ordered by name.
func (i *Inspector) Types() []TypeInfo {
	providers := i.scope.Registry().Providers()
	out := make([]TypeInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, i.describe(p))
	}
	return out
}

// Type returns the provider registered under name.
func (i *Inspector) Type(name string) (TypeInfo, bool) {
	p, ok := i.scope.Registry().Find(name)
	if !ok {
		return TypeInfo{}, false
	}
	return i.describe(p), true
}

// Instances returns the names of the types cached in the scope.
func (i *Inspector) Instances() []string {
	types := i.scope.Instances()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, container.TypeName(t))
	}
	return out
}

func (i *Inspector) describe(p *container.Provider) TypeInfo {
	requires := make([]string, 0, len(p.Requires))
	for _, dep := range p.Requires {
		requires = append(requires, container.TypeName(dep))
	}
	return TypeInfo{
		Name:     p.Name(),
		Type:     p.Type.String(),
		Requires: requires,
		Source:   p.Source,
		Resolved: i.scope.Resolved(p.Type),
	}
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (i *Inspector) healthz(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(map[string]string{"status": "ok"})
}

func (i *Inspector) listTypes(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(i.Types())
}

func (i *Inspector) showType(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	name := routing.Param(r, "name")
	info, ok := i.Type(name)
	if !ok {
		res.NotFound(name + " is not registered")
		return
	}
	res.Success(info)
}

func (i *Inspector) listInstances(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(i.Instances())
}

// validate checks the graph below each ?root= parameter, or the whole
// registry when none is given.
func (i *Inspector) validate(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	names := gohttp.NewRequest(r).QueryAll("root")
	roots := make([]reflect.Type, 0, len(names))
	for _, name := range names {
		p, ok := i.scope.Registry().Find(name)
		if !ok {
			res.NotFound(name + " is not registered")
			return
		}
		roots = append(roots, p.Type)
	}
	if err := i.scope.Validate(roots...); err != nil {
		res.Unprocessable(err.Error())
		return
	}
	res.Success(map[string]bool{"valid": true})
}
