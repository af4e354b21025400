package container

import (
	"cmp"
	"reflect"
	"slices"
	"sync"

	"github.com/alecthomas/errors"
)

var errorType = reflect.TypeFor[error]()

// BuildFunc constructs an instance from its resolved dependencies, passed in
// the order they were declared.
type BuildFunc func(args []reflect.Value) (reflect.Value, error)

// Provider is a registry entry: the type it produces, the ordered list of
// types it depends on, and how to build it.
type Provider struct {
	Type     reflect.Type
	Requires []reflect.Type
	// Source describes where the registration came from, eg. the
	// constructor's signature.
	Source string
	build  BuildFunc
}

// Name is the rendered name of the provided type.
func (p *Provider) Name() string { return TypeName(p.Type) }

// Registry maps constructible types to their providers.
//
// It is safe for concurrent use. Registration is expected to happen before
// any scope resolves from the registry.
type Registry struct {
	mu        sync.RWMutex
	providers map[reflect.Type]*Provider
}

// Default is the registry used by scopes created without WithRegistry.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[reflect.Type]*Provider)}
}

// Injectable registers constructors into the Default registry and panics
// on a configuration error. It is meant for package-level registration:
//
//	var _ = container.Injectable(NewOrders, NewMailer)
func Injectable(ctors ...any) *Registry {
	return Default.MustProvide(ctors...)
}

// MustProvide is like Provide for several constructors, panicking on error.
func (r *Registry) MustProvide(ctors ...any) *Registry {
	for _, ctor := range ctors {
		if err := r.Provide(ctor); err != nil {
			panic(err)
		}
	}
	return r
}

// Provide registers a constructor of the form
//
//	func(D1, ..., Dn) T
//	func(D1, ..., Dn) (T, error)
//
// T becomes injectable and D1..Dn, in order, are its dependencies.
func (r *Registry) Provide(ctor any) error {
	if ctor == nil {
		return configErrorf("<nil>", "constructor is nil")
	}
	fn := reflect.ValueOf(ctor)
	ft := fn.Type()
	what := ft.String()
	if ft.Kind() != reflect.Func {
		return configErrorf(what, "constructor must be a function")
	}
	if fn.IsNil() {
		return configErrorf(what, "constructor is nil")
	}
	if ft.IsVariadic() {
		return configErrorf(what, "variadic constructors cannot declare their dependencies")
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return configErrorf(what, "second return value must be error")
		}
	default:
		return configErrorf(what, "constructor must return (T) or (T, error)")
	}
	if ft.Out(0) == errorType {
		return configErrorf(what, "constructor cannot provide error")
	}

	requires := make([]reflect.Type, ft.NumIn())
	for i := range requires {
		requires[i] = ft.In(i)
	}
	return r.register(&Provider{
		Type:     ft.Out(0),
		Requires: requires,
		Source:   what,
		build: func(args []reflect.Value) (reflect.Value, error) {
			out := fn.Call(args)
			if len(out) == 2 && !out[1].IsNil() {
				return reflect.Value{}, out[1].Interface().(error) //nolint:forcetypeassert
			}
			return out[0], nil
		},
	})
}

// Declare registers t by hand with an explicit dependency list.
func (r *Registry) Declare(t reflect.Type, requires []reflect.Type, build BuildFunc) error {
	if t == nil {
		return configErrorf("<nil>", "type is nil")
	}
	what := t.String()
	if build == nil {
		return configErrorf(what, "build function is nil")
	}
	for i, dep := range requires {
		if dep == nil {
			return configErrorf(what, "dependency %d is nil", i)
		}
	}
	return r.register(&Provider{
		Type:     t,
		Requires: slices.Clone(requires),
		Source:   "declared " + what,
		build:    build,
	})
}

// ProvideStruct registers *T, built by assigning every field tagged
// `inject:""` from the scope. Tagged fields are the dependencies, in field
// order.
//
//	type Orders struct {
//	    Store  *Store  `inject:""`
//	    Mailer Mailer  `inject:""`
//	}
//	container.ProvideStruct[Orders](registry)
func ProvideStruct[T any](r *Registry) error {
	st := reflect.TypeFor[T]()
	what := "*" + st.String()
	if st.Kind() != reflect.Struct {
		return configErrorf(st.String(), "only struct types can be injected by field")
	}
	var (
		fields   []int
		requires []reflect.Type
	)
	for i := range st.NumField() {
		field := st.Field(i)
		if _, ok := field.Tag.Lookup("inject"); !ok {
			continue
		}
		if !field.IsExported() {
			return configErrorf(what, "field %s is tagged for injection but unexported", field.Name)
		}
		fields = append(fields, i)
		requires = append(requires, field.Type)
	}
	return r.register(&Provider{
		Type:     reflect.PointerTo(st),
		Requires: requires,
		Source:   "struct " + what,
		build: func(args []reflect.Value) (reflect.Value, error) {
			v := reflect.New(st)
			for i, idx := range fields {
				v.Elem().Field(idx).Set(args[i])
			}
			return v, nil
		},
	})
}

func (r *Registry) register(p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.providers[p.Type]; ok {
		return configErrorf(p.Source, "%s is already provided by %s", typeString(p.Type), existing.Source)
	}
	r.providers[p.Type] = p
	return nil
}

// Lookup returns the provider for t. ok is false when t was never
// registered, which is distinct from a provider with no dependencies.
func (r *Registry) Lookup(t reflect.Type) (provider *Provider, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok = r.providers[t]
	return provider, ok
}

// Find looks a provider up by its rendered name (see TypeName) or by its
// full reflect name, eg. "Orders" or "*app.Orders".
func (r *Registry) Find(name string) (*Provider, bool) {
	for _, p := range r.Providers() {
		if p.Name() == name || p.Type.String() == name {
			return p, true
		}
	}
	return nil, false
}

// Providers returns every registered provider ordered by name.
func (r *Registry) Providers() []*Provider {
	r.mu.RLock()
	out := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Provider) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.Type.String(), b.Type.String()))
	})
	return out
}

// Install registers every module in order, stopping at the first error.
func (r *Registry) Install(modules ...Module) error {
	for _, module := range modules {
		if err := module.Register(r); err != nil {
			return errors.Wrapf(err, "%s", moduleName(module))
		}
	}
	return nil
}
