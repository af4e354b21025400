package container

import (
	"cmp"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/alecthomas/errors"
)

// ── Options ───────────────────────────────────────────────────────────────────

// Option configures a Scope.
type Option func(*Scope)

// WithRegistry resolves types from r instead of the Default registry.
func WithRegistry(r *Registry) Option {
	return func(s *Scope) { s.registry = r }
}

// WithLogger logs constructions and mock redirects at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) { s.logger = logger }
}

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope resolves and caches one instance per type.
//
// Every instance is built at most once per scope: the first request for a
// type constructs it together with its not-yet-cached dependencies, later
// requests return the identical value. Scopes are flat and independent; two
// scopes over the same registry share nothing.
//
// A Scope is safe for concurrent use. Each call holds the scope's lock for
// its whole duration, so constructors must not call back into the scope that
// is building them.
type Scope struct {
	mu        sync.Mutex
	registry  *Registry
	logger    *slog.Logger
	instances map[reflect.Type]reflect.Value
	mocks     map[reflect.Type]reflect.Type
}

// NewScope creates an empty scope over the Default registry.
func NewScope(options ...Option) *Scope {
	s := &Scope{
		registry:  Default,
		logger:    slog.New(slog.DiscardHandler),
		instances: make(map[reflect.Type]reflect.Value),
		mocks:     make(map[reflect.Type]reflect.Type),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Registry returns the registry the scope resolves from.
func (s *Scope) Registry() *Registry { return s.registry }

// ── Overrides ─────────────────────────────────────────────────────────────────

// Use makes instance the singleton for t, so t is never constructed and its
// dependents receive exactly instance. It overwrites any cached value and
// any mock for t.
//
// Overrides must be in place before resolution first reaches t.
func (s *Scope) Use(t reflect.Type, instance any) *Scope {
	if t == nil {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		v = reflect.Zero(t)
	}
	s.instances[t] = v
	delete(s.mocks, t)
	return s
}

// Mock makes every request for t, at any depth, construct replacement
// instead. The result is cached under replacement, so it is shared with
// anything depending on replacement directly.
//
// Redirection is a single hop: a mock on replacement itself is not followed.
func (s *Scope) Mock(t, replacement reflect.Type) *Scope {
	if t == nil || replacement == nil {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == replacement {
		delete(s.mocks, t)
	} else {
		s.mocks[t] = replacement
	}
	return s
}

// Use is the typed form of Scope.Use.
func Use[T any](s *Scope, instance T) *Scope {
	return s.Use(reflect.TypeFor[T](), instance)
}

// Mock is the typed form of Scope.Mock.
//
//	container.Mock[Mailer, *FakeMailer](scope)
func Mock[T, R any](s *Scope) *Scope {
	return s.Mock(reflect.TypeFor[T](), reflect.TypeFor[R]())
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the singleton for t, constructing it and its transitive
// dependencies on first request.
func (s *Scope) Get(t reflect.Type) (any, error) {
	v, err := s.resolve(t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Get is the typed form of Scope.Get.
//
//	orders, err := container.Get[*app.Orders](scope)
func Get[T any](s *Scope) (T, error) {
	var zero T
	v, err := s.resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	raw := v.Interface()
	if raw == nil {
		return zero, nil
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, errors.WithStack(&TypeMismatchError{Got: reflect.TypeOf(raw), Want: reflect.TypeFor[T]()})
	}
	return typed, nil
}

// MustGet is like Get but panics on error.
func MustGet[T any](s *Scope) T {
	v, err := Get[T](s)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *Scope) resolve(t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, errors.Errorf("cannot resolve a nil type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.construct(t, rootChain, map[reflect.Type]struct{}{})
	if err != nil {
		return reflect.Value{}, err
	}
	if !assignable(v, t) {
		return reflect.Value{}, errors.WithStack(&TypeMismatchError{Got: v.Type(), Want: t})
	}
	return v, nil
}

// construct resolves typ depth-first. constructing holds the types on the
// current call stack and is shared across the whole top-level request.
func (s *Scope) construct(typ reflect.Type, parent *chain, constructing map[reflect.Type]struct{}) (reflect.Value, error) {
	var origin reflect.Type
	if replacement, ok := s.mocks[typ]; ok {
		s.logger.Debug("Redirecting mocked type", "type", TypeName(typ), "replacement", TypeName(replacement))
		origin, typ = typ, replacement
	}

	if instance, ok := s.instances[typ]; ok {
		return instance, nil
	}

	if _, ok := constructing[typ]; ok {
		return reflect.Value{}, errors.WithStack(&DependencyCycleError{Type: typ, Loop: parent.renderLoop(typ, origin)})
	}
	constructing[typ] = struct{}{}

	provider, ok := s.registry.Lookup(typ)
	if !ok {
		return reflect.Value{}, errors.WithStack(&NotInjectableError{Type: typ, Origin: origin, Chain: parent.render()})
	}

	current := parent.next(typ, origin)
	args := make([]reflect.Value, len(provider.Requires))
	for i, dep := range provider.Requires {
		arg, err := s.construct(dep, current, constructing)
		if err != nil {
			return reflect.Value{}, err
		}
		if !assignable(arg, dep) {
			return reflect.Value{}, errors.WithStack(&TypeMismatchError{Got: arg.Type(), Want: dep, Chain: current.render()})
		}
		args[i] = concrete(arg)
	}

	instance, err := provider.build(args)
	if err != nil {
		return reflect.Value{}, errors.WithStack(&ConstructionError{Type: typ, Chain: current.render(), Err: err})
	}
	if !instance.IsValid() {
		instance = reflect.Zero(typ)
	}
	if !assignable(instance, typ) {
		return reflect.Value{}, errors.WithStack(&TypeMismatchError{Got: instance.Type(), Want: typ, Chain: current.render()})
	}
	s.instances[typ] = instance
	delete(constructing, typ)

	s.logger.Debug("Constructed", "type", TypeName(typ), "chain", current.render())
	return instance, nil
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Resolved reports whether a request for t would be served from the cache,
// following a mock on t.
func (s *Scope) Resolved(t reflect.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if replacement, ok := s.mocks[t]; ok {
		t = replacement
	}
	_, ok := s.instances[t]
	return ok
}

// Instances returns the types cached in the scope, ordered by name.
func (s *Scope) Instances() []reflect.Type {
	s.mu.Lock()
	out := make([]reflect.Type, 0, len(s.instances))
	for t := range s.instances {
		out = append(out, t)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b reflect.Type) int {
		return cmp.Or(cmp.Compare(TypeName(a), TypeName(b)), cmp.Compare(a.String(), b.String()))
	})
	return out
}

// assignable reports whether v can be passed where want is expected. A value
// held in an interface is judged by its dynamic type.
func assignable(v reflect.Value, want reflect.Type) bool {
	if v.Type().AssignableTo(want) {
		return true
	}
	c := concrete(v)
	return c.Kind() != reflect.Interface && c.Type().AssignableTo(want)
}

func concrete(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return v.Elem()
	}
	return v
}
