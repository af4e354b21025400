package container

import (
	"reflect"

	"github.com/alecthomas/errors"
)

// Validate walks the dependency graph of each root the way Get would,
// honouring mocks and cached instances, without constructing anything. It
// returns the first NotInjectableError or DependencyCycleError found.
//
// With no roots every registered type is checked.
func (s *Scope) Validate(roots ...reflect.Type) error {
	if len(roots) == 0 {
		for _, p := range s.registry.Providers() {
			roots = append(roots, p.Type)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	visited := map[reflect.Type]bool{}
	for _, root := range roots {
		if root == nil {
			return errors.Errorf("cannot validate a nil type")
		}
		if err := s.walk(root, rootChain, map[reflect.Type]struct{}{}, visited); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scope) walk(typ reflect.Type, parent *chain, constructing map[reflect.Type]struct{}, visited map[reflect.Type]bool) error {
	var origin reflect.Type
	if replacement, ok := s.mocks[typ]; ok {
		origin, typ = typ, replacement
	}
	if _, ok := s.instances[typ]; ok || visited[typ] {
		return nil
	}
	if _, ok := constructing[typ]; ok {
		return errors.WithStack(&DependencyCycleError{Type: typ, Loop: parent.renderLoop(typ, origin)})
	}
	constructing[typ] = struct{}{}

	provider, ok := s.registry.Lookup(typ)
	if !ok {
		return errors.WithStack(&NotInjectableError{Type: typ, Origin: origin, Chain: parent.render()})
	}
	current := parent.next(typ, origin)
	for _, dep := range provider.Requires {
		if err := s.walk(dep, current, constructing, visited); err != nil {
			return err
		}
	}
	delete(constructing, typ)
	visited[typ] = true
	return nil
}

// Validate is the typed form of Scope.Validate for a single root.
func Validate[T any](s *Scope) error {
	return s.Validate(reflect.TypeFor[T]())
}
