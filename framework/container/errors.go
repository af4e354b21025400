package container

import (
	"fmt"
	"reflect"

	"github.com/alecthomas/errors"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotInjectable   = errors.New("not injectable")
	ErrDependencyCycle = errors.New("dependency cycle")
	ErrConfiguration   = errors.New("invalid injectable")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrConstruction    = errors.New("construction failed")
)

// NotInjectableError is returned when resolution reaches a type with no
// registry entry.
type NotInjectableError struct {
	Type   reflect.Type
	Origin reflect.Type // set when a mock redirected Origin to Type
	// Chain is every type traversed to reach Type, root first.
	Chain string
}

func (e *NotInjectableError) Error() string {
	return fmt.Sprintf("%s is not injectable, dependency chain: %s", nodeName(e.Type, e.Origin), e.Chain)
}

func (e *NotInjectableError) Is(target error) bool { return target == ErrNotInjectable }

// DependencyCycleError is returned when a type is requested while it is
// already under construction. Loop holds only the cyclical segment.
type DependencyCycleError struct {
	Type reflect.Type
	Loop string
}

func (e *DependencyCycleError) Error() string {
	return "dependency loop: " + e.Loop
}

func (e *DependencyCycleError) Is(target error) bool { return target == ErrDependencyCycle }

// ConfigurationError is returned at registration time when a dependency list
// cannot be derived for a constructor.
type ConfigurationError struct {
	// What is being registered, eg. the constructor's signature.
	What   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid injectable %s: %s", e.What, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TypeMismatchError is returned when an overriding value cannot stand in
// for the type that was requested.
type TypeMismatchError struct {
	Got   reflect.Type
	Want  reflect.Type
	Chain string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("cannot use %s as %s", typeString(e.Got), typeString(e.Want))
	if e.Chain != "" {
		msg += ", dependency chain: " + e.Chain
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ConstructionError wraps an error returned by a constructor.
type ConstructionError struct {
	Type  reflect.Type
	Chain string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s, dependency chain: %s: %s", TypeName(e.Type), e.Chain, e.Err)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func (e *ConstructionError) Unwrap() error { return e.Err }

func configErrorf(what, format string, args ...any) error {
	return errors.WithStack(&ConfigurationError{What: what, Reason: fmt.Sprintf(format, args...)})
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
