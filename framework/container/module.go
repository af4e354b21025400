package container

import "fmt"

// ── Module interface ──────────────────────────────────────────────────────────

// Module groups related registrations so an application can install them in
// one call.
//
//	type StorageModule struct{ DSN string }
//
//	func (m *StorageModule) Register(r *container.Registry) error {
//	    return r.Provide(func() (*Store, error) { return OpenStore(m.DSN) })
//	}
//
//	registry.Install(&StorageModule{DSN: dsn}, &MailModule{})
type Module interface {
	// Register adds the module's providers to r. It must not resolve
	// anything.
	Register(r *Registry) error
}

// ModuleFunc adapts a function to a Module.
type ModuleFunc func(r *Registry) error

func (f ModuleFunc) Register(r *Registry) error { return f(r) }

// Constructors is a Module that provides each constructor in order.
//
//	registry.Install(container.Constructors{NewStore, NewMailer, NewOrders})
type Constructors []any

func (c Constructors) Register(r *Registry) error {
	for _, ctor := range c {
		if err := r.Provide(ctor); err != nil {
			return err
		}
	}
	return nil
}

// named is implemented by modules that want a readable name in errors.
type named interface{ Name() string }

func moduleName(m Module) string {
	if n, ok := m.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("module %T", m)
}
