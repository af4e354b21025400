// Package container is a small dependency injection container.
//
// # Overview
//
// Types become injectable by registering a constructor. The constructor's
// parameter types, in order, are the type's dependencies. A Scope resolves a
// type by resolving its dependencies depth-first, calling the constructor,
// and caching the result, so every type is built at most once per scope.
//
// # Registering
//
//	registry := container.NewRegistry()
//	registry.MustProvide(
//	    NewConfig,                    // func() *Config
//	    NewStore,                     // func(*Config) (*Store, error)
//	    NewOrders,                    // func(*Store, Mailer) *Orders
//	)
//
//	// Struct fields tagged `inject:""` instead of a constructor.
//	container.ProvideStruct[Checkout](registry)
//
//	// Package-level registration into container.Default.
//	var _ = container.Injectable(NewMailer)
//
// A constructor that cannot declare its dependencies (not a function,
// variadic, wrong results, already registered) is rejected with a
// ConfigurationError.
//
// # Resolving
//
//	scope := container.NewScope(container.WithRegistry(registry))
//	orders, err := container.Get[*Orders](scope)
//
// Resolution is lazy: only the requested type and whatever it transitively
// needs are built. Types shared by several dependents (diamonds) are built
// once and shared.
//
// # Overriding
//
//	// A pre-built instance; Mailer's constructor never runs.
//	container.Use[Mailer](scope, &FakeMailer{})
//
//	// Build *FakeMailer wherever Mailer is requested, at any depth.
//	container.Mock[Mailer, *FakeMailer](scope)
//
// Overrides must be set before resolution reaches the overridden type.
//
// # Errors
//
// Resolution fails with a *NotInjectableError when a type in the graph was
// never registered, and with a *DependencyCycleError when a type depends on
// itself, directly or transitively. Both carry a dependency chain rendered
// as type names joined by "---":
//
//	C0 is not injectable, dependency chain: C3---C2---C1
//	dependency loop: A---B---C---A
//
// A type reached through a mock renders as Replacement(Requested).
//
// Scope.Validate reports the same errors without constructing anything.
package container
