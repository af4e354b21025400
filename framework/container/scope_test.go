package container_test

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type C4 struct{}
type C2 struct{ C4 *C4 }
type C3 struct{ C4 *C4 }
type C1 struct {
	C2 *C2
	C3 *C3
}

func NewC4() *C4               { return &C4{} }
func NewC2(c4 *C4) *C2         { return &C2{C4: c4} }
func NewC3(c4 *C4) *C3         { return &C3{C4: c4} }
func NewC1(c2 *C2, c3 *C3) *C1 { return &C1{C2: c2, C3: c3} }

type Greeter interface{ Greet() string }

type RealGreeter struct{}

func (*RealGreeter) Greet() string { return "hello" }

type FakeGreeter struct{ C4 *C4 }

func (*FakeGreeter) Greet() string { return "fake" }

type Greeting struct{ Greeter Greeter }

func NewGreeting(g Greeter) *Greeting { return &Greeting{Greeter: g} }

func newScope(t *testing.T, ctors ...any) *container.Scope {
	t.Helper()
	registry := container.NewRegistry()
	require.NoError(t, registry.Install(container.Constructors(ctors)))
	return container.NewScope(container.WithRegistry(registry))
}

// ── Get ───────────────────────────────────────────────────────────────────────

func TestScope_Get_Instantiates(t *testing.T) {
	scope := newScope(t, NewC1, NewC2, NewC3, NewC4)

	c1, err := container.Get[*C1](scope)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.NotNil(t, c1.C2)
	assert.NotNil(t, c1.C3)
}

func TestScope_Get_Untyped(t *testing.T) {
	scope := newScope(t, NewC4)

	v, err := scope.Get(reflect.TypeFor[*C4]())
	require.NoError(t, err)
	assert.IsType(t, &C4{}, v)
}

func TestScope_Get_Singleton(t *testing.T) {
	scope := newScope(t, NewC1, NewC2, NewC3, NewC4)

	first := container.MustGet[*C1](scope)
	second := container.MustGet[*C1](scope)
	assert.Same(t, first, second)
}

func TestScope_Get_DiamondShared(t *testing.T) {
	scope := newScope(t, NewC1, NewC2, NewC3, NewC4)

	c1 := container.MustGet[*C1](scope)
	assert.Same(t, c1.C2.C4, c1.C3.C4)

	c2 := container.MustGet[*C2](scope)
	c3 := container.MustGet[*C3](scope)
	assert.Same(t, c2.C4, c3.C4)
}

func TestScope_Get_ScopesAreIndependent(t *testing.T) {
	registry := container.NewRegistry().MustProvide(NewC4)
	a := container.NewScope(container.WithRegistry(registry))
	b := container.NewScope(container.WithRegistry(registry))

	assert.NotSame(t, container.MustGet[*C4](a), container.MustGet[*C4](b))
}

func TestScope_Get_OnDemand(t *testing.T) {
	var c1Init, c2Init int
	type Leaf struct{}
	type Dependent struct{ Leaf *Leaf }
	scope := newScope(t,
		func() *Leaf { c1Init++; return &Leaf{} },
		func(l *Leaf) *Dependent { c2Init++; return &Dependent{Leaf: l} },
	)

	assert.Equal(t, 0, c1Init)
	assert.Equal(t, 0, c2Init)

	container.MustGet[*Leaf](scope)
	assert.Equal(t, 1, c1Init)
	assert.Equal(t, 0, c2Init)

	container.MustGet[*Leaf](scope)
	assert.Equal(t, 1, c1Init)
	assert.Equal(t, 0, c2Init)

	container.MustGet[*Dependent](scope)
	assert.Equal(t, 1, c1Init)
	assert.Equal(t, 1, c2Init)
}

func TestScope_Get_ZeroDependencies(t *testing.T) {
	called := false
	scope := newScope(t, func() *C4 { called = true; return &C4{} })

	_, err := container.Get[*C4](scope)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestScope_Get_NilType(t *testing.T) {
	scope := newScope(t)
	_, err := scope.Get(nil)
	assert.Error(t, err)
}

// ── NotInjectable ─────────────────────────────────────────────────────────────

type NC0 struct{}
type NC1 struct{}
type NC2 struct{}
type NC3 struct{}

func TestScope_Get_NotInjectableDependency(t *testing.T) {
	scope := newScope(t,
		func(*NC0) *NC1 { return &NC1{} },
		func(*NC1) *NC2 { return &NC2{} },
		func(*NC2) *NC3 { return &NC3{} },
	)

	_, err := container.Get[*NC3](scope)
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrNotInjectable)
	assert.Contains(t, err.Error(), "NC0 is not injectable")
	assert.Contains(t, err.Error(), "NC3---NC2---NC1")

	var notInjectable *container.NotInjectableError
	require.ErrorAs(t, err, &notInjectable)
	assert.Equal(t, reflect.TypeFor[*NC0](), notInjectable.Type)
	assert.Equal(t, "NC3---NC2---NC1", notInjectable.Chain)
}

func TestScope_Get_NotInjectableRoot(t *testing.T) {
	scope := newScope(t)

	_, err := container.Get[*NC0](scope)
	assert.ErrorIs(t, err, container.ErrNotInjectable)
	assert.Contains(t, err.Error(), "NC0 is not injectable, dependency chain: ")
}

func TestScope_Get_FailureKeepsBuiltSiblingsCached(t *testing.T) {
	var c4Init int
	type Broken struct{}
	type Parent struct{}
	scope := newScope(t,
		func() *C4 { c4Init++; return &C4{} },
		func(*C4, *NC0) *Broken { return &Broken{} },
		func(*Broken) *Parent { return &Parent{} },
	)

	_, err := container.Get[*Parent](scope)
	require.ErrorIs(t, err, container.ErrNotInjectable)

	assert.True(t, scope.Resolved(reflect.TypeFor[*C4]()))
	assert.False(t, scope.Resolved(reflect.TypeFor[*Broken]()))
	assert.False(t, scope.Resolved(reflect.TypeFor[*Parent]()))

	container.MustGet[*C4](scope)
	assert.Equal(t, 1, c4Init)
}

// ── DependencyCycle ───────────────────────────────────────────────────────────

type Self struct{}
type CycA struct{}
type CycB struct{}
type CycC struct{}
type CycRoot struct{}

func TestScope_Get_SelfCycle(t *testing.T) {
	scope := newScope(t, func(*Self) *Self { return &Self{} })

	_, err := container.Get[*Self](scope)
	require.ErrorIs(t, err, container.ErrDependencyCycle)

	var cycle *container.DependencyCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "Self---Self", cycle.Loop)
	assert.Contains(t, err.Error(), "dependency loop: Self---Self")
}

func TestScope_Get_MultiTypeCycle(t *testing.T) {
	scope := newScope(t,
		func(*CycA) *CycRoot { return &CycRoot{} },
		func(*CycB) *CycA { return &CycA{} },
		func(*CycC) *CycB { return &CycB{} },
		func(*CycA) *CycC { return &CycC{} },
	)

	_, err := container.Get[*CycRoot](scope)
	require.ErrorIs(t, err, container.ErrDependencyCycle)

	var cycle *container.DependencyCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "CycA---CycB---CycC---CycA", cycle.Loop)
	assert.NotContains(t, err.Error(), "CycRoot")
}

func TestScope_Get_CycleNeverCached(t *testing.T) {
	scope := newScope(t, func(*Self) *Self { return &Self{} })

	_, err := container.Get[*Self](scope)
	require.Error(t, err)
	_, err = container.Get[*Self](scope)
	assert.ErrorIs(t, err, container.ErrDependencyCycle)
	assert.False(t, scope.Resolved(reflect.TypeFor[*Self]()))
}

// ── Use ───────────────────────────────────────────────────────────────────────

func TestScope_Use_InjectsInstance(t *testing.T) {
	var realInit int
	scope := newScope(t,
		func() Greeter { realInit++; return &RealGreeter{} },
		NewGreeting,
	)
	fake := &FakeGreeter{}
	container.Use[Greeter](scope, fake)

	greeting := container.MustGet[*Greeting](scope)
	assert.Same(t, fake, greeting.Greeter)
	assert.Equal(t, 0, realInit)
}

func TestScope_Use_UnregisteredType(t *testing.T) {
	scope := newScope(t, NewC2)
	c4 := &C4{}
	container.Use(scope, c4)

	c2 := container.MustGet[*C2](scope)
	assert.Same(t, c4, c2.C4)
}

func TestScope_Use_IsFluent(t *testing.T) {
	scope := newScope(t, NewC1)
	c2, c3 := &C2{}, &C3{}

	container.Use(container.Use(scope, c2), c3)

	c1 := container.MustGet[*C1](scope)
	assert.Same(t, c2, c1.C2)
	assert.Same(t, c3, c1.C3)
}

func TestScope_Use_OverwritesCachedValue(t *testing.T) {
	scope := newScope(t, NewC4)
	first := container.MustGet[*C4](scope)

	replacement := &C4{}
	container.Use(scope, replacement)

	assert.NotSame(t, first, container.MustGet[*C4](scope))
	assert.Same(t, replacement, container.MustGet[*C4](scope))
}

func TestScope_Use_NilInterface(t *testing.T) {
	scope := newScope(t, NewGreeting)
	container.Use[Greeter](scope, nil)

	greeting := container.MustGet[*Greeting](scope)
	assert.Nil(t, greeting.Greeter)
}

func TestScope_Use_TypeMismatch(t *testing.T) {
	scope := newScope(t, NewC2)
	scope.Use(reflect.TypeFor[*C4](), "not a C4")

	_, err := container.Get[*C2](scope)
	require.ErrorIs(t, err, container.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "cannot use string as *container_test.C4")
}

func TestScope_Use_ReplacesMock(t *testing.T) {
	scope := newScope(t, func() *FakeGreeter { return &FakeGreeter{} }, NewGreeting)
	container.Mock[Greeter, *FakeGreeter](scope)
	greeter := &RealGreeter{}
	container.Use[Greeter](scope, greeter)

	assert.Same(t, greeter, container.MustGet[*Greeting](scope).Greeter)
}

// ── Mock ──────────────────────────────────────────────────────────────────────

func TestScope_Mock_ConstructsReplacement(t *testing.T) {
	var realInit int
	scope := newScope(t,
		func() Greeter { realInit++; return &RealGreeter{} },
		func(c4 *C4) *FakeGreeter { return &FakeGreeter{C4: c4} },
		NewC4,
		NewGreeting,
	)
	container.Mock[Greeter, *FakeGreeter](scope)

	greeting := container.MustGet[*Greeting](scope)
	fake, ok := greeting.Greeter.(*FakeGreeter)
	require.True(t, ok, "got %T", greeting.Greeter)
	assert.NotNil(t, fake.C4)
	assert.Equal(t, 0, realInit)
	assert.Equal(t, "fake", container.MustGet[Greeter](scope).Greet())
}

func TestScope_Mock_ReplacementConstructedOnce(t *testing.T) {
	var c4Init int
	scope := newScope(t,
		func(c4 *C4) *FakeGreeter { return &FakeGreeter{C4: c4} },
		func() *C4 { c4Init++; return &C4{} },
		NewGreeting,
	)
	container.Mock[Greeter, *FakeGreeter](scope)

	container.MustGet[*Greeting](scope)
	assert.Equal(t, 1, c4Init)
}

func TestScope_Mock_SharesInstanceWithReplacementType(t *testing.T) {
	type Direct struct{ Fake *FakeGreeter }
	scope := newScope(t,
		func() *FakeGreeter { return &FakeGreeter{} },
		func(f *FakeGreeter) *Direct { return &Direct{Fake: f} },
		NewGreeting,
	)
	container.Mock[Greeter, *FakeGreeter](scope)

	greeting := container.MustGet[*Greeting](scope)
	direct := container.MustGet[*Direct](scope)
	assert.Same(t, direct.Fake, greeting.Greeter)
}

func TestScope_Mock_AppliesAtDepth(t *testing.T) {
	type Top struct{ Greeting *Greeting }
	scope := newScope(t,
		func() Greeter { return &RealGreeter{} },
		func() *FakeGreeter { return &FakeGreeter{} },
		NewGreeting,
		func(g *Greeting) *Top { return &Top{Greeting: g} },
	)
	container.Mock[Greeter, *FakeGreeter](scope)

	top := container.MustGet[*Top](scope)
	assert.IsType(t, &FakeGreeter{}, top.Greeting.Greeter)
}

func TestScope_Mock_UnregisteredReplacement(t *testing.T) {
	scope := newScope(t, NewGreeting)
	container.Mock[Greeter, *FakeGreeter](scope)

	_, err := container.Get[*Greeting](scope)
	require.ErrorIs(t, err, container.ErrNotInjectable)
	assert.Contains(t, err.Error(), "FakeGreeter(Greeter) is not injectable, dependency chain: Greeting")
}

func TestScope_Mock_CycleThroughReplacement(t *testing.T) {
	scope := newScope(t, func(Greeter) *FakeGreeter { return &FakeGreeter{} })
	container.Mock[Greeter, *FakeGreeter](scope)

	_, err := container.Get[Greeter](scope)
	require.ErrorIs(t, err, container.ErrDependencyCycle)
	assert.Contains(t, err.Error(), "FakeGreeter(Greeter)---FakeGreeter(Greeter)")
}

func TestScope_Mock_IncompatibleReplacement(t *testing.T) {
	scope := newScope(t, NewC4, NewGreeting)
	scope.Mock(reflect.TypeFor[Greeter](), reflect.TypeFor[*C4]())

	_, err := container.Get[*Greeting](scope)
	assert.ErrorIs(t, err, container.ErrTypeMismatch)
}

func TestScope_Mock_ToSelfClearsMock(t *testing.T) {
	scope := newScope(t, func() *FakeGreeter { return &FakeGreeter{} }, func() Greeter { return &RealGreeter{} })
	container.Mock[Greeter, *FakeGreeter](scope)
	container.Mock[Greeter, Greeter](scope)

	assert.Equal(t, "hello", container.MustGet[Greeter](scope).Greet())
}

// ── Construction errors ───────────────────────────────────────────────────────

func TestScope_Get_ConstructorErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	var attempts, c4Init int
	scope := newScope(t,
		func() *C4 { c4Init++; return &C4{} },
		func(c4 *C4) (*C2, error) {
			attempts++
			if attempts == 1 {
				return nil, boom
			}
			return &C2{C4: c4}, nil
		},
	)

	_, err := container.Get[*C2](scope)
	require.ErrorIs(t, err, container.ErrConstruction)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to construct C2, dependency chain: C2: boom")
	assert.False(t, scope.Resolved(reflect.TypeFor[*C2]()))

	c2, err := container.Get[*C2](scope)
	require.NoError(t, err)
	assert.NotNil(t, c2)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, c4Init)
}

func TestScope_Get_DeclaredBuildWrongTypeNotCached(t *testing.T) {
	registry := container.NewRegistry()
	require.NoError(t, registry.Declare(reflect.TypeFor[*C2](), nil,
		func([]reflect.Value) (reflect.Value, error) { return reflect.ValueOf(&C3{}), nil }))
	scope := container.NewScope(container.WithRegistry(registry))

	for range 2 {
		_, err := container.Get[*C2](scope)
		require.ErrorIs(t, err, container.ErrTypeMismatch)
		assert.Contains(t, err.Error(), "cannot use *container_test.C3 as *container_test.C2, dependency chain: C2")
		assert.False(t, scope.Resolved(reflect.TypeFor[*C2]()))
	}
	assert.Empty(t, scope.Instances())
}

// ── Struct injection ──────────────────────────────────────────────────────────

type Checkout struct {
	Greeter Greeter `inject:""`
	C4      *C4     `inject:""`
	Note    string
}

func TestScope_ProvideStruct(t *testing.T) {
	registry := container.NewRegistry().MustProvide(NewC4, func() Greeter { return &RealGreeter{} })
	require.NoError(t, container.ProvideStruct[Checkout](registry))
	scope := container.NewScope(container.WithRegistry(registry))

	checkout := container.MustGet[*Checkout](scope)
	assert.Same(t, container.MustGet[*C4](scope), checkout.C4)
	assert.Equal(t, "hello", checkout.Greeter.Greet())
	assert.Empty(t, checkout.Note)
}

// ── Introspection ─────────────────────────────────────────────────────────────

func TestScope_Instances(t *testing.T) {
	scope := newScope(t, NewC1, NewC2, NewC3, NewC4)
	assert.Empty(t, scope.Instances())

	container.MustGet[*C2](scope)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[*C2](), reflect.TypeFor[*C4]()}, scope.Instances())
}

func TestScope_ResolvedFollowsMock(t *testing.T) {
	scope := newScope(t, func() *FakeGreeter { return &FakeGreeter{} })
	container.Mock[Greeter, *FakeGreeter](scope)
	assert.False(t, scope.Resolved(reflect.TypeFor[Greeter]()))

	container.MustGet[*FakeGreeter](scope)
	assert.True(t, scope.Resolved(reflect.TypeFor[Greeter]()))
}

func TestScope_DefaultRegistry(t *testing.T) {
	scope := container.NewScope()
	assert.Same(t, container.Default, scope.Registry())
}

// ── Concurrency ───────────────────────────────────────────────────────────────

func TestScope_Get_ConcurrentCallersConstructOnce(t *testing.T) {
	var c4Init atomic.Int32
	scope := newScope(t, func() *C4 { c4Init.Add(1); return &C4{} }, NewC2, NewC3, NewC1)

	var wg sync.WaitGroup
	results := make([]*C1, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = container.MustGet[*C1](scope)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), c4Init.Load())
	for _, c1 := range results {
		assert.Same(t, results[0], c1)
	}
}

// ── Logging ───────────────────────────────────────────────────────────────────

func TestScope_LogsConstruction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	registry := container.NewRegistry().MustProvide(NewC4, NewC2)
	scope := container.NewScope(container.WithRegistry(registry), container.WithLogger(logger))

	container.MustGet[*C2](scope)
	assert.Contains(t, buf.String(), "msg=Constructed type=C4 chain=C2---C4")
	assert.Contains(t, buf.String(), "msg=Constructed type=C2 chain=C2")
}
