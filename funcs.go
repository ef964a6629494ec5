package numexpr

import (
	"errors"
	"math/big"
	"sort"
)

// Func is a function callable from expressions.
type Func interface {
	// Call evaluates the function. args has a length for which CanCall
	// returned true. Call must not modify the elements of args.
	Call(ctx *Context, args []Value) (Value, error)

	// CanCall returns whether the function can be called with n arguments.
	// Calls with other counts fail with an *ArityError before reaching Call.
	// A function that can be called with zero arguments but not one is a
	// constant: naming it without parentheses calls it.
	CanCall(n int) bool
}

// Registry maps names to functions. Each Context owns its own Registry unless
// one is shared explicitly with WithRegistry. A Registry must not be used
// concurrently.
type Registry struct {
	fns map[string]Func
}

// NewRegistry creates a registry holding the default functions.
func NewRegistry() *Registry {
	r := Registry{fns: make(map[string]Func, len(globalfuncs))}
	for k, v := range globalfuncs {
		r.fns[k] = v
	}
	return &r
}

// EmptyRegistry creates a registry with no functions.
func EmptyRegistry() *Registry {
	return &Registry{fns: make(map[string]Func)}
}

// Get returns the function registered under name, or nil.
func (r *Registry) Get(name string) Func {
	return r.fns[name]
}

// Set registers fn under name, replacing any existing function. If fn is
// nil, the name is removed. Returns r for chaining.
func (r *Registry) Set(name string, fn Func) *Registry {
	if fn == nil {
		delete(r.fns, name)
		return r
	}
	r.fns[name] = fn
	return r
}

// Names returns the sorted names of all registered functions.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for k := range r.fns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	n := Registry{fns: make(map[string]Func, len(r.fns))}
	for k, v := range r.fns {
		n.fns[k] = v
	}
	return &n
}

// snapshot returns a copy of the function table.
func (r *Registry) snapshot() map[string]Func {
	return r.Clone().fns
}

type niladic struct {
	f func(ctx *Context) (Value, error)
}

func (n niladic) Call(ctx *Context, args []Value) (Value, error) {
	return n.f(ctx)
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func.
func Niladic(f func(ctx *Context) (Value, error)) Func {
	return niladic{f}
}

type monadic struct {
	name string
	f    func(ctx *Context, x Number) (Value, error)
}

func (m monadic) Call(ctx *Context, args []Value) (r Value, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		err, _ = p.(error)
		if err == nil || !errors.As(err, &big.ErrNaN{}) {
			panic(p)
		}
		r, err = nil, &DomainError{X: args[0], Arg: 1, Func: m.name}
	}()
	return elementwise(m.name, args[0], func(x Number) (Value, error) { return m.f(ctx, x) })
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one number into a Func which applies it to
// each element of lists and matrices. If f panics with big.ErrNaN, the call
// fails with a *DomainError.
func Monadic(name string, f func(ctx *Context, x Number) (Value, error)) Func {
	return monadic{name, f}
}

type dyadic struct {
	name string
	f    func(ctx *Context, x, y Number) (Value, error)
}

func (d dyadic) Call(ctx *Context, args []Value) (Value, error) {
	return broadcast(d.name, args[0], args[1], func(x, y Number) (Value, error) { return d.f(ctx, x, y) })
}

func (d dyadic) CanCall(n int) bool {
	return n == 2
}

// Dyadic wraps a function of two numbers into a Func which broadcasts over
// lists and matrices.
func Dyadic(name string, f func(ctx *Context, x, y Number) (Value, error)) Func {
	return dyadic{name, f}
}

type variadic struct {
	min, max int
	f        func(ctx *Context, args []Value) (Value, error)
}

func (v variadic) Call(ctx *Context, args []Value) (Value, error) {
	return v.f(ctx, args)
}

func (v variadic) CanCall(n int) bool {
	return n >= v.min && (v.max < 0 || n <= v.max)
}

// Variadic wraps a function of any values into a Func accepting between min
// and max arguments. A negative max means no upper bound.
func Variadic(min, max int, f func(ctx *Context, args []Value) (Value, error)) Func {
	return variadic{min, max, f}
}
