package numexpr

import (
	"io"
	"math/big"
	"strings"
)

// DefaultRecursionLimit is the default maximum depth of nested calls to
// user-defined functions.
const DefaultRecursionLimit = 512

// Context is a context for evaluating expressions. It holds the root scope,
// the function registry, and the numeric settings used for literals. It is
// not safe to use a Context concurrently.
type Context struct {
	scope  *Scope
	caller *Scope
	funcs  *Registry
	kind   Kind
	digits uint
	limit  int
	depth  int
	popts  []ParseOption
	nums   map[string]Number
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  Value
	}
	varsopt  map[string]Value
	precopt  uint
	kindopt  Kind
	limitopt int
	funcopt  struct {
		name string
		fn   Func
	}
	funcsopt  map[string]Func
	regopt    struct{ r *Registry }
	parseopts []ParseOption
)

func (varopt) ctxOption()    {}
func (varsopt) ctxOption()   {}
func (precopt) ctxOption()   {}
func (kindopt) ctxOption()   {}
func (limitopt) ctxOption()  {}
func (funcopt) ctxOption()   {}
func (funcsopt) ctxOption()  {}
func (regopt) ctxOption()    {}
func (parseopts) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val Value) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]Value) ContextOption {
	return varsopt(vars)
}

// Prec sets the number of significant decimal digits used for decimal
// literals and for converting other kinds to decimal. The default is
// DefaultDigits.
func Prec(digits uint) ContextOption {
	return precopt(digits)
}

// NumberKind sets the kind of number that numeric literals produce. The
// default is KindFloat.
func NumberKind(k Kind) ContextOption {
	return kindopt(k)
}

// RecursionLimit sets the maximum depth of nested calls to user-defined
// functions. The default is DefaultRecursionLimit.
func RecursionLimit(n int) ContextOption {
	return limitopt(n)
}

// ImportFunc adds a function to the context's registry, replacing any
// existing function of the same name. A nil fn removes the function.
func ImportFunc(name string, fn Func) ContextOption {
	return funcopt{name, fn}
}

// Import adds functions to the context's registry as if by ImportFunc.
func Import(fns map[string]Func) ContextOption {
	return funcsopt(fns)
}

// WithRegistry makes the context use r as its registry instead of a private
// copy of the defaults. Contexts sharing a registry see each other's imports.
func WithRegistry(r *Registry) ContextOption {
	return regopt{r}
}

// ParseOptions sets parse options used by EvalString and EvalAll.
func ParseOptions(opts ...ParseOption) ContextOption {
	return parseopts(opts)
}

// NewContext creates a new evaluation context with its own registry holding
// the default functions.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{kind: KindFloat, digits: DefaultDigits, limit: DefaultRecursionLimit}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it. Variables in
// the root scope are copied, and the registry is copied unless WithRegistry
// is given.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		scope:  NewScope(nil),
		kind:   ctx.kind,
		digits: ctx.digits,
		limit:  ctx.limit,
		popts:  append([]ParseOption(nil), ctx.popts...),
		nums:   make(map[string]Number),
	}
	// First, check for settings that affect how the rest are applied.
	var shared *Registry
	for _, opt := range opts {
		switch opt := opt.(type) {
		case precopt:
			n.digits = uint(opt)
			if n.digits == 0 {
				n.digits = DefaultDigits
			}
		case kindopt:
			n.kind = Kind(opt)
		case limitopt:
			n.limit = int(opt)
			if n.limit <= 0 {
				n.limit = DefaultRecursionLimit
			}
		case regopt:
			shared = opt.r
		}
	}
	switch {
	case shared != nil:
		n.funcs = shared
	case ctx.funcs != nil:
		n.funcs = ctx.funcs.Clone()
	default:
		n.funcs = NewRegistry()
	}
	// Cached literals are only valid for the same number settings.
	if n.kind == ctx.kind && n.digits == ctx.digits {
		for k, v := range ctx.nums {
			n.nums[k] = v
		}
	}
	if ctx.scope != nil {
		for k, v := range ctx.scope.All() {
			n.scope.Set(k, v)
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.scope.Set(opt.name, opt.val)
		case varsopt:
			for k, v := range opt {
				n.scope.Set(k, v)
			}
		case funcopt:
			n.funcs.Set(opt.name, opt.fn)
		case funcsopt:
			for k, v := range opt {
				n.funcs.Set(k, v)
			}
		case parseopts:
			n.popts = append(n.popts, opt...)
		case precopt, kindopt, limitopt, regopt:
			// Already done. Do nothing.
		default:
			panic("numexpr: unknown option type")
		}
	}
	return &n
}

// Eval evaluates an expression in the context's root scope.
func (ctx *Context) Eval(e *Expr) (Value, error) {
	return ctx.EvalIn(e, ctx.scope)
}

// EvalIn evaluates an expression in the given scope. Assignments bind in s.
// If s is nil, the context's root scope is used.
func (ctx *Context) EvalIn(e *Expr, s *Scope) (Value, error) {
	if s == nil {
		s = ctx.scope
	}
	depth := ctx.depth
	defer func() { ctx.depth = depth }()
	return e.n.eval(ctx, s)
}

// EvalString parses and evaluates src in the context's root scope.
func (ctx *Context) EvalString(src string) (Value, error) {
	e, err := Parse(strings.NewReader(src), ctx.popts...)
	if err != nil {
		return nil, err
	}
	return ctx.Eval(e)
}

// EvalAll evaluates each source in order in the context's root scope and
// returns the value of the last. With no sources, the result is
// ErrEmptyProgram.
func (ctx *Context) EvalAll(srcs ...string) (Value, error) {
	if len(srcs) == 0 {
		return nil, ErrEmptyProgram
	}
	var r Value
	for _, src := range srcs {
		v, err := ctx.EvalString(src)
		if err != nil {
			return nil, err
		}
		r = v
	}
	return r, nil
}

// Call calls a function value with arguments.
func (ctx *Context) Call(fn Value, args ...Value) (Value, error) {
	f, ok := fn.(Function)
	if !ok {
		return nil, &TypeError{Func: "call", Arg: 1, Got: typeName(fn)}
	}
	return ctx.invoke(f.Name, f.Fn, args)
}

// Set sets the value of a variable in the root scope. Returns ctx for
// chaining.
func (ctx *Context) Set(name string, value Value) *Context {
	ctx.scope.Set(name, value)
	return ctx
}

// Lookup returns the value of a variable in the root scope. If there is no
// such variable, then the result is nil.
func (ctx *Context) Lookup(name string) Value {
	v, _ := ctx.scope.Get(name)
	return v
}

// Scope returns the context's root scope.
func (ctx *Context) Scope() *Scope {
	return ctx.scope
}

// Registry returns the context's function registry.
func (ctx *Context) Registry() *Registry {
	return ctx.funcs
}

// Prec returns the number of significant decimal digits used for decimals
// created in the context.
func (ctx *Context) Prec() uint {
	return ctx.digits
}

// Kind returns the kind of number that literals produce in the context.
func (ctx *Context) Kind() Kind {
	return ctx.kind
}

// num gets a possibly cached number from its text.
func (ctx *Context) num(s string) (Number, error) {
	if r, ok := ctx.nums[s]; ok {
		return r, nil
	}
	r, err := parseNumber(s, ctx.kind, ctx.digits)
	if err != nil {
		return Number{}, err
	}
	ctx.nums[s] = r
	return r, nil
}

// intn creates an integer of the context's kind.
func (ctx *Context) intn(i int64) Number {
	switch ctx.kind {
	case KindDecimal:
		return Number{kind: KindDecimal, d: new(big.Float).SetPrec(decprec(ctx.digits)).SetInt64(i), digits: ctx.digits}
	case KindRational:
		return Number{kind: KindRational, r: new(big.Rat).SetInt64(i)}
	}
	return Float(float64(i))
}

// lookup resolves a symbol: first the scope chain, then the registry.
// Niladic functions like pi are called; others evaluate to function values.
func (ctx *Context) lookup(name string, s *Scope) (Value, error) {
	if v, ok := s.Get(name); ok {
		return v, nil
	}
	fn := ctx.funcs.Get(name)
	if fn == nil {
		return nil, &NameError{Name: name}
	}
	if fn.CanCall(0) && !fn.CanCall(1) {
		return fn.Call(ctx, nil)
	}
	return Function{Name: name, Fn: fn}, nil
}

// call evaluates a call node.
func (ctx *Context) call(n *node, s *Scope) (Value, error) {
	var fn Func
	if v, ok := s.Get(n.name); ok {
		f, ok := v.(Function)
		if !ok {
			return nil, &TypeError{Func: n.name, Got: typeName(v) + " (not a function)"}
		}
		fn = f.Fn
	} else if fn = ctx.funcs.Get(n.name); fn == nil {
		return nil, &NameError{Name: n.name}
	}
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	prev := ctx.caller
	ctx.caller = s
	defer func() { ctx.caller = prev }()
	return ctx.invoke(n.name, fn, args)
}

// CallerScope returns the scope of the call expression that invoked the
// function currently running, or the root scope outside of any call.
func (ctx *Context) CallerScope() *Scope {
	if ctx.caller == nil {
		return ctx.scope
	}
	return ctx.caller
}

// invoke checks arity and calls fn.
func (ctx *Context) invoke(name string, fn Func, args []Value) (Value, error) {
	if !fn.CanCall(len(args)) {
		want := -1
		if l, ok := fn.(*Lambda); ok {
			want = len(l.params)
		}
		return nil, &ArityError{Func: name, Got: len(args), Want: want}
	}
	return fn.Call(ctx, args)
}

type binaryFunc func(x, y Number) (Value, error)

// operators maps binary operator nodes to the functions implementing them.
// The registry exposes the same functions under the same names.
var operators = map[nodeKind]struct {
	name string
	f    binaryFunc
}{
	nodeAdd: {"add", numeric(Add)},
	nodeSub: {"subtract", numeric(Sub)},
	nodeMul: {"multiply", numeric(Mul)},
	nodeDiv: {"divide", numeric(Div)},
	nodeMod: {"mod", numeric(Mod)},
	nodePow: {"pow", numeric(Pow)},
	nodeEq:  {"equal", comparison(func(c int) bool { return c == 0 }, false)},
	nodeNe:  {"unequal", comparison(func(c int) bool { return c != 0 }, true)},
	nodeLt:  {"smaller", comparison(func(c int) bool { return c < 0 }, false)},
	nodeLe:  {"smallerEq", comparison(func(c int) bool { return c <= 0 }, false)},
	nodeGt:  {"larger", comparison(func(c int) bool { return c > 0 }, false)},
	nodeGe:  {"largerEq", comparison(func(c int) bool { return c >= 0 }, false)},
}

// comparison creates a binary function from a predicate on Compare results.
// nan is the result when either operand is NaN.
func comparison(pred func(c int) bool, nan bool) binaryFunc {
	return func(x, y Number) (Value, error) {
		if x.IsNaN() || y.IsNaN() {
			return Bool(nan), nil
		}
		c, err := Compare(x, y)
		if err != nil {
			return nil, err
		}
		return Bool(pred(c)), nil
	}
}

// binary applies a binary operator to evaluated operands. Strings compare
// lexically; everything else broadcasts over numbers.
func binary(kind nodeKind, l, r Value) (Value, error) {
	op := operators[kind]
	if ls, ok := l.(String); ok {
		if rs, ok := r.(String); ok && kind >= nodeEq {
			c := strings.Compare(string(ls), string(rs))
			return op.f(Float(float64(c)), Float(0))
		}
	}
	return broadcast(op.name, l, r, op.f)
}

// eval evaluates the node in the given scope.
func (n *node) eval(ctx *Context, s *Scope) (Value, error) {
	switch n.kind {
	case nodeNum:
		x, err := ctx.num(n.name)
		if err != nil {
			return nil, err
		}
		return x, nil
	case nodeStr:
		return String(n.name), nil
	case nodeName:
		return ctx.lookup(n.name, s)
	case nodeCall:
		return ctx.call(n, s)
	case nodeList:
		l, err := evalAll(ctx, s, n.args)
		if err != nil {
			return nil, err
		}
		if nested(l) {
			m, _ := asMatrix(l)
			return m, nil
		}
		return l, nil
	case nodeMatrix:
		rows := make([][]Value, len(n.args))
		for i, row := range n.args {
			l, err := evalAll(ctx, s, row.args)
			if err != nil {
				return nil, err
			}
			rows[i] = l
		}
		m, err := NewMatrix(rows)
		if err != nil {
			return nil, err
		}
		return m, nil
	case nodeRange:
		parts := make([]Number, len(n.args))
		for i, a := range n.args {
			v, err := a.eval(ctx, s)
			if err != nil {
				return nil, err
			}
			x, ok := v.(Number)
			if !ok {
				return nil, &TypeError{Func: "range", Arg: i + 1, Got: typeName(v)}
			}
			parts[i] = x
		}
		step := ctx.intn(1)
		if len(parts) == 3 {
			step = parts[1]
		}
		return makeRange(parts[0], step, parts[len(parts)-1], true)
	case nodeNeg:
		v, err := n.left.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		return elementwise("unaryMinus", v, func(x Number) (Value, error) {
			r, err := Neg(x)
			if err != nil {
				return nil, err
			}
			return r, nil
		})
	case nodeNop:
		v, err := n.left.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		return elementwise("unaryPlus", v, func(x Number) (Value, error) { return x, nil })
	case nodeFact:
		v, err := n.left.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		return elementwise("factorial", v, func(x Number) (Value, error) { return factorial(ctx, x) })
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow, nodeEq, nodeNe, nodeLt, nodeLe, nodeGt, nodeGe:
		l, err := n.left.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		r, err := n.right.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		return binary(n.kind, l, r)
	case nodeCond:
		c, err := n.args[0].eval(ctx, s)
		if err != nil {
			return nil, err
		}
		t, err := truthy("conditional", c)
		if err != nil {
			return nil, err
		}
		if t {
			return n.args[1].eval(ctx, s)
		}
		return n.args[2].eval(ctx, s)
	case nodeAssign:
		v, err := n.left.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		s.Set(n.name, v)
		return v, nil
	case nodeFunc:
		params := make([]string, len(n.args))
		for i, a := range n.args {
			params[i] = a.name
		}
		fn := Function{Name: n.name, Fn: &Lambda{name: n.name, params: params, body: n.left, scope: s}}
		s.Set(n.name, fn)
		return fn, nil
	case nodeBlock:
		var r Value
		for _, stmt := range n.args {
			v, err := stmt.eval(ctx, s)
			if err != nil {
				return nil, err
			}
			r = v
		}
		return r, nil
	default:
		panic("numexpr: invalid AST node " + n.kind.String())
	}
}

func evalAll(ctx *Context, s *Scope, nodes []*node) (List, error) {
	l := make(List, len(nodes))
	for i, a := range nodes {
		v, err := a.eval(ctx, s)
		if err != nil {
			return nil, err
		}
		l[i] = v
	}
	return l, nil
}

// Lambda is a user-defined function. It closes over the scope in which it was
// defined.
type Lambda struct {
	name   string
	params []string
	body   *node
	scope  *Scope
}

// Call evaluates the function body in a new child of the defining scope with
// the parameters bound to args.
func (f *Lambda) Call(ctx *Context, args []Value) (Value, error) {
	if ctx.depth >= ctx.limit {
		return nil, &RecursionError{Func: f.name, Limit: ctx.limit}
	}
	ctx.depth++
	defer func() { ctx.depth-- }()
	local := f.scope.Child()
	for i, p := range f.params {
		local.Set(p, args[i])
	}
	return f.body.eval(ctx, local)
}

// CanCall returns whether n is the number of parameters.
func (f *Lambda) CanCall(n int) bool {
	return n == len(f.params)
}

// Params returns the names of the function's parameters.
func (f *Lambda) Params() []string {
	return append([]string(nil), f.params...)
}

func (f *Lambda) String() string {
	return f.name + "(" + strings.Join(f.params, ", ") + ")"
}

// Eval is a shortcut to parse an expression and return its result using the
// default functions.
func Eval(src io.RuneScanner, opts ...ContextOption) (Value, error) {
	ctx := NewContext(opts...)
	a, err := Parse(src, ctx.popts...)
	if err != nil {
		return nil, err
	}
	return ctx.Eval(a)
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (Value, error) {
	return Eval(strings.NewReader(src), opts...)
}
