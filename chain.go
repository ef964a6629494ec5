package numexpr

// Chain applies a sequence of operations to a value. Each step returns a new
// Chain, leaving its receiver unchanged. The first error stops the chain:
// later steps carry it along, and Resolve reports it.
type Chain struct {
	ctx      *Context
	ops      map[string]Func
	val      Value
	err      error
	resolved bool
}

// Chain starts a chain on v. The chain can use the functions registered in
// ctx when Chain is called; later changes to the registry do not affect it.
// A nil v gives a chain that has already failed with a *TypeError.
func (ctx *Context) Chain(v Value) *Chain {
	c := &Chain{ctx: ctx, ops: ctx.funcs.snapshot(), val: v}
	if v == nil {
		c.err = &TypeError{Func: "chain", Arg: 1, Got: typeName(v)}
	}
	return c
}

// Then applies the named operation with the chain's value as its first
// argument, followed by args.
func (c *Chain) Then(op string, args ...Value) *Chain {
	if c.err != nil {
		return c
	}
	if c.resolved {
		return c.fail(ErrChainResolved)
	}
	fn := c.ops[op]
	if fn == nil {
		return c.fail(&OperationError{Name: op})
	}
	v, err := c.ctx.invoke(op, fn, append([]Value{c.val}, args...))
	if err != nil {
		return c.fail(err)
	}
	return &Chain{ctx: c.ctx, ops: c.ops, val: v}
}

func (c *Chain) fail(err error) *Chain {
	return &Chain{ctx: c.ctx, ops: c.ops, val: c.val, err: err, resolved: c.resolved}
}

// Add adds x to the chain's value.
func (c *Chain) Add(x Value) *Chain { return c.Then("add", x) }

// Subtract subtracts x from the chain's value.
func (c *Chain) Subtract(x Value) *Chain { return c.Then("subtract", x) }

// Multiply multiplies the chain's value by x.
func (c *Chain) Multiply(x Value) *Chain { return c.Then("multiply", x) }

// Divide divides the chain's value by x.
func (c *Chain) Divide(x Value) *Chain { return c.Then("divide", x) }

// Pow raises the chain's value to the power x.
func (c *Chain) Pow(x Value) *Chain { return c.Then("pow", x) }

// Resolve returns the chain's final value and marks c resolved. Resolving c
// again, or taking further steps from it, fails with ErrChainResolved.
func (c *Chain) Resolve() (Value, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.resolved {
		return nil, ErrChainResolved
	}
	c.resolved = true
	return c.val, nil
}

// Value returns the chain's current value, or nil if it has failed.
func (c *Chain) Value() Value {
	if c.err != nil {
		return nil
	}
	return c.val
}

// Err returns the error that stopped the chain, if any.
func (c *Chain) Err() error {
	return c.err
}

func (c *Chain) String() string {
	if c.err != nil {
		return "error: " + c.err.Error()
	}
	return c.val.String()
}
