package numexpr

// fnMap calls a function on each element of a list or matrix. The function
// receives the element, or the element and its index if it cannot be called
// with one argument.
func fnMap(ctx *Context, args []Value) (Value, error) {
	fn, ok := args[1].(Function)
	if !ok {
		return nil, &TypeError{Func: "map", Arg: 2, Got: typeName(args[1])}
	}
	var call func(v Value, i int) (Value, error)
	switch {
	case fn.Fn.CanCall(1):
		call = func(v Value, _ int) (Value, error) { return ctx.invoke(fn.Name, fn.Fn, []Value{v}) }
	case fn.Fn.CanCall(2):
		call = func(v Value, i int) (Value, error) { return ctx.invoke(fn.Name, fn.Fn, []Value{v, ctx.intn(int64(i))}) }
	default:
		return nil, &ArityError{Func: fn.Name, Got: 1, Want: -1}
	}
	switch c := args[0].(type) {
	case List:
		r := make(List, len(c))
		for i, v := range c {
			x, err := call(v, i)
			if err != nil {
				return nil, err
			}
			r[i] = x
		}
		return r, nil
	case *Matrix:
		r := Matrix{rows: c.rows, cols: c.cols, data: make([]Value, len(c.data))}
		for i, v := range c.data {
			x, err := call(v, i)
			if err != nil {
				return nil, err
			}
			r.data[i] = x
		}
		return &r, nil
	}
	return nil, &TypeError{Func: "map", Arg: 1, Got: typeName(args[0])}
}

// fnFilter keeps the elements of a list for which a predicate function
// returns true or which match a pattern. Matrices are filtered row by row
// into a list.
func fnFilter(ctx *Context, args []Value) (Value, error) {
	var l []Value
	switch c := args[0].(type) {
	case List:
		l = c
	case *Matrix:
		l = c.data
	default:
		return nil, &TypeError{Func: "filter", Arg: 1, Got: typeName(args[0])}
	}
	var keep func(v Value) (bool, error)
	switch p := args[1].(type) {
	case Pattern:
		keep = func(v Value) (bool, error) { return p.Match(v), nil }
	case Function:
		keep = func(v Value) (bool, error) {
			r, err := ctx.invoke(p.Name, p.Fn, []Value{v})
			if err != nil {
				return false, err
			}
			return truthy(p.Name, r)
		}
	default:
		return nil, &TypeError{Func: "filter", Arg: 2, Got: typeName(args[1])}
	}
	r := List{}
	for _, v := range l {
		ok, err := keep(v)
		if err != nil {
			return nil, err
		}
		if ok {
			r = append(r, v)
		}
	}
	return r, nil
}
