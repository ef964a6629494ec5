package numexpr

import (
	"sort"
)

// statNumbers collects the numbers for a statistics function. A single
// container argument supplies its elements; otherwise each argument must be a
// number.
func statNumbers(name string, args []Value) ([]Number, error) {
	if len(args) == 1 {
		switch args[0].(type) {
		case List, *Matrix:
			return flatten(name, nil, args[0])
		}
	}
	r := make([]Number, len(args))
	for i, a := range args {
		x, ok := a.(Number)
		if !ok {
			return nil, &TypeError{Func: name, Arg: i + 1, Got: typeName(a)}
		}
		r[i] = x
	}
	return r, nil
}

func sumOf(ctx *Context, xs []Number) (Number, error) {
	if len(xs) == 0 {
		return ctx.intn(0), nil
	}
	r := xs[0]
	for _, x := range xs[1:] {
		var err error
		r, err = Add(r, x)
		if err != nil {
			return Number{}, err
		}
	}
	return r, nil
}

func meanOf(name string, xs []Number) (Number, error) {
	if len(xs) == 0 {
		return Number{}, &DomainError{X: List{}, Arg: 1, Func: name}
	}
	r := xs[0]
	for _, x := range xs[1:] {
		var err error
		r, err = Add(r, x)
		if err != nil {
			return Number{}, err
		}
	}
	return Div(r, likeInt(r, int64(len(xs))))
}

func fnSum(ctx *Context, args []Value) (Value, error) {
	xs, err := statNumbers("sum", args)
	if err != nil {
		return nil, err
	}
	return val(sumOf(ctx, xs))
}

func fnProd(ctx *Context, args []Value) (Value, error) {
	xs, err := statNumbers("prod", args)
	if err != nil {
		return nil, err
	}
	r := ctx.intn(1)
	for i, x := range xs {
		if i == 0 {
			r = x
			continue
		}
		r, err = Mul(r, x)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func fnMean(_ *Context, args []Value) (Value, error) {
	xs, err := statNumbers("mean", args)
	if err != nil {
		return nil, err
	}
	return val(meanOf("mean", xs))
}

func fnMedian(_ *Context, args []Value) (Value, error) {
	xs, err := statNumbers("median", args)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, &DomainError{X: List{}, Arg: 1, Func: "median"}
	}
	xs = append([]Number(nil), xs...)
	var cerr error
	sort.SliceStable(xs, func(i, j int) bool {
		c, err := Compare(xs[i], xs[j])
		if err != nil && cerr == nil {
			cerr = err
		}
		return c < 0
	})
	if cerr != nil {
		return nil, cerr
	}
	k := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[k], nil
	}
	return val(meanOf("median", xs[k-1:k+1]))
}

// extremum creates min (want -1) or max (want 1).
func extremum(name string, want int) func(*Context, []Value) (Value, error) {
	return func(_ *Context, args []Value) (Value, error) {
		xs, err := statNumbers(name, args)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, &DomainError{X: List{}, Arg: 1, Func: name}
		}
		r := xs[0]
		for _, x := range xs[1:] {
			c, err := Compare(x, r)
			if err != nil {
				return nil, err
			}
			if c == want {
				r = x
			}
		}
		return r, nil
	}
}

// Normalization modes for variance and std. Unbiased divides by n-1,
// uncorrected by n, and biased by n+1.
const (
	modeUnbiased    = "unbiased"
	modeUncorrected = "uncorrected"
	modeBiased      = "biased"
)

// varianceArgs interprets the arguments of variance and std:
// (a, b, c, ...), (container), (container, mode), (container, dim), or
// (container, dim, mode).
func varianceArgs(name string, args []Value) (data Value, dim int64, mode string, err error) {
	dim, mode = -1, modeUnbiased
	switch args[0].(type) {
	case List, *Matrix:
	default:
		xs, err := statNumbers(name, args)
		if err != nil {
			return nil, 0, "", err
		}
		l := make(List, len(xs))
		for i, x := range xs {
			l[i] = x
		}
		return l, dim, mode, nil
	}
	data, rest := args[0], args[1:]
	if len(rest) > 2 {
		return nil, 0, "", &ArityError{Func: name, Got: len(args), Want: -1}
	}
	for i, a := range rest {
		switch a := a.(type) {
		case Number:
			if i != 0 {
				return nil, 0, "", &TypeError{Func: name, Arg: i + 2, Got: typeName(a)}
			}
			dim, err = integer(name, i+2, a)
			if err != nil {
				return nil, 0, "", err
			}
			if dim < 0 || dim > 1 {
				return nil, 0, "", &DomainError{X: a, Arg: i + 2, Func: name}
			}
		case String:
			if i != len(rest)-1 {
				return nil, 0, "", &TypeError{Func: name, Arg: i + 2, Got: typeName(a)}
			}
			switch m := string(a); m {
			case modeUnbiased, modeUncorrected, modeBiased:
				mode = m
			default:
				return nil, 0, "", &DomainError{X: a, Arg: i + 2, Func: name}
			}
		default:
			return nil, 0, "", &TypeError{Func: name, Arg: i + 2, Got: typeName(a)}
		}
	}
	return data, dim, mode, nil
}

func varianceOf(name string, xs []Number, mode string) (Number, error) {
	mean, err := meanOf(name, xs)
	if err != nil {
		return Number{}, err
	}
	ss := likeInt(mean, 0)
	for _, x := range xs {
		d, err := Sub(x, mean)
		if err != nil {
			return Number{}, err
		}
		d, err = Mul(d, d)
		if err != nil {
			return Number{}, err
		}
		ss, err = Add(ss, d)
		if err != nil {
			return Number{}, err
		}
	}
	n := int64(len(xs))
	switch mode {
	case modeUnbiased:
		n--
	case modeBiased:
		n++
	}
	if n == 0 {
		// A single value has no spread.
		return ss, nil
	}
	return Div(ss, likeInt(ss, n))
}

// variance computes the variance of data, either overall or along a
// dimension: dim 0 gives one result per column and dim 1 one per row.
func variance(name string, args []Value) (Value, error) {
	data, dim, mode, err := varianceArgs(name, args)
	if err != nil {
		return nil, err
	}
	one := func(v Value) (Value, error) {
		xs, err := flatten(name, nil, v)
		if err != nil {
			return nil, err
		}
		return val(varianceOf(name, xs, mode))
	}
	if dim < 0 {
		return one(data)
	}
	var m *Matrix
	switch d := data.(type) {
	case *Matrix:
		m = d
	case List:
		if !nested(d) {
			if dim != 0 {
				return nil, &DomainError{X: Float(float64(dim)), Arg: 2, Func: name}
			}
			return one(d)
		}
		m, _ = asMatrix(d)
	}
	var lines []List
	if dim == 0 {
		for j := 0; j < m.cols; j++ {
			lines = append(lines, m.Col(j))
		}
	} else {
		for i := 0; i < m.rows; i++ {
			lines = append(lines, m.Row(i))
		}
	}
	r := make(List, len(lines))
	for i, l := range lines {
		v, err := one(l)
		if err != nil {
			return nil, err
		}
		r[i] = v
	}
	return r, nil
}

func fnVariance(_ *Context, args []Value) (Value, error) {
	return variance("variance", args)
}

func fnStd(ctx *Context, args []Value) (Value, error) {
	v, err := variance("std", args)
	if err != nil {
		return nil, err
	}
	return elementwise("std", v, func(x Number) (Value, error) { return val(sqrtNum(ctx, x)) })
}
