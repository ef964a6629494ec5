package numexpr

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zephyrtronium/bigfloat"
)

// globalfuncs is the default function set copied into each new Registry.
var globalfuncs map[string]Func

func init() {
	globalfuncs = map[string]Func{
		// operators
		"add":       operatorFunc(nodeAdd),
		"subtract":  operatorFunc(nodeSub),
		"multiply":  operatorFunc(nodeMul),
		"divide":    operatorFunc(nodeDiv),
		"mod":       operatorFunc(nodeMod),
		"pow":       operatorFunc(nodePow),
		"equal":     operatorFunc(nodeEq),
		"unequal":   operatorFunc(nodeNe),
		"smaller":   operatorFunc(nodeLt),
		"smallerEq": operatorFunc(nodeLe),
		"larger":    operatorFunc(nodeGt),
		"largerEq":  operatorFunc(nodeGe),
		"unaryMinus": Monadic("unaryMinus", func(_ *Context, x Number) (Value, error) {
			return val(Neg(x))
		}),
		"factorial": Monadic("factorial", factorial),

		// arithmetic
		"abs": Monadic("abs", func(_ *Context, x Number) (Value, error) {
			return val(Abs(x))
		}),
		"sign": Monadic("sign", func(_ *Context, x Number) (Value, error) {
			if x.IsNaN() {
				return x, nil
			}
			return likeInt(x, int64(x.Sign())), nil
		}),
		"sqrt": Monadic("sqrt", func(ctx *Context, x Number) (Value, error) {
			return val(sqrtNum(ctx, x))
		}),
		"square": Monadic("square", func(_ *Context, x Number) (Value, error) {
			return val(Mul(x, x))
		}),
		"cube": Monadic("cube", func(_ *Context, x Number) (Value, error) {
			r, err := Mul(x, x)
			if err != nil {
				return nil, err
			}
			return val(Mul(r, x))
		}),
		"exp": Monadic("exp", func(ctx *Context, x Number) (Value, error) {
			return val(expNum(ctx, x))
		}),
		"ln": Monadic("ln", func(ctx *Context, x Number) (Value, error) {
			return val(lnNum(ctx, x))
		}),
		"log": Variadic(1, 2, fnLog),
		"log10": Monadic("log10", func(ctx *Context, x Number) (Value, error) {
			return val(logBase(ctx, x, likeInt(x, 10)))
		}),
		"log2": Monadic("log2", func(ctx *Context, x Number) (Value, error) {
			return val(logBase(ctx, x, likeInt(x, 2)))
		}),
		"floor": Variadic(1, 2, rounder("floor", floorRat)),
		"ceil":  Variadic(1, 2, rounder("ceil", ceilRat)),
		"round": Variadic(1, 2, rounder("round", roundRat)),

		// construction and conversion
		"number":    Variadic(1, 1, fnNumber),
		"bignumber": Variadic(1, 1, fnBignumber),
		"fraction":  Variadic(1, 2, fnFraction),
		"typeOf": Variadic(1, 1, func(_ *Context, args []Value) (Value, error) {
			return String(args[0].Type()), nil
		}),
		"format": Variadic(1, 2, fnFormat),

		// predicates
		"isPositive": predicate("isPositive", func(x Number) bool { return x.Sign() > 0 }),
		"isNegative": predicate("isNegative", func(x Number) bool { return x.Sign() < 0 }),
		"isZero":     predicate("isZero", func(x Number) bool { return x.Sign() == 0 && !x.IsNaN() }),
		"isInteger":  predicate("isInteger", Number.IsInt),
		"isNaN":      predicate("isNaN", Number.IsNaN),
		"hasNumericValue": Variadic(1, 1, func(_ *Context, args []Value) (Value, error) {
			return hasNumericValue(args[0]), nil
		}),

		// containers
		"size":      Variadic(1, 1, fnSize),
		"transpose": Variadic(1, 1, fnTranspose),
		"concat":    Variadic(1, -1, fnConcat),
		"ones":      Variadic(1, 2, filled("ones", 1)),
		"zeros":     Variadic(1, 2, filled("zeros", 0)),
		"range":     Variadic(1, 3, fnRange),

		// statistics
		"sum":      Variadic(1, -1, fnSum),
		"prod":     Variadic(1, -1, fnProd),
		"mean":     Variadic(1, -1, fnMean),
		"median":   Variadic(1, -1, fnMedian),
		"min":      Variadic(1, -1, extremum("min", -1)),
		"max":      Variadic(1, -1, extremum("max", 1)),
		"variance": Variadic(1, -1, fnVariance),
		"std":      Variadic(1, -1, fnStd),

		// higher-order and meta
		"map":      Variadic(2, 2, fnMap),
		"filter":   Variadic(2, 2, fnFilter),
		"regex":    Variadic(1, 1, fnRegex),
		"evaluate": Variadic(1, 1, fnEvaluate),

		// constants
		"pi":    Niladic(constant(math.Pi, bigfloat.Pi)),
		"e":     Niladic(constant(math.E, bigE)),
		"tau":   Niladic(constant(2*math.Pi, bigTau)),
		"phi":   Niladic(constant(math.Phi, bigPhi)),
		"NaN":   Niladic(func(*Context) (Value, error) { return Float(math.NaN()), nil }),
		"true":  Niladic(func(*Context) (Value, error) { return Bool(true), nil }),
		"false": Niladic(func(*Context) (Value, error) { return Bool(false), nil }),
	}
}

// val adapts a numeric result to a Value.
func val(x Number, err error) (Value, error) {
	if err != nil {
		return nil, err
	}
	return x, nil
}

// likeInt creates the integer i with the same kind and digits as x.
func likeInt(x Number, i int64) Number {
	switch x.kind {
	case KindDecimal:
		return Number{kind: KindDecimal, d: new(big.Float).SetPrec(decprec(x.digits)).SetInt64(i), digits: x.digits}
	case KindRational:
		return Number{kind: KindRational, r: new(big.Rat).SetInt64(i)}
	}
	return Float(float64(i))
}

// operatorFunc exposes the implementation of a binary operator.
func operatorFunc(kind nodeKind) Func {
	return Variadic(2, 2, func(_ *Context, args []Value) (Value, error) {
		return binary(kind, args[0], args[1])
	})
}

func predicate(name string, f func(Number) bool) Func {
	return Monadic(name, func(_ *Context, x Number) (Value, error) {
		return Bool(f(x)), nil
	})
}

// integer gets an int argument.
func integer(name string, arg int, v Value) (int64, error) {
	x, ok := v.(Number)
	if !ok {
		return 0, &TypeError{Func: name, Arg: arg, Got: typeName(v)}
	}
	i, ok := x.int64()
	if !ok {
		return 0, &DomainError{X: x, Arg: arg, Func: name}
	}
	return i, nil
}

// maxFactorial bounds the arguments for which factorials are computed
// exactly.
const maxFactorial = 1 << 14

func factorial(_ *Context, x Number) (Value, error) {
	if x.kind == KindFloat && !x.IsInt() {
		if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
			return x, nil
		}
		return Float(math.Gamma(x.f + 1)), nil
	}
	n, ok := x.int64()
	if !ok || n < 0 {
		return nil, &DomainError{X: x, Arg: 1, Func: "factorial"}
	}
	if x.kind == KindFloat && n > 170 {
		return Float(math.Inf(1)), nil
	}
	if n > maxFactorial {
		return nil, &DomainError{X: x, Arg: 1, Func: "factorial"}
	}
	f := new(big.Int).MulRange(1, n)
	switch x.kind {
	case KindDecimal:
		return Number{kind: KindDecimal, d: new(big.Float).SetPrec(decprec(x.digits)).SetInt(f), digits: x.digits}, nil
	case KindRational:
		return Number{kind: KindRational, r: new(big.Rat).SetInt(f)}, nil
	}
	r, _ := new(big.Float).SetInt(f).Float64()
	return Float(r), nil
}

// decimalOf converts x to a decimal for functions that have no exact result,
// using the context's digits for rationals.
func decimalOf(ctx *Context, x Number) (Number, error) {
	if x.kind == KindDecimal {
		return x, nil
	}
	return x.ToDecimal(ctx.digits)
}

func sqrtNum(ctx *Context, x Number) (Number, error) {
	switch x.kind {
	case KindFloat:
		return Float(math.Sqrt(x.f)), nil
	case KindRational:
		if x.r.Sign() < 0 {
			return Number{}, &DomainError{X: x, Arg: 1, Func: "sqrt"}
		}
		n, d := new(big.Int).Sqrt(x.r.Num()), new(big.Int).Sqrt(x.r.Denom())
		if new(big.Int).Mul(n, n).Cmp(x.r.Num()) == 0 && new(big.Int).Mul(d, d).Cmp(x.r.Denom()) == 0 {
			return Number{kind: KindRational, r: new(big.Rat).SetFrac(n, d)}, nil
		}
		x, _ = x.ToDecimal(ctx.digits)
		fallthrough
	case KindDecimal:
		if x.d.Sign() < 0 {
			return Number{}, &DomainError{X: x, Arg: 1, Func: "sqrt"}
		}
		if x.d.IsInf() {
			return x, nil
		}
		z := new(big.Float).SetPrec(decprec(x.digits)).Sqrt(x.d)
		return Number{kind: KindDecimal, d: z, digits: x.digits}, nil
	}
	return Number{}, &TypeError{Func: "sqrt", Got: x.Type()}
}

func expNum(ctx *Context, x Number) (Number, error) {
	if x.kind == KindFloat {
		return Float(math.Exp(x.f)), nil
	}
	x, err := decimalOf(ctx, x)
	if err != nil {
		return Number{}, err
	}
	if x.d.IsInf() {
		if x.d.Signbit() {
			return likeInt(x, 0), nil
		}
		return x, nil
	}
	z := new(big.Float).SetPrec(decprec(x.digits))
	if f, _ := x.d.Float64(); math.Abs(f) > maxPowBits*math.Ln2 {
		if f > 0 {
			z.SetInf(false)
		}
		return Number{kind: KindDecimal, d: z, digits: x.digits}, nil
	}
	z = bigfloat.Exp(z, x.d)
	return Number{kind: KindDecimal, d: z, digits: x.digits}, nil
}

func lnNum(ctx *Context, x Number) (Number, error) {
	if x.kind == KindFloat {
		return Float(math.Log(x.f)), nil
	}
	x, err := decimalOf(ctx, x)
	if err != nil {
		return Number{}, err
	}
	prec := decprec(x.digits)
	switch {
	case x.d.Sign() < 0:
		return Number{}, &DomainError{X: x, Arg: 1, Func: "ln"}
	case x.d.Sign() == 0:
		return Number{kind: KindDecimal, d: new(big.Float).SetPrec(prec).SetInf(true), digits: x.digits}, nil
	case x.d.IsInf():
		return x, nil
	}
	z := new(big.Float).SetPrec(prec)
	z = bigfloat.Log(z, x.d)
	return Number{kind: KindDecimal, d: z, digits: x.digits}, nil
}

func logBase(ctx *Context, x, b Number) (Number, error) {
	if x.kind == KindFloat && b.kind == KindFloat {
		switch b.f {
		case 2:
			return Float(math.Log2(x.f)), nil
		case 10:
			return Float(math.Log10(x.f)), nil
		}
		return Float(math.Log(x.f) / math.Log(b.f)), nil
	}
	lx, err := lnNum(ctx, x)
	if err != nil {
		return Number{}, err
	}
	lb, err := lnNum(ctx, b)
	if err != nil {
		return Number{}, err
	}
	return Div(lx, lb)
}

func fnLog(ctx *Context, args []Value) (Value, error) {
	if len(args) == 1 {
		return elementwise("log", args[0], func(x Number) (Value, error) { return val(lnNum(ctx, x)) })
	}
	return broadcast("log", args[0], args[1], func(x, b Number) (Value, error) { return val(logBase(ctx, x, b)) })
}

// rounder creates a rounding function with an optional number of decimal
// places.
func rounder(name string, mode func(*big.Rat) *big.Int) func(*Context, []Value) (Value, error) {
	return func(_ *Context, args []Value) (Value, error) {
		var places int64
		if len(args) == 2 {
			var err error
			places, err = integer(name, 2, args[1])
			if err != nil {
				return nil, err
			}
			if places < -maxRatExp || places > maxRatExp {
				return nil, &DomainError{X: args[1], Arg: 2, Func: name}
			}
		}
		return elementwise(name, args[0], func(x Number) (Value, error) {
			return val(roundNum(x, places, mode))
		})
	}
}

func roundNum(x Number, places int64, mode func(*big.Rat) *big.Int) (Number, error) {
	switch x.kind {
	case KindFloat:
		if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
			return x, nil
		}
		if places == 0 {
			i := mode(new(big.Rat).SetFloat64(x.f))
			f, _ := new(big.Float).SetInt(i).Float64()
			return Float(f), nil
		}
		// Round the shortest decimal form so that 1.005 acts like 1.005.
		q, err := x.toRational()
		if err != nil {
			return Number{}, err
		}
		f, _ := roundScaled(q.r, places, mode).Float64()
		return Float(f), nil
	case KindDecimal:
		if x.d.IsInf() {
			return x, nil
		}
		q, err := x.toRational()
		if err != nil {
			return Number{}, err
		}
		z := new(big.Float).SetPrec(decprec(x.digits)).SetRat(roundScaled(q.r, places, mode))
		return Number{kind: KindDecimal, d: z, digits: x.digits}, nil
	case KindRational:
		return Number{kind: KindRational, r: roundScaled(x.r, places, mode)}, nil
	}
	return Number{}, &TypeError{Func: "round", Got: x.Type()}
}

// roundScaled rounds r to the given number of decimal places.
func roundScaled(r *big.Rat, places int64, mode func(*big.Rat) *big.Int) *big.Rat {
	p := places
	if p < 0 {
		p = -p
	}
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(p), nil))
	y := new(big.Rat)
	if places >= 0 {
		y.Mul(r, scale)
	} else {
		y.Quo(r, scale)
	}
	y.SetInt(mode(y))
	if places >= 0 {
		return y.Quo(y, scale)
	}
	return y.Mul(y, scale)
}

func ceilRat(x *big.Rat) *big.Int {
	i := floorRat(new(big.Rat).Neg(x))
	return i.Neg(i)
}

// roundRat rounds half away from zero.
func roundRat(x *big.Rat) *big.Int {
	half := big.NewRat(1, 2)
	if x.Sign() >= 0 {
		return floorRat(new(big.Rat).Add(x, half))
	}
	i := floorRat(new(big.Rat).Add(new(big.Rat).Neg(x), half))
	return i.Neg(i)
}

func fnNumber(_ *Context, args []Value) (Value, error) {
	switch x := args[0].(type) {
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, &NumberError{Text: string(x), Kind: KindFloat}
		}
		return Float(f), nil
	case Bool:
		return Float(ToFloat64(x)), nil
	}
	return elementwise("number", args[0], func(x Number) (Value, error) { return val(Convert(x, KindFloat)) })
}

func fnBignumber(ctx *Context, args []Value) (Value, error) {
	if s, ok := args[0].(String); ok {
		return val(ParseDecimal(strings.TrimSpace(string(s)), ctx.digits))
	}
	return elementwise("bignumber", args[0], func(x Number) (Value, error) { return val(x.ToDecimal(ctx.digits)) })
}

func fnFraction(_ *Context, args []Value) (Value, error) {
	if len(args) == 2 {
		return broadcast("fraction", args[0], args[1], func(n, d Number) (Value, error) {
			n, err := Convert(n, KindRational)
			if err != nil {
				return nil, err
			}
			d, err = Convert(d, KindRational)
			if err != nil {
				return nil, err
			}
			return val(Div(n, d))
		})
	}
	if s, ok := args[0].(String); ok {
		return val(ParseFraction(string(s)))
	}
	return elementwise("fraction", args[0], func(x Number) (Value, error) { return val(Convert(x, KindRational)) })
}

func fnFormat(_ *Context, args []Value) (Value, error) {
	if len(args) == 1 {
		return String(args[0].String()), nil
	}
	digits, err := integer("format", 2, args[1])
	if err != nil {
		return nil, err
	}
	if digits < 1 || digits > 1000 {
		return nil, &DomainError{X: args[1], Arg: 2, Func: "format"}
	}
	x, ok := args[0].(Number)
	if !ok {
		return String(args[0].String()), nil
	}
	switch x.kind {
	case KindFloat:
		if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
			return String(x.String()), nil
		}
		return String(strconv.FormatFloat(x.f, 'g', int(digits), 64)), nil
	case KindDecimal:
		return String(formatDecimal(x.d, uint(digits))), nil
	}
	return String(x.String()), nil
}

func hasNumericValue(v Value) Value {
	switch v := v.(type) {
	case Number, Bool:
		return Bool(true)
	case String:
		s := strings.TrimSpace(string(v))
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return Bool(true)
		}
		_, err := ParseFraction(s)
		return Bool(err == nil && s != "")
	case List:
		r := make(List, len(v))
		for i, x := range v {
			r[i] = hasNumericValue(x)
		}
		return r
	case *Matrix:
		r, _ := mapMatrix(v, func(x Value) (Value, error) { return hasNumericValue(x), nil })
		return r
	}
	return Bool(false)
}

func fnSize(ctx *Context, args []Value) (Value, error) {
	var dims []int
	switch v := args[0].(type) {
	case Number, Bool:
		dims = nil
	case String:
		dims = []int{utf8.RuneCountInString(string(v))}
	case List, *Matrix:
		dims = shapeOf(v)
	default:
		return nil, &TypeError{Func: "size", Arg: 1, Got: typeName(v)}
	}
	r := make(List, len(dims))
	for i, d := range dims {
		r[i] = ctx.intn(int64(d))
	}
	return r, nil
}

func fnTranspose(_ *Context, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Matrix:
		return v.transpose(), nil
	case List:
		if nested(v) {
			m, _ := asMatrix(v)
			return m.transpose(), nil
		}
		return v, nil
	case Number:
		return v, nil
	}
	return nil, &TypeError{Func: "transpose", Arg: 1, Got: typeName(args[0])}
}

func fnConcat(_ *Context, args []Value) (Value, error) {
	dim := int64(-1)
	if len(args) > 1 {
		if _, ok := args[len(args)-1].(Number); ok {
			d, err := integer("concat", len(args), args[len(args)-1])
			if err != nil {
				return nil, err
			}
			dim = d
			args = args[:len(args)-1]
		}
	}
	flat := true
	for i, a := range args {
		switch a := a.(type) {
		case List:
			if nested(a) {
				flat = false
			}
		case *Matrix:
			flat = false
		default:
			return nil, &TypeError{Func: "concat", Arg: i + 1, Got: typeName(a)}
		}
	}
	if flat {
		if dim > 0 {
			return nil, &DomainError{X: Float(float64(dim)), Arg: len(args) + 1, Func: "concat"}
		}
		var r List
		for _, a := range args {
			r = append(r, a.(List)...)
		}
		if r == nil {
			r = List{}
		}
		return r, nil
	}
	if dim < 0 {
		dim = 1
	}
	if dim > 1 {
		return nil, &DomainError{X: Float(float64(dim)), Arg: len(args) + 1, Func: "concat"}
	}
	ms := make([]*Matrix, len(args))
	for i, a := range args {
		switch a := a.(type) {
		case *Matrix:
			ms[i] = a
		case List:
			m, ok := asMatrix(a)
			if !ok {
				return nil, &ShapeError{Func: "concat", Left: shapeOf(args[0]), Right: shapeOf(a)}
			}
			ms[i] = m
		}
	}
	if dim == 1 {
		for i := range ms {
			ms[i] = ms[i].transpose()
		}
	}
	var rows [][]Value
	for i, m := range ms {
		if m.cols != ms[0].cols {
			return nil, &ShapeError{Func: "concat", Left: shapeOf(args[0]), Right: shapeOf(args[i])}
		}
		for j := 0; j < m.rows; j++ {
			rows = append(rows, m.Row(j))
		}
	}
	r, err := NewMatrix(rows)
	if err != nil {
		return nil, err
	}
	if dim == 1 {
		r = r.transpose()
	}
	return r, nil
}

// maxRangeLen bounds the number of elements created by ranges and fills.
const maxRangeLen = 1 << 20

func filled(name string, fill int64) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		dims := make([]int64, len(args))
		total := int64(1)
		for i, a := range args {
			d, err := integer(name, i+1, a)
			if err != nil {
				return nil, err
			}
			if d < 0 || d > maxRangeLen {
				return nil, &DomainError{X: a, Arg: i + 1, Func: name}
			}
			dims[i] = d
			total *= d
		}
		if total > maxRangeLen {
			return nil, &DomainError{X: args[len(args)-1], Arg: len(args), Func: name}
		}
		x := ctx.intn(fill)
		if len(dims) == 1 || total == 0 {
			r := make(List, total)
			for i := range r {
				r[i] = x
			}
			return r, nil
		}
		rows := make([][]Value, dims[0])
		for i := range rows {
			rows[i] = make([]Value, dims[1])
			for j := range rows[i] {
				rows[i][j] = x
			}
		}
		m, err := NewMatrix(rows)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// makeRange creates the list start, start+step, ... up to end, including end
// only if inclusive is true.
func makeRange(start, step, end Number, inclusive bool) (Value, error) {
	if step.Sign() == 0 {
		return nil, &DomainError{X: step, Arg: 2, Func: "range"}
	}
	diff, err := Sub(end, start)
	if err != nil {
		return nil, err
	}
	q, err := Div(diff, step)
	if err != nil {
		return nil, err
	}
	qf := q.Float64()
	if math.IsNaN(qf) || math.IsInf(qf, 0) {
		return nil, &DomainError{X: end, Arg: 3, Func: "range"}
	}
	var n float64
	const eps = 1e-9
	switch k := math.Round(qf); {
	case qf < -eps:
		n = 0
	case math.Abs(qf-k) < eps:
		n = k
		if inclusive {
			n++
		}
	default:
		n = math.Floor(qf) + 1
	}
	if n > maxRangeLen {
		return nil, &DomainError{X: end, Arg: 3, Func: "range"}
	}
	r := make(List, int(n))
	for i := range r {
		d, err := Mul(likeInt(step, int64(i)), step)
		if err != nil {
			return nil, err
		}
		x, err := Add(start, d)
		if err != nil {
			return nil, err
		}
		r[i] = x
	}
	return r, nil
}

func fnRange(ctx *Context, args []Value) (Value, error) {
	if s, ok := args[0].(String); ok && len(args) == 1 {
		parts := strings.Split(string(s), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, &DomainError{X: s, Arg: 1, Func: "range"}
		}
		args = make([]Value, len(parts))
		for i, p := range parts {
			x, err := ctx.num(strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			args[i] = x
		}
		if len(args) == 3 {
			// "start:step:end" puts the step in the middle.
			args[1], args[2] = args[2], args[1]
		}
	}
	if len(args) < 2 {
		return nil, &ArityError{Func: "range", Got: len(args), Want: -1}
	}
	nums := make([]Number, len(args))
	for i, a := range args {
		x, ok := a.(Number)
		if !ok {
			return nil, &TypeError{Func: "range", Arg: i + 1, Got: typeName(a)}
		}
		nums[i] = x
	}
	step := likeInt(nums[0], 1)
	if len(nums) == 3 {
		step = nums[2]
	}
	return makeRange(nums[0], step, nums[1], false)
}

func fnRegex(_ *Context, args []Value) (Value, error) {
	s, ok := args[0].(String)
	if !ok {
		return nil, &TypeError{Func: "regex", Arg: 1, Got: typeName(args[0])}
	}
	p, err := CompilePattern(string(s))
	if err != nil {
		return nil, &DomainError{X: s, Arg: 1, Func: "regex"}
	}
	return p, nil
}

// fnEvaluate parses and evaluates a string in the scope of its caller, so
// the parameters of an enclosing function are visible.
func fnEvaluate(ctx *Context, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case String:
		e, err := Parse(strings.NewReader(string(v)), ctx.popts...)
		if err != nil {
			return nil, err
		}
		return ctx.EvalIn(e, ctx.CallerScope())
	case List:
		return mapList(v, func(x Value) (Value, error) { return fnEvaluate(ctx, []Value{x}) })
	}
	return nil, &TypeError{Func: "evaluate", Arg: 1, Got: typeName(args[0])}
}

// constant creates a constant which is a float or a decimal at the context's
// digits, depending on the context's number kind. Irrational constants are
// floats in rational contexts.
func constant(f float64, bf func(z *big.Float) *big.Float) func(*Context) (Value, error) {
	return func(ctx *Context) (Value, error) {
		if ctx.kind != KindDecimal {
			return Float(f), nil
		}
		z := new(big.Float).SetPrec(decprec(ctx.digits))
		bf(z)
		return Number{kind: KindDecimal, d: z, digits: ctx.digits}, nil
	}
}

func bigE(z *big.Float) *big.Float {
	one := new(big.Float).SetPrec(z.Prec()).SetInt64(1)
	return bigfloat.Exp(z, one)
}

func bigTau(z *big.Float) *big.Float {
	bigfloat.Pi(z)
	return z.Add(z, z)
}

func bigPhi(z *big.Float) *big.Float {
	z.SetInt64(5)
	z.Sqrt(z)
	z.Add(z, new(big.Float).SetInt64(1))
	return z.Quo(z, new(big.Float).SetInt64(2))
}
