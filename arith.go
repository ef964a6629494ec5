package numexpr

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// arith is the dispatch table for one binary operation over the numeric
// tower. Each entry receives operands already promoted to its kind. decimal
// and rational must set z to the result.
type arith struct {
	name     string
	float    func(x, y float64) float64
	decimal  func(z, x, y *big.Float) error
	rational func(z, x, y *big.Rat) error
}

var (
	addArith = arith{
		name:     "add",
		float:    func(x, y float64) float64 { return x + y },
		decimal:  func(z, x, y *big.Float) error { z.Add(x, y); return nil },
		rational: func(z, x, y *big.Rat) error { z.Add(x, y); return nil },
	}
	subArith = arith{
		name:     "subtract",
		float:    func(x, y float64) float64 { return x - y },
		decimal:  func(z, x, y *big.Float) error { z.Sub(x, y); return nil },
		rational: func(z, x, y *big.Rat) error { z.Sub(x, y); return nil },
	}
	mulArith = arith{
		name:     "multiply",
		float:    func(x, y float64) float64 { return x * y },
		decimal:  func(z, x, y *big.Float) error { z.Mul(x, y); return nil },
		rational: func(z, x, y *big.Rat) error { z.Mul(x, y); return nil },
	}
	divArith = arith{
		name:  "divide",
		float: func(x, y float64) float64 { return x / y },
		decimal: func(z, x, y *big.Float) error {
			if y.Sign() == 0 {
				return ErrDivisionByZero
			}
			z.Quo(x, y)
			return nil
		},
		rational: func(z, x, y *big.Rat) error {
			if y.Sign() == 0 {
				return ErrDivisionByZero
			}
			z.Quo(x, y)
			return nil
		},
	}
	modArith = arith{
		name: "mod",
		float: func(x, y float64) float64 {
			r := math.Mod(x, y)
			if r != 0 && (r < 0) != (y < 0) {
				r += y
			}
			return r
		},
		decimal: func(z, x, y *big.Float) error {
			if y.Sign() == 0 {
				return ErrDivisionByZero
			}
			if x.IsInf() || y.IsInf() {
				panic(big.ErrNaN{})
			}
			q := new(big.Float).SetPrec(z.Prec()).Quo(x, y)
			floorFloat(q)
			z.Sub(x, q.Mul(q, y))
			return nil
		},
		rational: func(z, x, y *big.Rat) error {
			if y.Sign() == 0 {
				return ErrDivisionByZero
			}
			q := new(big.Rat).Quo(x, y)
			q.SetInt(floorRat(q))
			z.Sub(x, q.Mul(q, y))
			return nil
		},
	}
)

// apply promotes a and b to a common kind and computes the operation.
func (op *arith) apply(a, b Number) (r Number, err error) {
	a, b, err = promote(op.name, a, b)
	if err != nil {
		return Number{}, err
	}
	switch a.kind {
	case KindFloat:
		return Float(op.float(a.f, b.f)), nil
	case KindDecimal:
		defer func() {
			if p := recover(); p != nil {
				if _, ok := p.(big.ErrNaN); !ok {
					panic(p)
				}
				r, err = Number{}, &DomainError{X: b, Arg: 2, Func: op.name}
			}
		}()
		digits := maxDigits(a, b)
		z := new(big.Float).SetPrec(decprec(digits))
		if err := op.decimal(z, a.d, b.d); err != nil {
			return Number{}, err
		}
		return Number{kind: KindDecimal, d: z, digits: digits}, nil
	case KindRational:
		z := new(big.Rat)
		if err := op.rational(z, a.r, b.r); err != nil {
			return Number{}, err
		}
		return Number{kind: KindRational, r: z}, nil
	}
	return Number{}, &TypeError{Func: op.name, Got: a.Type()}
}

func maxDigits(a, b Number) uint {
	if a.digits > b.digits {
		return a.digits
	}
	return b.digits
}

// promote converts a and b to a common kind. Rationals take the kind of the
// other operand; floats combined with decimals become decimals at the
// decimal's digits.
func promote(name string, a, b Number) (Number, Number, error) {
	if a.kind == KindInvalid {
		return a, b, &TypeError{Func: name, Arg: 1, Got: a.Type()}
	}
	if b.kind == KindInvalid {
		return a, b, &TypeError{Func: name, Arg: 2, Got: b.Type()}
	}
	if a.kind == b.kind {
		return a, b, nil
	}
	var err error
	switch {
	case a.kind == KindRational:
		a, err = convertLike(a, b)
	case b.kind == KindRational:
		b, err = convertLike(b, a)
	case a.kind == KindFloat:
		a, err = a.ToDecimal(b.digits)
	default:
		b, err = b.ToDecimal(a.digits)
	}
	return a, b, err
}

// convertLike converts x to the kind of y, using y's digits for decimals.
func convertLike(x, y Number) (Number, error) {
	if y.kind == KindDecimal {
		return x.ToDecimal(y.digits)
	}
	return Convert(x, y.kind)
}

// Add returns a + b.
func Add(a, b Number) (Number, error) {
	return addArith.apply(a, b)
}

// Sub returns a - b.
func Sub(a, b Number) (Number, error) {
	return subArith.apply(a, b)
}

// Mul returns a * b.
func Mul(a, b Number) (Number, error) {
	return mulArith.apply(a, b)
}

// Div returns a / b. Division of decimals or rationals by zero fails with
// ErrDivisionByZero, but float division follows IEEE 754 and produces ±Inf or
// NaN.
func Div(a, b Number) (Number, error) {
	return divArith.apply(a, b)
}

// Mod returns a - b*floor(a/b), which has the sign of b. Exact kinds fail
// with ErrDivisionByZero when b is zero; floats give NaN.
func Mod(a, b Number) (Number, error) {
	return modArith.apply(a, b)
}

// Neg returns -a.
func Neg(a Number) (Number, error) {
	switch a.kind {
	case KindFloat:
		return Float(-a.f), nil
	case KindDecimal:
		return Number{kind: KindDecimal, d: new(big.Float).Neg(a.d), digits: a.digits}, nil
	case KindRational:
		return Number{kind: KindRational, r: new(big.Rat).Neg(a.r)}, nil
	}
	return Number{}, &TypeError{Func: "unaryMinus", Got: a.Type()}
}

// Abs returns |a|.
func Abs(a Number) (Number, error) {
	if a.Sign() < 0 {
		return Neg(a)
	}
	if a.kind == KindInvalid {
		return Number{}, &TypeError{Func: "abs", Got: a.Type()}
	}
	return a, nil
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
// Decimals compare after rounding to their digits. Comparing NaN fails with a
// *DomainError.
func Compare(a, b Number) (int, error) {
	a, b, err := promote("compare", a, b)
	if err != nil {
		return 0, err
	}
	switch a.kind {
	case KindFloat:
		switch {
		case math.IsNaN(a.f):
			return 0, &DomainError{X: a, Arg: 1, Func: "compare"}
		case math.IsNaN(b.f):
			return 0, &DomainError{X: b, Arg: 2, Func: "compare"}
		case a.f < b.f:
			return -1, nil
		case a.f > b.f:
			return 1, nil
		}
		return 0, nil
	case KindDecimal:
		digits := a.digits
		if b.digits < digits {
			digits = b.digits
		}
		return rounded(a.d, digits).Cmp(rounded(b.d, digits)), nil
	case KindRational:
		return a.r.Cmp(b.r), nil
	}
	return 0, &TypeError{Func: "compare", Got: a.Type()}
}

// maxExactExp bounds exponents for which rational powers are computed
// exactly.
const maxExactExp = 1 << 14

// maxExactBits bounds the size in bits of exact powers and of decimals
// converted to rationals.
const maxExactBits = 1 << 20

// maxPowBits bounds the binary exponent of decimal powers computed through
// logarithms. Larger results become infinite, and smaller ones zero.
const maxPowBits = 1 << 30

// Pow returns a^b. Rationals raised to integers stay exact unless the result
// would be too large, in which case, as for other exponents, they become
// decimals with DefaultDigits. Decimals raised to integers accept any base;
// raised to other powers, a negative base fails with a *DomainError. Zero
// raised to a negative power fails with ErrDivisionByZero for exact kinds.
func Pow(a, b Number) (Number, error) {
	a, b, err := promote("pow", a, b)
	if err != nil {
		return Number{}, err
	}
	switch a.kind {
	case KindFloat:
		return Float(math.Pow(a.f, b.f)), nil
	case KindRational:
		if b.r.IsInt() {
			r, ok, err := ratPowInt(a.r, b.r.Num())
			if err != nil {
				return Number{}, err
			}
			if ok {
				return Number{kind: KindRational, r: r}, nil
			}
		}
		x, _ := a.ToDecimal(DefaultDigits)
		y, _ := b.ToDecimal(DefaultDigits)
		return decPow(x, y)
	case KindDecimal:
		return decPow(a, b)
	}
	return Number{}, &TypeError{Func: "pow", Got: a.Type()}
}

// ratPowInt computes x^n exactly. ok is false if n or the result is too
// large.
func ratPowInt(x *big.Rat, n *big.Int) (r *big.Rat, ok bool, err error) {
	if x.Sign() == 0 && n.Sign() < 0 {
		return nil, false, ErrDivisionByZero
	}
	if !n.IsInt64() {
		return nil, false, nil
	}
	e := n.Int64()
	if e > maxExactExp || e < -maxExactExp {
		return nil, false, nil
	}
	neg := e < 0
	if neg {
		e = -e
	}
	if int64(x.Num().BitLen()+x.Denom().BitLen())*e > maxExactBits {
		return nil, false, nil
	}
	k := big.NewInt(e)
	num := new(big.Int).Exp(x.Num(), k, nil)
	den := new(big.Int).Exp(x.Denom(), k, nil)
	if neg {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den), true, nil
}

func decPow(a, b Number) (r Number, err error) {
	digits := maxDigits(a, b)
	prec := decprec(digits)
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if e, _ := p.(error); e == nil || !errors.As(e, &big.ErrNaN{}) {
			panic(p)
		}
		r, err = Number{}, &DomainError{X: a, Arg: 1, Func: "pow"}
	}()
	x, y := a.d, b.d
	if e, ok := b.int64(); ok && e <= maxExactExp && e >= -maxExactExp {
		if x.Sign() == 0 && e < 0 {
			return Number{}, ErrDivisionByZero
		}
		z := powInt(x, e, prec)
		return Number{kind: KindDecimal, d: z, digits: digits}, nil
	}
	neg := false
	if x.Sign() < 0 {
		if !y.IsInt() {
			return Number{}, &DomainError{X: a, Arg: 1, Func: "pow"}
		}
		neg = isOdd(y)
		x = new(big.Float).Abs(x)
	}
	var z *big.Float
	switch {
	case x.Sign() == 0:
		if y.Sign() < 0 {
			return Number{}, ErrDivisionByZero
		}
		z = new(big.Float).SetPrec(prec)
	case x.IsInf() || y.IsInf():
		xf, _ := x.Float64()
		yf, _ := y.Float64()
		z = new(big.Float).SetPrec(prec).SetFloat64(math.Pow(xf, yf))
	default:
		z = powLog(x, y, prec)
	}
	if neg {
		z.Neg(z)
	}
	return Number{kind: KindDecimal, d: z, digits: digits}, nil
}

// powLog computes x^y for finite positive x as exp(y ln x).
func powLog(x, y *big.Float, prec uint) *big.Float {
	m := new(big.Float)
	e := x.MantExp(m)
	mf, _ := m.Float64()
	yf, _ := y.Float64()
	// NaN when x is 1 and y overflows float64; bigfloat handles that.
	bits := yf * (float64(e) + math.Log2(mf))
	switch {
	case bits > maxPowBits:
		return new(big.Float).SetPrec(prec).SetInf(false)
	case bits < -maxPowBits:
		return new(big.Float).SetPrec(prec)
	}
	xx := new(big.Float).SetPrec(prec).Set(x)
	yy := new(big.Float).SetPrec(prec).Set(y)
	// Pow does not always write its result into its first argument.
	z := bigfloat.Pow(new(big.Float).SetPrec(prec), xx, yy)
	return z.SetPrec(prec)
}

// isOdd reports whether the integer y is odd.
func isOdd(y *big.Float) bool {
	if y.MantExp(nil) > int(y.MinPrec()) {
		return false
	}
	i, _ := y.Int(nil)
	return i.Bit(0) == 1
}

// powInt computes x^e by repeated squaring.
func powInt(x *big.Float, e int64, prec uint) *big.Float {
	neg := e < 0
	if neg {
		e = -e
	}
	z := new(big.Float).SetPrec(prec).SetInt64(1)
	p := new(big.Float).SetPrec(prec).Set(x)
	for e > 0 {
		if e&1 != 0 {
			z.Mul(z, p)
		}
		e >>= 1
		if e > 0 {
			p.Mul(p, p)
		}
	}
	if neg {
		z.Quo(new(big.Float).SetPrec(prec).SetInt64(1), z)
	}
	return z
}

// floorFloat sets x to floor(x).
func floorFloat(x *big.Float) {
	if x.IsInf() || x.IsInt() {
		return
	}
	i, _ := x.Int(nil)
	if x.Sign() < 0 {
		i.Sub(i, big.NewInt(1))
	}
	x.SetInt(i)
}

// floorRat returns floor(x).
func floorRat(x *big.Rat) *big.Int {
	// Euclidean division by a positive denominator is floor division.
	return new(big.Int).Div(x.Num(), x.Denom())
}
