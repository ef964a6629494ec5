package numexpr

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies the representation of a Number.
type Kind int8

const (
	// KindInvalid is the kind of the zero Number.
	KindInvalid Kind = iota
	// KindFloat numbers are IEEE 754 binary64 values.
	KindFloat
	// KindDecimal numbers are arbitrary-precision values carrying a number
	// of significant decimal digits.
	KindDecimal
	// KindRational numbers are exact fractions in lowest terms.
	KindRational
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindRational:
		return "rational"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind gets the kind named by s. Besides the names returned by
// Kind.String, it accepts "number", "bignumber", and "fraction".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "number", "float64":
		return KindFloat, nil
	case "decimal", "bignumber":
		return KindDecimal, nil
	case "rational", "fraction":
		return KindRational, nil
	default:
		return KindInvalid, &NumberError{Text: s}
	}
}

// DefaultDigits is the decimal precision used when none is given, including
// when a rational is raised to a non-integer power.
const DefaultDigits = 20

// Number is a value in the numeric tower. The zero Number is invalid; every
// operation on it fails with a *TypeError. Numbers are immutable.
type Number struct {
	kind Kind
	f    float64
	// d and digits are used for decimals. d is never modified after the
	// Number is constructed.
	d      *big.Float
	digits uint
	// r is used for rationals. big.Rat keeps it normalized.
	r *big.Rat
}

// decprec is the binary precision used to hold a number of decimal digits,
// with a few guard bits so that rounding to digits is stable.
func decprec(digits uint) uint {
	return uint(math.Ceil(float64(digits)*math.Log2(10))) + 8
}

// Float creates a float Number.
func Float(f float64) Number {
	return Number{kind: KindFloat, f: f}
}

// Decimal creates a decimal Number holding x rounded to the given number of
// significant digits. If digits is 0, DefaultDigits is used.
func Decimal(x *big.Float, digits uint) Number {
	if digits == 0 {
		digits = DefaultDigits
	}
	d := new(big.Float).SetPrec(decprec(digits)).Set(x)
	return Number{kind: KindDecimal, d: d, digits: digits}
}

// ParseDecimal parses a decimal Number from its text. If digits is 0,
// DefaultDigits is used.
func ParseDecimal(s string, digits uint) (Number, error) {
	if digits == 0 {
		digits = DefaultDigits
	}
	d, err := parseBigFloat(s, decprec(digits))
	if err != nil {
		return Number{}, &NumberError{Text: s, Kind: KindDecimal}
	}
	return Number{kind: KindDecimal, d: d, digits: digits}, nil
}

func parseBigFloat(s string, prec uint) (*big.Float, error) {
	switch s {
	case "∞", "Infinity", "inf", "Inf":
		return new(big.Float).SetPrec(prec).SetInf(false), nil
	case "-Infinity", "-inf", "-Inf":
		return new(big.Float).SetPrec(prec).SetInf(true), nil
	}
	r, _, err := new(big.Float).SetPrec(prec).Parse(s, 10)
	switch {
	case err == nil:
		return r, nil
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		return new(big.Float).SetPrec(prec).SetInf(strings.HasPrefix(s, "-")), nil
	default:
		return nil, err
	}
}

// Fraction creates the rational Number num/den in lowest terms. A zero
// denominator fails with ErrDivisionByZero.
func Fraction(num, den int64) (Number, error) {
	if den == 0 {
		return Number{}, ErrDivisionByZero
	}
	return Number{kind: KindRational, r: big.NewRat(num, den)}, nil
}

// Rat creates a rational Number holding a copy of r.
func Rat(r *big.Rat) Number {
	return Number{kind: KindRational, r: new(big.Rat).Set(r)}
}

// maxRatExp bounds the decimal exponent accepted in rational text so that
// parsing cannot allocate without limit.
const maxRatExp = 4096

// ParseFraction parses a rational Number from text of the form "n/d" or a
// decimal literal like "0.125" or "1e-3".
func ParseFraction(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if k := strings.IndexByte(s, '/'); k >= 0 {
		den, ok := new(big.Int).SetString(strings.TrimSpace(s[k+1:]), 10)
		if ok && den.Sign() == 0 {
			return Number{}, ErrDivisionByZero
		}
		s = strings.TrimSpace(s[:k]) + "/" + strings.TrimSpace(s[k+1:])
	} else if k := strings.IndexAny(s, "eE"); k >= 0 {
		e, err := strconv.Atoi(s[k+1:])
		if err != nil || e > maxRatExp || e < -maxRatExp {
			return Number{}, &NumberError{Text: s, Kind: KindRational}
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Number{}, &NumberError{Text: s, Kind: KindRational}
	}
	return Number{kind: KindRational, r: r}, nil
}

// parseNumber parses a numeric literal as the given kind.
func parseNumber(s string, kind Kind, digits uint) (Number, error) {
	switch kind {
	case KindDecimal:
		return ParseDecimal(s, digits)
	case KindRational:
		if isInfText(s) {
			// Infinity has no rational representation.
			return Float(math.Inf(1)), nil
		}
		return ParseFraction(s)
	default:
		if isInfText(s) {
			return Float(math.Inf(1)), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
				// f is ±Inf or ±0 as appropriate.
				return Float(f), nil
			}
			return Number{}, &NumberError{Text: s, Kind: KindFloat}
		}
		return Float(f), nil
	}
}

func isInfText(s string) bool {
	switch s {
	case "∞", "Infinity", "inf", "Inf":
		return true
	}
	return false
}

// Kind returns the number's kind.
func (x Number) Kind() Kind {
	return x.kind
}

// Type returns the name of the number's kind.
func (x Number) Type() string {
	return x.kind.String()
}

// Digits returns the number of significant decimal digits of a decimal, or 0
// for other kinds.
func (x Number) Digits() uint {
	return x.digits
}

// Float64 returns the nearest float64 to x. This is toNumber.
func (x Number) Float64() float64 {
	switch x.kind {
	case KindFloat:
		return x.f
	case KindDecimal:
		f, _ := x.d.Float64()
		return f
	case KindRational:
		f, _ := x.r.Float64()
		return f
	default:
		return math.NaN()
	}
}

// BigFloat returns a copy of the value of a decimal, or nil for other kinds.
func (x Number) BigFloat() *big.Float {
	if x.kind != KindDecimal {
		return nil
	}
	return new(big.Float).Copy(x.d)
}

// BigRat returns a copy of the value of a rational, or nil for other kinds.
func (x Number) BigRat() *big.Rat {
	if x.kind != KindRational {
		return nil
	}
	return new(big.Rat).Set(x.r)
}

// Sign returns -1, 0, or 1 according to the sign of x. NaN has sign 0.
func (x Number) Sign() int {
	switch x.kind {
	case KindFloat:
		switch {
		case x.f < 0:
			return -1
		case x.f > 0:
			return 1
		}
		return 0
	case KindDecimal:
		return x.d.Sign()
	case KindRational:
		return x.r.Sign()
	}
	return 0
}

// IsInt reports whether x is a finite integer.
func (x Number) IsInt() bool {
	switch x.kind {
	case KindFloat:
		return !math.IsInf(x.f, 0) && x.f == math.Trunc(x.f)
	case KindDecimal:
		return !x.d.IsInf() && x.d.IsInt()
	case KindRational:
		return x.r.IsInt()
	}
	return false
}

// IsNaN reports whether x is a float NaN.
func (x Number) IsNaN() bool {
	return x.kind == KindFloat && math.IsNaN(x.f)
}

// IsInf reports whether x is infinite.
func (x Number) IsInf() bool {
	switch x.kind {
	case KindFloat:
		return math.IsInf(x.f, 0)
	case KindDecimal:
		return x.d.IsInf()
	}
	return false
}

// int64 returns x as an int64 if it is an integer that fits.
func (x Number) int64() (int64, bool) {
	if !x.IsInt() {
		return 0, false
	}
	switch x.kind {
	case KindFloat:
		if x.f < math.MinInt64 || x.f >= math.MaxInt64 {
			return 0, false
		}
		return int64(x.f), true
	case KindDecimal:
		i, acc := x.d.Int64()
		return i, acc == big.Exact
	case KindRational:
		n := x.r.Num()
		return n.Int64(), n.IsInt64()
	}
	return 0, false
}

// String formats x. Floats use the shortest representation that round-trips,
// decimals use their significant digits, and rationals use "n/d", or "n" when
// the denominator is 1.
func (x Number) String() string {
	switch x.kind {
	case KindFloat:
		return formatFloat(x.f)
	case KindDecimal:
		return formatDecimal(x.d, x.digits)
	case KindRational:
		return x.r.RatString()
	default:
		return "<invalid>"
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	if a := math.Abs(f); a == 0 || (a >= 1e-6 && a < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}

func formatDecimal(d *big.Float, digits uint) string {
	if d.IsInf() {
		if d.Signbit() {
			return "-Infinity"
		}
		return "Infinity"
	}
	return decimalText(d, 'g', int(digits))
}

// maxTextExp bounds the binary exponents of decimals that are formatted
// directly. Others are scaled by a power of ten first, since expanding a huge
// exponent into decimal digits takes time and memory proportional to it.
const maxTextExp = 1 << 12

// decimalText formats finite d with sig significant digits in the 'e' or 'g'
// format.
func decimalText(d *big.Float, format byte, sig int) string {
	if sig < 1 {
		sig = 1
	}
	exp := 0
	if !d.IsInf() && d.Sign() != 0 {
		exp = d.MantExp(nil)
	}
	if exp > -maxTextExp && exp < maxTextExp {
		if format == 'e' {
			return d.Text('e', sig-1)
		}
		return d.Text(format, sig)
	}
	// |d| is in [2^(exp-1), 2^exp), so its decimal exponent is k or k+1.
	prec := d.Prec() + 64
	k := int64(math.Floor(float64(exp-1) * math.Log10(2)))
	m := new(big.Float).SetPrec(prec).Abs(d)
	m.Quo(m, powInt(big.NewFloat(10), k, prec))
	t := m.Text('e', sig-1)
	i := strings.IndexByte(t, 'e')
	e, _ := strconv.ParseInt(t[i+1:], 10, 64)
	mant := t[:i]
	if format == 'g' && strings.Contains(mant, ".") {
		mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
	}
	k += e
	var b strings.Builder
	if d.Signbit() {
		b.WriteByte('-')
	}
	b.WriteString(mant)
	b.WriteByte('e')
	if k < 0 {
		b.WriteByte('-')
		k = -k
	} else {
		b.WriteByte('+')
	}
	b.WriteString(strconv.FormatInt(k, 10))
	return b.String()
}

// Convert converts x to the given kind. Floats become exact values by way of
// their shortest decimal representation, so 0.1 converts to 1/10. Decimals
// created from other kinds use DefaultDigits.
func Convert(x Number, kind Kind) (Number, error) {
	if x.kind == kind {
		return x, nil
	}
	switch kind {
	case KindFloat:
		if x.kind == KindInvalid {
			break
		}
		return Float(x.Float64()), nil
	case KindDecimal:
		return x.ToDecimal(DefaultDigits)
	case KindRational:
		return x.toRational()
	}
	return Number{}, &TypeError{Func: "convert", Got: x.Type()}
}

// ToDecimal converts x to a decimal with the given significant digits. If
// digits is 0, DefaultDigits is used.
func (x Number) ToDecimal(digits uint) (Number, error) {
	if digits == 0 {
		digits = DefaultDigits
	}
	prec := decprec(digits)
	switch x.kind {
	case KindFloat:
		if math.IsNaN(x.f) {
			return Number{}, &DomainError{X: x, Func: "decimal"}
		}
		if math.IsInf(x.f, 0) {
			return Number{kind: KindDecimal, d: new(big.Float).SetPrec(prec).SetInf(x.f < 0), digits: digits}, nil
		}
		d, _, err := new(big.Float).SetPrec(prec).Parse(strconv.FormatFloat(x.f, 'g', -1, 64), 10)
		if err != nil {
			// Shortest formatting always parses.
			panic("numexpr: unparseable float text: " + err.Error())
		}
		return Number{kind: KindDecimal, d: d, digits: digits}, nil
	case KindDecimal:
		return Decimal(x.d, digits), nil
	case KindRational:
		return Number{kind: KindDecimal, d: new(big.Float).SetPrec(prec).SetRat(x.r), digits: digits}, nil
	}
	return Number{}, &TypeError{Func: "decimal", Got: x.Type()}
}

func (x Number) toRational() (Number, error) {
	switch x.kind {
	case KindFloat:
		if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
			return Number{}, &DomainError{X: x, Func: "fraction"}
		}
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(x.f, 'g', -1, 64))
		if !ok {
			r = new(big.Rat).SetFloat64(x.f)
		}
		return Number{kind: KindRational, r: r}, nil
	case KindDecimal:
		if x.d.IsInf() {
			return Number{}, &DomainError{X: x, Func: "fraction"}
		}
		if e := x.d.MantExp(nil); e > maxExactBits || e < -maxExactBits {
			return Number{}, &DomainError{X: x, Func: "fraction"}
		}
		r, ok := new(big.Rat).SetString(x.d.Text('g', int(x.digits)))
		if !ok {
			r, _ = x.d.Rat(nil)
		}
		return Number{kind: KindRational, r: r}, nil
	case KindRational:
		return x, nil
	}
	return Number{}, &TypeError{Func: "fraction", Got: x.Type()}
}

// rounded returns d rounded to digits significant decimal digits, for
// comparisons that should ignore guard bits.
func rounded(d *big.Float, digits uint) *big.Float {
	if d.IsInf() || d.Sign() == 0 {
		return d
	}
	r, _, err := new(big.Float).SetPrec(d.Prec()).Parse(decimalText(d, 'e', int(digits)), 10)
	if err != nil {
		return d
	}
	return r
}
