package numexpr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression. The set of values is
// closed: Number, Bool, String, List, *Matrix, Function, and Pattern.
type Value interface {
	// Type names the type of the value, as reported by typeOf.
	Type() string
	// String renders the value deterministically.
	String() string

	value()
}

func (Number) value()   {}
func (Bool) value()     {}
func (String) value()   {}
func (List) value()     {}
func (*Matrix) value()  {}
func (Function) value() {}
func (Pattern) value()  {}

// Bool is the result of comparisons and predicates.
type Bool bool

func (Bool) Type() string { return "boolean" }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// String is a string value.
type String string

func (String) Type() string { return "string" }

// String returns s unquoted.
func (s String) String() string { return string(s) }

// List is an ordered sequence of values. Lists produced by evaluation are
// never modified afterward.
type List []Value

func (List) Type() string { return "list" }

func (l List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoted(v))
	}
	b.WriteByte(']')
	return b.String()
}

// quoted renders v as an element of a container.
func quoted(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// Function is a callable value, either a built-in or a user-defined function.
type Function struct {
	// Name is the name under which the function was defined or looked up.
	Name string
	// Fn is the implementation.
	Fn Func
}

func (Function) Type() string { return "function" }

func (f Function) String() string {
	if s, ok := f.Fn.(interface{ String() string }); ok {
		return s.String()
	}
	return f.Name
}

// Pattern is a compiled regular expression, usable as a filter predicate.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles a regular expression into a Pattern.
func CompilePattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{re}, nil
}

func (Pattern) Type() string { return "pattern" }

func (p Pattern) String() string {
	if p.re == nil {
		return "//"
	}
	return "/" + p.re.String() + "/"
}

// Match reports whether the pattern matches the text of v. Strings match on
// their contents; other values match on their rendering.
func (p Pattern) Match(v Value) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(v.String())
}

// ToFloat64 converts a numeric or boolean value to a float64. Other values
// give NaN.
func ToFloat64(v Value) float64 {
	switch v := v.(type) {
	case Number:
		return v.Float64()
	case Bool:
		if v {
			return 1
		}
		return 0
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// typeName is v.Type(), or "nil" for a nil v.
func typeName(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Type()
}

// truthy interprets a predicate result.
func truthy(fn string, v Value) (bool, error) {
	switch v := v.(type) {
	case Bool:
		return bool(v), nil
	case Number:
		return v.Sign() != 0, nil
	}
	return false, &TypeError{Func: fn, Got: typeName(v)}
}
