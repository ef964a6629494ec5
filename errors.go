package numexpr

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrDivisionByZero is returned when dividing an exact (decimal or
	// rational) number by zero, or when constructing a fraction with a zero
	// denominator. Float division by zero follows IEEE 754 instead.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrEmptyProgram is returned when asked to evaluate a program with no
	// statements.
	ErrEmptyProgram = errors.New("empty program")
	// ErrChainResolved is returned by steps on a chain that has already been
	// resolved.
	ErrChainResolved = errors.New("chain already resolved")
)

// NameError is an error from a lookup for a variable that is missing from the
// evaluation scope and the function registry.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined symbol " + strconv.Quote(err.Name)
}

// ArityError is an error from calling a function with a number of arguments
// it does not accept.
type ArityError struct {
	// Func is the name of the function.
	Func string
	// Got is the number of arguments supplied.
	Got int
	// Want is the number of parameters of a user-defined function, or -1 if
	// the function accepts some other set of argument counts.
	Want int
}

func (err *ArityError) Error() string {
	var b strings.Builder
	b.WriteString("wrong number of arguments to ")
	b.WriteString(err.Func)
	b.WriteString(": got ")
	b.WriteString(strconv.Itoa(err.Got))
	if err.Want >= 0 {
		b.WriteString(", want ")
		b.WriteString(strconv.Itoa(err.Want))
	}
	return b.String()
}

// ShapeError is an error from combining containers whose shapes do not match.
type ShapeError struct {
	// Func names the operation.
	Func string
	// Left and Right are the shapes of the operands, as returned by size.
	Left, Right []int
}

func (err *ShapeError) Error() string {
	return err.Func + ": shape mismatch " + fmtShape(err.Left) + " vs " + fmtShape(err.Right)
}

func fmtShape(s []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte(']')
	return b.String()
}

// TypeError is an error from applying an operation to a value of a type it
// does not support.
type TypeError struct {
	// Func names the operation.
	Func string
	// Arg is the 1-based index of the offending argument, or 0 if unknown.
	Arg int
	// Got is the type of the offending value.
	Got string
}

func (err *TypeError) Error() string {
	r := err.Func + ": unsupported operand of type " + err.Got
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

// DomainError is an error returned when a function is called on arguments
// outside its domain.
type DomainError struct {
	// X is the out-of-domain argument.
	X Value
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := "value outside domain"
	if err.X != nil {
		r = err.X.String() + " outside domain"
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

// OperationError is an error from a chain step naming an operation that is
// not registered.
type OperationError struct {
	// Name is the unknown operation.
	Name string
}

func (err *OperationError) Error() string {
	return "unknown operation " + strconv.Quote(err.Name)
}

// RecursionError is an error from user-defined function calls nesting deeper
// than the context's recursion limit.
type RecursionError struct {
	// Func is the function whose call exceeded the limit.
	Func string
	// Limit is the recursion limit in effect.
	Limit int
}

func (err *RecursionError) Error() string {
	return "recursion limit " + strconv.Itoa(err.Limit) + " exceeded calling " + err.Func
}

// NumberError is an error from text that does not describe a number of the
// requested kind.
type NumberError struct {
	// Text is the text that failed to parse.
	Text string
	// Kind is the kind of number requested.
	Kind Kind
}

func (err *NumberError) Error() string {
	if err.Kind == KindInvalid {
		return "invalid number kind " + strconv.Quote(err.Text)
	}
	return "invalid " + err.Kind.String() + " " + strconv.Quote(err.Text)
}
