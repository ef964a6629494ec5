// Package numexpr implements a numeric expression engine over floats,
// arbitrary-precision decimals, and exact rationals.
//
// The syntax of expressions is intended to be similar to math you'd write in
// your notes. "2 x y" is a multiplication of three terms, "[1, 2; 3, 4]" is a
// matrix, and "1:2:9" is the list of odd numbers up to nine. Assignments bind
// names in a scope, and "f(x) = x^2" defines a function closing over the scope
// where it is defined.
//
// Numbers are values of one of three kinds. Mixing kinds promotes operands:
// rationals stay exact among themselves, decimals absorb floats at their own
// precision, and a rational mixed with anything else takes the other kind.
// Division by zero is an error for the exact kinds but follows IEEE 754 for
// floats.
//
// Expressions are parsed once into an Expr and evaluated with a Context, which
// owns a scope of variables and a registry of functions. Contexts never share
// either unless told to. A Chain threads a value through registered
// operations without parsing at all.
package numexpr
