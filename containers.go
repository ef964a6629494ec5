package numexpr

import (
	"slices"
	"strings"
)

// Matrix is a rectangular two-dimensional array of values. A Matrix is never
// modified after construction.
type Matrix struct {
	rows, cols int
	data       []Value
}

// NewMatrix creates a matrix from its rows. The rows must all have the same
// nonzero length; otherwise the result is a *ShapeError.
func NewMatrix(rows [][]Value) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ShapeError{Func: "matrix", Left: []int{len(rows)}, Right: []int{1, 1}}
	}
	m := Matrix{rows: len(rows), cols: len(rows[0]), data: make([]Value, 0, len(rows)*len(rows[0]))}
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, &ShapeError{Func: "matrix", Left: []int{i, len(row)}, Right: []int{i, m.cols}}
		}
		m.data = append(m.data, row...)
	}
	return &m, nil
}

func (*Matrix) Type() string { return "matrix" }

// Size returns the number of rows and columns of m.
func (m *Matrix) Size() (rows, cols int) {
	return m.rows, m.cols
}

// At returns the element at row i and column j.
func (m *Matrix) At(i, j int) Value {
	return m.data[i*m.cols+j]
}

// Row returns a copy of row i as a list.
func (m *Matrix) Row(i int) List {
	return append(List(nil), m.data[i*m.cols:(i+1)*m.cols]...)
}

// Col returns a copy of column j as a list.
func (m *Matrix) Col(j int) List {
	r := make(List, m.rows)
	for i := range r {
		r[i] = m.data[i*m.cols+j]
	}
	return r
}

// Rows returns the matrix as a list of row lists.
func (m *Matrix) Rows() List {
	r := make(List, m.rows)
	for i := range r {
		r[i] = m.Row(i)
	}
	return r
}

func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.Row(i).String())
	}
	b.WriteByte(']')
	return b.String()
}

// transpose returns the transpose of m.
func (m *Matrix) transpose() *Matrix {
	r := Matrix{rows: m.cols, cols: m.rows, data: make([]Value, len(m.data))}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			r.data[j*r.cols+i] = m.data[i*m.cols+j]
		}
	}
	return &r
}

// asMatrix interprets a list as a matrix. A list of equal-length lists of
// non-lists is a matrix with one row per element. A flat list is a single
// row.
func asMatrix(l List) (*Matrix, bool) {
	if len(l) == 0 {
		return nil, false
	}
	if _, ok := l[0].(List); !ok {
		for _, v := range l {
			if !scalar(v) {
				return nil, false
			}
		}
		return &Matrix{rows: 1, cols: len(l), data: append([]Value(nil), l...)}, true
	}
	rows := make([][]Value, len(l))
	for i, v := range l {
		row, ok := v.(List)
		if !ok || len(row) == 0 {
			return nil, false
		}
		for _, x := range row {
			if !scalar(x) {
				return nil, false
			}
		}
		rows[i] = row
	}
	m, err := NewMatrix(rows)
	return m, err == nil
}

// nested reports whether l is a rectangular list of lists that should be
// treated as a matrix literal.
func nested(l List) bool {
	if len(l) == 0 {
		return false
	}
	if _, ok := l[0].(List); !ok {
		return false
	}
	_, ok := asMatrix(l)
	return ok
}

func scalar(v Value) bool {
	switch v.(type) {
	case List, *Matrix:
		return false
	}
	return true
}

// shapeOf returns the dimensions of v: none for scalars, one for lists, and
// two for matrices. Nested lists add the shape of their elements only when
// all elements have the same shape.
func shapeOf(v Value) []int {
	switch v := v.(type) {
	case List:
		s := []int{len(v)}
		if len(v) == 0 {
			return s
		}
		inner := shapeOf(v[0])
		for _, x := range v[1:] {
			if !slices.Equal(shapeOf(x), inner) {
				return s
			}
		}
		return append(s, inner...)
	case *Matrix:
		return []int{v.rows, v.cols}
	}
	return []int{}
}

// broadcast applies f to the numbers in a and b. A scalar combines with every
// element of a container; containers of the same shape combine elementwise.
// A flat list combined with a matrix is treated as a single row.
func broadcast(name string, a, b Value, f func(x, y Number) (Value, error)) (Value, error) {
	switch x := a.(type) {
	case Number:
		switch y := b.(type) {
		case Number:
			return f(x, y)
		case List:
			return mapList(y, func(v Value) (Value, error) { return broadcast(name, x, v, f) })
		case *Matrix:
			return mapMatrix(y, func(v Value) (Value, error) { return broadcast(name, x, v, f) })
		}
		return nil, &TypeError{Func: name, Arg: 2, Got: typeName(b)}
	case List:
		switch y := b.(type) {
		case Number:
			return mapList(x, func(v Value) (Value, error) { return broadcast(name, v, y, f) })
		case List:
			if len(x) != len(y) {
				return nil, &ShapeError{Func: name, Left: shapeOf(x), Right: shapeOf(y)}
			}
			r := make(List, len(x))
			for i := range x {
				v, err := broadcast(name, x[i], y[i], f)
				if err != nil {
					return nil, err
				}
				r[i] = v
			}
			return r, nil
		case *Matrix:
			m, ok := asMatrix(x)
			if !ok {
				return nil, &ShapeError{Func: name, Left: shapeOf(x), Right: shapeOf(y)}
			}
			return broadcast(name, m, y, f)
		}
		return nil, &TypeError{Func: name, Arg: 2, Got: typeName(b)}
	case *Matrix:
		switch y := b.(type) {
		case Number:
			return mapMatrix(x, func(v Value) (Value, error) { return broadcast(name, v, y, f) })
		case List:
			m, ok := asMatrix(y)
			if !ok {
				return nil, &ShapeError{Func: name, Left: shapeOf(x), Right: shapeOf(y)}
			}
			return broadcast(name, x, m, f)
		case *Matrix:
			if x.rows != y.rows || x.cols != y.cols {
				return nil, &ShapeError{Func: name, Left: shapeOf(x), Right: shapeOf(y)}
			}
			r := Matrix{rows: x.rows, cols: x.cols, data: make([]Value, len(x.data))}
			for i := range x.data {
				v, err := broadcast(name, x.data[i], y.data[i], f)
				if err != nil {
					return nil, err
				}
				r.data[i] = v
			}
			return &r, nil
		}
		return nil, &TypeError{Func: name, Arg: 2, Got: typeName(b)}
	}
	return nil, &TypeError{Func: name, Arg: 1, Got: typeName(a)}
}

// elementwise applies f to every number in v.
func elementwise(name string, v Value, f func(x Number) (Value, error)) (Value, error) {
	switch v := v.(type) {
	case Number:
		return f(v)
	case List:
		return mapList(v, func(x Value) (Value, error) { return elementwise(name, x, f) })
	case *Matrix:
		return mapMatrix(v, func(x Value) (Value, error) { return elementwise(name, x, f) })
	}
	return nil, &TypeError{Func: name, Arg: 1, Got: typeName(v)}
}

func mapList(l List, f func(Value) (Value, error)) (Value, error) {
	r := make(List, len(l))
	for i, v := range l {
		x, err := f(v)
		if err != nil {
			return nil, err
		}
		r[i] = x
	}
	return r, nil
}

func mapMatrix(m *Matrix, f func(Value) (Value, error)) (Value, error) {
	r := Matrix{rows: m.rows, cols: m.cols, data: make([]Value, len(m.data))}
	for i, v := range m.data {
		x, err := f(v)
		if err != nil {
			return nil, err
		}
		r.data[i] = x
	}
	return &r, nil
}

// flatten appends the numbers in v to dst in row-major order.
func flatten(name string, dst []Number, v Value) ([]Number, error) {
	switch v := v.(type) {
	case Number:
		return append(dst, v), nil
	case List:
		var err error
		for _, x := range v {
			dst, err = flatten(name, dst, x)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case *Matrix:
		var err error
		for _, x := range v.data {
			dst, err = flatten(name, dst, x)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
	return nil, &TypeError{Func: name, Got: typeName(v)}
}

func numeric(f func(x, y Number) (Number, error)) func(x, y Number) (Value, error) {
	return func(x, y Number) (Value, error) {
		r, err := f(x, y)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
