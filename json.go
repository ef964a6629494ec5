package numexpr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// numberJSON is the tagged form of a number.
type numberJSON struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Digits uint   `json:"digits,omitempty"`
}

// MarshalJSON encodes x as an object tagged with its kind so that Revive or
// UnmarshalJSON can restore it exactly.
func (x Number) MarshalJSON() ([]byte, error) {
	j := numberJSON{Value: x.String()}
	switch x.kind {
	case KindFloat:
		j.Type = "Float"
	case KindDecimal:
		j.Type, j.Digits = "Decimal", x.digits
	case KindRational:
		j.Type = "Rational"
	default:
		return nil, &TypeError{Func: "json", Got: x.Type()}
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a tagged number or a plain JSON number, which becomes
// a float.
func (x *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return &NumberError{Text: string(n), Kind: KindFloat}
		}
		*x = Float(f)
		return nil
	}
	var j numberJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	r, err := j.number()
	if err != nil {
		return err
	}
	*x = r
	return nil
}

func (j numberJSON) number() (Number, error) {
	switch j.Type {
	case "Float":
		f, err := strconv.ParseFloat(j.Value, 64)
		if err != nil {
			return Number{}, &NumberError{Text: j.Value, Kind: KindFloat}
		}
		return Float(f), nil
	case "Decimal":
		return ParseDecimal(j.Value, j.Digits)
	case "Rational":
		return ParseFraction(j.Value)
	}
	return Number{}, fmt.Errorf("numexpr: unknown number type %q", j.Type)
}

type matrixJSON struct {
	Type string    `json:"type"`
	Rows [][]Value `json:"rows"`
}

// MarshalJSON encodes m as an object tagged "Matrix" holding its rows.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	rows := make([][]Value, m.rows)
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return json.Marshal(matrixJSON{Type: "Matrix", Rows: rows})
}

// MarshalJSON encodes p as an object tagged "Pattern".
func (p Pattern) MarshalJSON() ([]byte, error) {
	var s string
	if p.re != nil {
		s = p.re.String()
	}
	return json.Marshal(numberJSON{Type: "Pattern", Value: s})
}

// MarshalJSON always fails: functions have no serialized form.
func (f Function) MarshalJSON() ([]byte, error) {
	return nil, &TypeError{Func: "json", Got: f.Type()}
}

// Revive decodes JSON produced by marshaling a Value, restoring tagged
// numbers, matrices, and patterns to their original kinds. Plain JSON
// numbers become floats, and arrays become lists.
func Revive(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return revive(v)
}

func revive(v any) (Value, error) {
	switch v := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, &NumberError{Text: string(v), Kind: KindFloat}
		}
		return Float(f), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case []any:
		r := make(List, len(v))
		for i, x := range v {
			y, err := revive(x)
			if err != nil {
				return nil, err
			}
			r[i] = y
		}
		return r, nil
	case map[string]any:
		return reviveObject(v)
	case nil:
		return nil, &TypeError{Func: "revive", Got: "null"}
	}
	return nil, &TypeError{Func: "revive", Got: fmt.Sprintf("%T", v)}
}

func reviveObject(obj map[string]any) (Value, error) {
	typ, _ := obj["type"].(string)
	switch typ {
	case "Float", "Decimal", "Rational":
		j := numberJSON{Type: typ}
		j.Value, _ = obj["value"].(string)
		if d, ok := obj["digits"].(json.Number); ok {
			n, err := strconv.ParseUint(string(d), 10, 0)
			if err != nil {
				return nil, &NumberError{Text: string(d), Kind: KindDecimal}
			}
			j.Digits = uint(n)
		}
		return val(j.number())
	case "Matrix":
		rows, _ := obj["rows"].([]any)
		m := make([][]Value, len(rows))
		for i, row := range rows {
			r, err := revive(row)
			if err != nil {
				return nil, err
			}
			l, ok := r.(List)
			if !ok {
				return nil, &TypeError{Func: "revive", Got: typeName(r)}
			}
			m[i] = l
		}
		r, err := NewMatrix(m)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "Pattern":
		s, _ := obj["value"].(string)
		p, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, &TypeError{Func: "revive", Got: "object"}
}
