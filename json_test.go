package numexpr_test

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/zephyrtronium/numexpr"
)

func TestJSONRoundTrip(t *testing.T) {
	third, _ := numexpr.Fraction(1, 3)
	frac, _ := numexpr.Fraction(16, 21)
	dec, _ := third.ToDecimal(30)
	pat, _ := numexpr.CompilePattern(`^[0-9]+$`)
	mat, _ := numexpr.NewMatrix([][]numexpr.Value{
		{numexpr.Float(1), frac},
		{dec, numexpr.Float(-2)},
	})
	cases := []struct {
		name string
		v    numexpr.Value
	}{
		{"float", numexpr.Float(0.1)},
		{"float-big", numexpr.Float(1e300)},
		{"float-inf", numexpr.Float(math.Inf(-1))},
		{"decimal", dec},
		{"decimal-big", numexpr.Decimal(new(big.Float).SetFloat64(12345.5), 8)},
		{"rational", frac},
		{"rational-int", numexpr.Rat(big.NewRat(-6, 3))},
		{"bool", numexpr.Bool(true)},
		{"string", numexpr.String("π")},
		{"list", numexpr.List{numexpr.Float(1), frac, numexpr.String("a"), numexpr.List{dec}}},
		{"matrix", mat},
		{"pattern", pat},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			b, err := json.Marshal(c.v)
			if err != nil {
				t.Fatalf("couldn't marshal %v: %v", c.v, err)
			}
			r, err := numexpr.Revive(b)
			if err != nil {
				t.Fatalf("couldn't revive %s: %v", b, err)
			}
			if r.Type() != c.v.Type() {
				t.Errorf("%s revived as %s, want %s", b, r.Type(), c.v.Type())
			}
			if r.String() != c.v.String() {
				t.Errorf("%s revived as %v, want %v", b, r, c.v)
			}
			if x, ok := c.v.(numexpr.Number); ok {
				var y numexpr.Number
				if err := json.Unmarshal(b, &y); err != nil {
					t.Fatalf("couldn't unmarshal %s: %v", b, err)
				}
				if y.Kind() != x.Kind() || y.Digits() != x.Digits() || y.String() != x.String() {
					t.Errorf("%s unmarshaled as %v (%v, %d digits)", b, y, y.Kind(), y.Digits())
				}
			}
		})
	}
}

func TestJSONForm(t *testing.T) {
	frac, _ := numexpr.Fraction(3, 4)
	cases := []struct {
		v    numexpr.Value
		want string
	}{
		{numexpr.Float(1), `{"type":"Float","value":"1"}`},
		{frac, `{"type":"Rational","value":"3/4"}`},
		{numexpr.Decimal(big.NewFloat(2.5), 5), `{"type":"Decimal","value":"2.5","digits":5}`},
		{numexpr.List{numexpr.Float(1), numexpr.String("a"), numexpr.Bool(false)}, `[{"type":"Float","value":"1"},"a",false]`},
	}
	for _, c := range cases {
		b, err := json.Marshal(c.v)
		if err != nil {
			t.Errorf("couldn't marshal %v: %v", c.v, err)
			continue
		}
		if string(b) != c.want {
			t.Errorf("wrong JSON for %v:\nwant %s\ngot  %s", c.v, c.want, b)
		}
	}
}

func TestJSONErrors(t *testing.T) {
	ctx := numexpr.NewContext()
	f := mustEval(t, ctx, "square")
	if _, err := json.Marshal(f); err == nil {
		t.Error("marshaling a function succeeded")
	}
	bad := []string{
		`null`,
		`{"type":"Widget","value":"1"}`,
		`{"type":"Rational","value":"1/0"}`,
		`{"type":"Float","value":"one"}`,
		`{"type":"Matrix","rows":[[1, 2], [3]]}`,
		`{"type":"Pattern","value":"("}`,
		`[1, 2`,
	}
	for _, s := range bad {
		if v, err := numexpr.Revive([]byte(s)); err == nil {
			t.Errorf("reviving %s gave %v and no error", s, v)
		}
	}
}

func TestReviveRaw(t *testing.T) {
	v, err := numexpr.Revive([]byte(`[1.5, "x", true, {"type":"Rational","value":"2/4"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if s := v.String(); s != `[1.5, "x", true, 1/2]` {
		t.Errorf("wrong value: %s", s)
	}
	var x numexpr.Number
	if err := json.Unmarshal([]byte(`2.5`), &x); err != nil {
		t.Fatal(err)
	}
	if x.Kind() != numexpr.KindFloat || x.String() != "2.5" {
		t.Errorf("plain number unmarshaled as %v (%v)", x, x.Kind())
	}
}
