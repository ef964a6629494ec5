package numexpr_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/zephyrtronium/numexpr"
)

func TestRegistryIsolation(t *testing.T) {
	a := numexpr.NewContext(numexpr.ImportFunc("nargin", nargin{}))
	b := numexpr.NewContext()
	if _, err := a.EvalString("nargin(1, 2)"); err != nil {
		t.Errorf("nargin missing from the context that imported it: %v", err)
	}
	if _, err := b.EvalString("nargin(1, 2)"); !is[*numexpr.NameError](err) {
		t.Errorf("nargin leaked into another context: %v", err)
	}
	// Clones get their own copy.
	c := a.Clone(numexpr.ImportFunc("nargin", nil))
	if _, err := c.EvalString("nargin(1, 2)"); !is[*numexpr.NameError](err) {
		t.Errorf("nargin wasn't removed from the clone: %v", err)
	}
	if _, err := a.EvalString("nargin(1, 2)"); err != nil {
		t.Errorf("removing nargin from the clone removed it from the original: %v", err)
	}
}

func TestSharedRegistry(t *testing.T) {
	r := numexpr.NewRegistry()
	a := numexpr.NewContext(numexpr.WithRegistry(r))
	b := numexpr.NewContext(numexpr.WithRegistry(r))
	if a.Registry() != r || b.Registry() != r {
		t.Fatal("contexts don't use the given registry")
	}
	r.Set("nargin", nargin{})
	for _, ctx := range []*numexpr.Context{a, b} {
		v, err := ctx.EvalString("nargin(1, 2, 3)")
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != "3" {
			t.Errorf("wrong result: want 3, got %v", v)
		}
	}
}

func TestEmptyRegistry(t *testing.T) {
	ctx := numexpr.NewContext(numexpr.WithRegistry(numexpr.EmptyRegistry()))
	if _, err := ctx.EvalString("sqrt(4)"); !is[*numexpr.NameError](err) {
		t.Errorf("empty registry has sqrt: %v", err)
	}
	// Operators don't need the registry.
	v, err := ctx.EvalString("1 + 2 * 3")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "7" {
		t.Errorf("wrong result: want 7, got %v", v)
	}
	if names := ctx.Registry().Names(); len(names) != 0 {
		t.Errorf("empty registry has names %q", names)
	}
}

func TestRegistryNames(t *testing.T) {
	names := numexpr.NewRegistry().Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names aren't sorted: %q", names)
	}
	want := []string{"add", "divide", "filter", "map", "multiply", "pi", "pow", "std", "subtract", "variance"}
	for _, w := range want {
		k := sort.SearchStrings(names, w)
		if k >= len(names) || names[k] != w {
			t.Errorf("missing %q", w)
		}
	}
}

func TestImport(t *testing.T) {
	answer := numexpr.Niladic(func(ctx *numexpr.Context) (numexpr.Value, error) {
		return numexpr.Float(42), nil
	})
	hyp := numexpr.Dyadic("hyp", func(ctx *numexpr.Context, x, y numexpr.Number) (numexpr.Value, error) {
		return numexpr.Float(x.Float64()*x.Float64() + y.Float64()*y.Float64()), nil
	})
	ctx := numexpr.NewContext(numexpr.Import(map[string]numexpr.Func{"answer": answer, "hyp": hyp}))
	cases := []struct {
		src  string
		want string
	}{
		{"answer", "42"},
		{"answer()", "42"},
		{"hyp(3, 4)", "25"},
		{"hyp([1, 2], 2)", "[5, 8]"},
	}
	for _, c := range cases {
		v, err := ctx.EvalString(c.src)
		if err != nil {
			t.Errorf("%q failed: %v", c.src, err)
			continue
		}
		if v.String() != c.want {
			t.Errorf("%q gave wrong result: want %s, got %v", c.src, c.want, v)
		}
	}
	if _, err := ctx.EvalString("hyp(1)"); !is[*numexpr.ArityError](err) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestVariadicArity(t *testing.T) {
	cases := []struct {
		min, max int
		n        int
		ok       bool
	}{
		{0, 0, 0, true},
		{0, 0, 1, false},
		{1, 3, 0, false},
		{1, 3, 1, true},
		{1, 3, 3, true},
		{1, 3, 4, false},
		{2, -1, 1, false},
		{2, -1, 100, true},
	}
	for _, c := range cases {
		f := numexpr.Variadic(c.min, c.max, func(*numexpr.Context, []numexpr.Value) (numexpr.Value, error) { return nil, nil })
		if got := f.CanCall(c.n); got != c.ok {
			t.Errorf("Variadic(%d, %d).CanCall(%d): want %t, got %t", c.min, c.max, c.n, c.ok, got)
		}
	}
}

func TestFuncErrorPassthrough(t *testing.T) {
	sentinel := errors.New("sentinel")
	fail := numexpr.Variadic(0, -1, func(*numexpr.Context, []numexpr.Value) (numexpr.Value, error) {
		return nil, sentinel
	})
	ctx := numexpr.NewContext(numexpr.ImportFunc("fail", fail))
	if _, err := ctx.EvalString("1 + fail(2)"); !errors.Is(err, sentinel) {
		t.Errorf("wrong error: %v", err)
	}
	if _, err := ctx.Chain(numexpr.Float(1)).Then("fail").Resolve(); !errors.Is(err, sentinel) {
		t.Errorf("wrong error from chain: %v", err)
	}
}
