package numexpr_test

import (
	"reflect"
	"testing"

	"github.com/zephyrtronium/numexpr"
)

func TestScope(t *testing.T) {
	root := numexpr.NewScope(nil)
	root.Set("a", numexpr.Float(1))
	root.Set("b", numexpr.Float(2))
	child := root.Child()
	child.Set("b", numexpr.Float(3))
	child.Set("c", numexpr.Float(4))

	if child.Parent() != root || root.Parent() != nil {
		t.Error("wrong parents")
	}
	cases := []struct {
		s    *numexpr.Scope
		name string
		want string
	}{
		{root, "a", "1"},
		{root, "b", "2"},
		{root, "c", ""},
		{child, "a", "1"},
		{child, "b", "3"},
		{child, "c", "4"},
		{child, "d", ""},
	}
	for _, c := range cases {
		v, ok := c.s.Get(c.name)
		if c.want == "" {
			if ok {
				t.Errorf("%s should be unbound but is %v", c.name, v)
			}
			continue
		}
		if !ok || v.String() != c.want {
			t.Errorf("%s should be %s but is %v", c.name, c.want, v)
		}
	}

	all := child.All()
	if len(all) != 3 || all["b"].String() != "3" {
		t.Errorf("wrong bindings: %v", all)
	}
	if names := child.Names(); !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("wrong names: %q", names)
	}

	child.Delete("b")
	if v, _ := child.Get("b"); v == nil || v.String() != "2" {
		t.Errorf("deleting b should unshadow the parent's, but b is %v", v)
	}
	child.Clear()
	if _, ok := child.Get("c"); ok {
		t.Error("c survived clear")
	}
	if _, ok := child.Get("a"); !ok {
		t.Error("clearing the child cleared the parent")
	}
}

func TestScopeAssignment(t *testing.T) {
	ctx := numexpr.NewContext()
	s := ctx.Scope()
	if _, err := ctx.EvalString("f = 3"); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Get("f"); !ok || v.String() != "3" {
		t.Errorf("f should be 3 but is %v", v)
	}
	s.Clear()
	if _, err := ctx.EvalString("f"); !is[*numexpr.NameError](err) {
		t.Errorf("f survived clear: %v", err)
	}
}
