package numexpr

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// diff finds the first pre-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. If any node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind || n.name != m.name || len(n.args) != len(m.args) {
		return n, m
	}
	for i := range n.args {
		if d, e := n.args[i].diff(m.args[i]); d != nil || e != nil {
			return d, e
		}
	}
	if d, e := n.left.diff(m.left); d != nil || e != nil {
		return d, e
	}
	return n.right.diff(m.right)
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	if n == nil {
		return false
	}
	if n.kind == k {
		return true
	}
	for _, c := range n.children() {
		if c.haskind(k) {
			return true
		}
	}
	return false
}

func TestOpPrecsExist(t *testing.T) {
	for _, r := range Operators {
		switch r {
		case '!', '=', '<', '>', '?', ':':
			// Handled specially by the parser or only part of a longer
			// operator.
			continue
		}
		b := binop(string(r))
		u := unop(string(r))
		if b.op == nodeNone && u.op == nodeNone {
			t.Errorf("no operator for %c", r)
		}
	}
}

func TestTermPrecMatchesMultiplication(t *testing.T) {
	if p := binop("*").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but * has prec %d", termprec.prec, p)
	}
	if p := binop("×").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but × has prec %d", termprec.prec, p)
	}
}

func TestUnaryBindsTighterThanPow(t *testing.T) {
	if u, p := unop("-").prec, binop("^").prec; u <= p {
		t.Errorf("unary minus has prec %d but ^ has prec %d", u, p)
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(x)", "x"},
		{"multi", "(((x)))", "x"},

		{"plus", "+x", "(+(x))"},
		{"neg", "-x", "(-(x))"},
		{"negnum", "-1", "(-(1))"},
		{"add", "x+y", "((x)+(y))"},
		{"sub", "x-y", "((x)-(y))"},
		{"mul", "x*y", "((x)*(y))"},
		{"div", "x/y", "((x)/(y))"},
		{"mod", "x%y", "((x)%(y))"},
		{"pow", "x^y", "((x)^(y))"},
		{"altmul", "x×y", "x*y"},
		{"altdiv", "x÷y", "x/y"},
		{"terms", "x y", "x*y"},
		{"numparen", "2(y)", "2*y"},
		{"parenparen", "(x)(y)", "x*y"},
		{"numname", "2 x", "2*x"},
		{"str", `"a" "b"`, `("a")*("b")`},

		{"add4", "w+x+y+z", "((w+x)+y)+z"},
		{"sub4", "w-x-y-z", "((w-x)-y)-z"},
		{"mul4", "w*x*y*z", "((w*x)*y)*z"},
		{"div4", "w/x/y/z", "((w/x)/y)/z"},
		{"pow4", "w^x^y^z", "w^(x^(y^z))"},
		{"terms4", "w x y z", "w*(x*(y*z))"},

		{"negpow", "-1^n", "(-1)^n"},
		{"negpowname", "-x^2", "(-x)^2"},
		{"desc", "w^x*y+z", "((w^x)*y)+z"},
		{"asc", "w+x*y^z", "w+(x*(y^z))"},
		{"descasc", "w^x*y+z+a*b^c", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c", "w+((x*(y^(z^a)))*b)+c"},
		{"negneg", "--x", "-(-x)"},
		{"negsub", "-x-x", "(-x)-x"},
		{"powterms", "x y^z", "x*(y^z)"},
		{"powthenterm", "x^y z", "(x^y)*z"},
		{"powneg", "x^-1", "x^(-1)"},
		{"pownegpow", "x^-y^-z", "x^((-y)^(-z))"},
		{"pownegneg", "x^--y", "x^(-(-y))"},

		{"fact", "3!", "(3)!"},
		{"factneg", "-3!", "-(3!)"},
		{"factpow", "2^3!", "2^(3!)"},
		{"factmul", "2*3!", "2*(3!)"},

		{"call", "f(x)", "(f(x))"},
		{"callargs", "f(x, y+1)", "f((x), ((y)+(1)))"},
		{"callmul", "2 f(x)", "2*(f(x))"},
		{"callpow", "f(x)^2", "(f(x))^2"},

		{"eq", "x == y + 1", "x == (y+1)"},
		{"ne", "x != y", "(x)!=(y)"},
		{"lt", "x < y", "(x)<(y)"},
		{"le", "x <= -y", "x <= (-y)"},
		{"gt", "x*2 > y", "(x*2) > y"},
		{"ge", "x >= y", "(x)>=(y)"},
		{"cmpchain", "a < b == c", "(a < b) == c"},

		{"range", "1:10", "(1:10)"},
		{"rangestep", "1:2:10", "(1:2:10)"},
		{"rangeexpr", "1+1:n*2", "(1+1):(n*2)"},
		{"rangecmp", "1:3 == x", "(1:3) == x"},

		{"cond", "x > 0 ? 1 : 2", "((x > 0) ? (1) : (2))"},
		{"condright", "a ? b : c ? d : e", "a ? b : (c ? d : e)"},
		{"condnested", "a ? b ? c : d : e", "a ? (b ? c : d) : e"},
		{"condrange", "a ? (1:2) : 3:4", "a ? (1:2) : (3:4)"},
		{"condparen", "(a ? b : c) + 1", "((a ? b : c)) + 1"},

		{"assign", "x = 1 + 2", "(x = (1 + 2))"},
		{"assignright", "x = y = 3", "x = (y = 3)"},
		{"assigncond", "x = a ? b : c", "x = (a ? b : c)"},
		{"funcdef", "f(x) = x^2", "(f(x) = ((x)^(2)))"},
		{"funcdef2", "f(x, y) = x^y", "(f(x, y) = x^y)"},
		{"funcdef0", "f() = 1", "(f() = 1)"},

		{"list", "[1, 2, 3]", "[(1), (2), (3)]"},
		{"listempty", "[]", "[ ]"},
		{"listnested", "[[1, 2], [3, 4]]", "[[1,2],[3,4]]"},
		{"matrix", "[1, 2; 3, 4]", "[(1),(2);(3),(4)]"},
		{"listnl", "[1,\n2]", "[1, 2]"},
		{"listmul", "2 [1, 2]", "2*[1,2]"},

		{"block", "x = 1; x + 1", "(x = 1); ((x) + (1))"},
		{"blocknl", "x = 1\nx + 1", "x = 1; x + 1"},
		{"blockempty", ";;x;;", "x"},
		{"blockparen", "(1 +\n2)", "1 + 2"},
		{"opnl", "1 +\n2", "1 + 2"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.a)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := ParseString(c.b)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
			if !a.Equal(b) {
				t.Errorf("%q and %q parse differently according to Equal", c.a, c.b)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *node
	}{
		{
			name: "call",
			src:  "f(x)",
			n: &node{
				kind: nodeCall,
				name: "f",
				args: []*node{{kind: nodeName, name: "x"}},
			},
		},
		{
			name: "call0",
			src:  "f()",
			n:    &node{kind: nodeCall, name: "f"},
		},
		{
			name: "range3",
			src:  "1:2:3",
			n: &node{
				kind: nodeRange,
				args: []*node{
					{kind: nodeNum, name: "1"},
					{kind: nodeNum, name: "2"},
					{kind: nodeNum, name: "3"},
				},
			},
		},
		{
			name: "matrix",
			src:  "[1, 2; 3, 4]",
			n: &node{
				kind: nodeMatrix,
				args: []*node{
					{kind: nodeList, args: []*node{{kind: nodeNum, name: "1"}, {kind: nodeNum, name: "2"}}},
					{kind: nodeList, args: []*node{{kind: nodeNum, name: "3"}, {kind: nodeNum, name: "4"}}},
				},
			},
		},
		{
			name: "funcdef",
			src:  "f(x, y) = x",
			n: &node{
				kind: nodeFunc,
				name: "f",
				args: []*node{{kind: nodeName, name: "x"}, {kind: nodeName, name: "y"}},
				left: &node{kind: nodeName, name: "x"},
			},
		},
		{
			name: "assign",
			src:  "x = 'a'",
			n: &node{
				kind: nodeAssign,
				name: "x",
				left: &node{kind: nodeStr, name: "a"},
			},
		},
		{
			name: "cond",
			src:  "a ? b : c",
			n: &node{
				kind: nodeCond,
				args: []*node{{kind: nodeName, name: "a"}, {kind: nodeName, name: "b"}, {kind: nodeName, name: "c"}},
			},
		},
		{
			name: "block",
			src:  "a\nb",
			n: &node{
				kind: nodeBlock,
				args: []*node{{kind: nodeName, name: "a"}, {kind: nodeName, name: "b"}},
			},
		},
		{
			name: "inf1",
			src:  "inf",
			n:    &node{kind: nodeNum, name: "inf"},
		},
		{
			name: "inf2",
			src:  "Infinity",
			n:    &node{kind: nodeNum, name: "Infinity"},
		},
		{
			name: "inf3",
			src:  "∞",
			n:    &node{kind: nodeNum, name: "∞"},
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			d, e := a.n.diff(c.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\twant %v which has %v\n\tgot  %v which has %v from %q", c.n, e, a.n, d, c.src)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"paren", "(x)"},
		{"plus", "+x"},
		{"neg", "-x"},
		{"negnum", "-1"},
		{"add", "x+y"},
		{"sub", "x-y"},
		{"mul", "x*y"},
		{"div", "x/y"},
		{"pow", "x^y"},
		{"altmul", "x×y"},
		{"altdiv", "x÷y"},
		{"terms", "x y"},
		{"call", "f(x, y)"},
		{"call0", "f()"},
		{"str", `"a\"b" + 'c'`},

		{"add4", "w+x+y+z"},
		{"pow4", "w^x^y^z"},
		{"terms4", "w x y z"},

		{"negpow", "-1^n"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"pownegpow", "x^-y^-z"},
		{"fact", "-3!^2"},

		{"cmp", "a <= b == c"},
		{"range", "1:2:10"},
		{"rangegroup", "(1:2):3"},
		{"cond", "a ? b : c ? d : e"},
		{"assign", "x = y = 1"},
		{"funcdef", "f(x, y) = x^y"},
		{"list", "[1, [2, 3], []]"},
		{"matrix", "[1, 2; 3, 4]"},
		{"block", "x = 1\ny = 2; x + y"},

		// Cases isolated with fuzzing.
		{"parentermsplus", "2(y+z)"},
		{"mulparenterms", "x*y (z*w)"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			s := a.String()
			b, err := ParseString(s)
			if err != nil {
				t.Fatalf("%q -> %q failed to parse: %v", c.src, s, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.src, a.n, d, s, b.n, e)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		res  []string
		excl []string
	}{
		{"empty", "", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, []string{`(?i)\bend\b`}},
		{"blank", " \n\t", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, nil},
		{"emptyparen", "()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyoperand", "x*", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"emptyunary", "x*-", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"emptyarg", "f(x,)", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyassign", "x =", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, nil},
		{"left", "(x", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"right", "x)", new(BracketError), []string{`(?i)\bbracket\b`, `\)`}, nil},
		{"mismatch", "(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-mul", "x*(y]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-list", "[1, 2)", new(BracketError), []string{`(?i)\bbracket\b`, `\[`, `\)`}, nil},
		{"call-eof", "f(", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"call-mismatch", "f(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"nonunary", "*x", new(OperatorError), []string{`(?i)\bunary\b`, `(?i)\bop`, `\*`}, nil},
		{"colon", ":x", new(OperatorError), []string{`(?i)\bunary\b`, `:`}, nil},
		{"sep", "x, y", new(SeparatorError), []string{`","`}, nil},
		{"sepbrackets", "(x, y)", new(SeparatorError), []string{`","`}, nil},
		{"sepcall", "f(x; y)", new(SeparatorError), []string{`";"`}, nil},
		{"sepfirst", "f(, x)", new(SeparatorError), []string{`","`}, nil},
		{"seprepeat", "f(a,,b)", new(SeparatorError), []string{`","`}, nil},
		{"lexer", "2^exp(-$)", new(LexError), []string{`\$`}, nil},
		{"lexstr", `"abc`, new(LexError), []string{`(?i)\bstring\b`}, nil},
		{"cond-colon", "a ? b", new(SyntaxError), []string{`':'`, `(?i)\bend of input\b`}, nil},
		{"cond-stray", "a : b : c : d", new(SyntaxError), []string{`(?i)\btoo many\b`}, nil},
		{"assign-op", "x + 1 = 2", new(SyntaxError), []string{`(?i)\bcannot assign\b`}, nil},
		{"assign-num", "1 = 2", new(SyntaxError), []string{`(?i)\bcannot assign\b`}, nil},
		{"param-num", "f(1) = 2", new(SyntaxError), []string{`(?i)\bparameter\b`}, nil},
		{"param-dup", "f(x, x) = 2", new(SyntaxError), []string{`(?i)\bduplicate\b`, `"x"`}, nil},

		// Cases identified with fuzzing.
		{"op-paren", "(b*)", new(EmptyExpressionError), []string{`\)`}, nil},
		{"haskell", "(+)", new(EmptyExpressionError), []string{`\)`}, nil},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a.n)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Errorf("wrong error type from %q: want %T, got %T", c.src, c.err, err)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("error %v from %q does not unwrap to ErrSyntax", err, c.src)
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
			for _, re := range c.excl {
				if regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q matches %s", msg, re)
				}
			}
		})
	}
}

func TestParseErrorPos(t *testing.T) {
	cases := []struct {
		src string
		pos int
	}{
		{"1 + $", 6},
		{"(x", 3},
		{"x)", 2},
		{"x, y", 2},
		{"π + (1]", 7},
		{"f(1) = 2", 3},
	}
	for _, c := range cases {
		_, err := ParseString(c.src)
		var ie InputError
		if !errors.As(err, &ie) {
			t.Errorf("%q: want InputError, got %#v", c.src, err)
			continue
		}
		if ie.Pos() != c.pos {
			t.Errorf("%q: want position %d, got %d from %v", c.src, c.pos, ie.Pos(), err)
		}
	}
}

func TestParseOptions(t *testing.T) {
	t.Run("identifiers", func(t *testing.T) {
		if _, err := ParseString("☎foo"); err == nil {
			t.Error("☎foo parsed with the default classifier")
		}
		opt := Identifiers(func(r rune) bool { return IsIdentRune(r) || r == '☎' })
		a, err := ParseString("☎foo + 1", opt)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if got := a.Vars(); !reflect.DeepEqual(got, []string{"☎foo"}) {
			t.Errorf("wrong vars: %q", got)
		}
	})
	t.Run("noimplicit", func(t *testing.T) {
		if _, err := ParseString("2 x"); err != nil {
			t.Fatalf("implicit multiplication failed by default: %v", err)
		}
		_, err := ParseString("2 x", NoImplicitMul())
		if _, ok := err.(*SyntaxError); !ok {
			t.Errorf("want *SyntaxError, got %#v", err)
		}
		if _, err := ParseString("2 * x", NoImplicitMul()); err != nil {
			t.Errorf("explicit multiplication failed: %v", err)
		}
	})
	t.Run("preset", func(t *testing.T) {
		preset := ParsingPreset(NoImplicitMul())
		if _, err := ParseString("2 x", preset); err == nil {
			t.Error("preset did not disable implicit multiplication")
		}
		defer func() {
			if recover() == nil {
				t.Error("preset over non-default options did not panic")
			}
		}()
		ParseString("x", NoImplicitMul(), preset)
	})
}

func TestVars(t *testing.T) {
	cases := []struct {
		src  string
		vars []string
	}{
		{"1", nil},
		{"x + y*x", []string{"x", "y"}},
		{"f(x)", []string{"x"}},
		{"x = 1; x + y", []string{"y"}},
		{"y + x; x = 1", []string{"x", "y"}},
		{"f(x) = x + a; f(b)", []string{"a", "b"}},
		{"[z, 1:n]", []string{"n", "z"}},
		{"c ? t : e", []string{"c", "e", "t"}},
	}
	for _, c := range cases {
		a, err := ParseString(c.src)
		if err != nil {
			t.Errorf("%q failed to parse: %v", c.src, err)
			continue
		}
		if got := a.Vars(); !reflect.DeepEqual(got, c.vars) {
			t.Errorf("%q: want vars %q, got %q", c.src, c.vars, got)
		}
	}
}

func TestWalk(t *testing.T) {
	a, err := ParseString("f(x) = sqrt(x^2 + 1); f(3)")
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	a.Walk(func(n Node) bool {
		types = append(types, n.Type()+":"+n.Name())
		return true
	})
	want := []string{
		"Block:",
		"Function:f",
		"Symbol:x",
		"Call:sqrt",
		"Operator:+",
		"Operator:^",
		"Symbol:x",
		"Constant:2",
		"Constant:1",
		"Call:f",
		"Constant:3",
	}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("wrong walk:\nwant %q\ngot  %q", want, types)
	}
	calls := a.Filter(func(n Node) bool { return n.Type() == "Call" })
	if len(calls) != 2 || calls[0].Name() != "sqrt" || calls[1].Name() != "f" {
		t.Errorf("wrong filtered calls: %v", calls)
	}
	if got := fmt.Sprint(calls[1]); got != "(f((3)))" {
		t.Errorf("wrong node string: %q", got)
	}
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "w^x*y+z+a*b^c"},
		{"descasc-parens", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"ascdesc-parens", "w+((x*(y^(z^a)))*b)+c"},
		{"descasc-nums", "1^1.1*1.1e1+1.1e-1+.1*inf^∞"},
		{"ascdesc-nums", "1+1.1*1.1e1^1.1e-1^.1*inf+∞"},
		{"call", "f(a, b, c, d, e)"},
		{"matrix", "[1, 2, 3; 4, 5, 6; 7, 8, 9]"},
		{"program", "f(x) = x > 1 ? x*f(x-1) : 1\nf(10)"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			var src strings.Reader
			for i := 0; i < b.N; i++ {
				src.Reset(c.src)
				Parse(&src)
			}
		})
	}
}
