package numexpr

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	// name is the literal text of numbers and strings, the identifier of
	// names, calls, assignments, and function definitions, and the operator
	// of unary and binary nodes.
	name string
	// pos is the rune offset of the token that introduced the node.
	pos int

	left  *node
	right *node
	// args holds call arguments, list and matrix elements, range parts,
	// conditional branches, function parameters, and block statements.
	args []*node
	// grouped marks a range that was enclosed in parentheses, so it cannot
	// absorb another part.
	grouped bool
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // name is the literal
	nodeStr  // name is the decoded contents
	nodeName // lookup(name)

	nodeCall   // call name with args
	nodeList   // args are elements
	nodeMatrix // args are nodeList rows
	nodeRange  // args are start, end or start, step, end
	nodeCond   // args are condition, then, else
	nodeAssign // bind name to left
	nodeFunc   // define name with args as nodeName params and left as body
	nodeBlock  // args are statements

	nodeNeg  // -left
	nodeNop  // +left
	nodeFact // left!

	nodeAdd // left + right
	nodeSub // left - right
	nodeMul // left * right
	nodeDiv // left / right
	nodeMod // left % right
	nodePow // left ^ right

	nodeEq // left == right
	nodeNe // left != right
	nodeLt // left < right
	nodeLe // left <= right
	nodeGt // left > right
	nodeGe // left >= right
)

var nodeKindNames = [...]string{
	nodeNone:   "None",
	nodeNum:    "Num",
	nodeStr:    "Str",
	nodeName:   "Name",
	nodeCall:   "Call",
	nodeList:   "List",
	nodeMatrix: "Matrix",
	nodeRange:  "Range",
	nodeCond:   "Cond",
	nodeAssign: "Assign",
	nodeFunc:   "Func",
	nodeBlock:  "Block",
	nodeNeg:    "Neg",
	nodeNop:    "Nop",
	nodeFact:   "Fact",
	nodeAdd:    "Add",
	nodeSub:    "Sub",
	nodeMul:    "Mul",
	nodeDiv:    "Div",
	nodeMod:    "Mod",
	nodePow:    "Pow",
	nodeEq:     "Eq",
	nodeNe:     "Ne",
	nodeLt:     "Lt",
	nodeLe:     "Le",
	nodeGt:     "Gt",
	nodeGe:     "Ge",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

// opText gives the source text of operator node kinds.
var opText = map[nodeKind]string{
	nodeAdd:  "+",
	nodeSub:  "-",
	nodeMul:  "*",
	nodeDiv:  "/",
	nodeMod:  "%",
	nodePow:  "^",
	nodeEq:   "==",
	nodeNe:   "!=",
	nodeLt:   "<",
	nodeLe:   "<=",
	nodeGt:   ">",
	nodeGe:   ">=",
	nodeNeg:  "-",
	nodeNop:  "+",
	nodeFact: "!",
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

// fmt writes n fully parenthesized so that the result parses to the same
// tree. If alt is true, multiplication and division use × and ÷.
func (n *node) fmt(b *strings.Builder, alt bool) {
	switch n.kind {
	case nodeBlock:
		// Statements can't be parenthesized.
		for i, s := range n.args {
			if i > 0 {
				b.WriteString("; ")
			}
			s.fmt(b, alt)
		}
		return
	case nodeList:
		b.WriteByte('[')
		fmtlist(b, n.args, ", ", alt)
		b.WriteByte(']')
		return
	case nodeMatrix:
		b.WriteByte('[')
		for i, row := range n.args {
			if i > 0 {
				b.WriteString("; ")
			}
			fmtlist(b, row.args, ", ", alt)
		}
		b.WriteByte(']')
		return
	}
	b.WriteByte('(')
	defer b.WriteByte(')')
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, alt)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, alt)
		}
		b.WriteByte('$')
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeStr:
		b.WriteString(strconv.Quote(n.name))
	case nodeCall:
		b.WriteString(n.name)
		b.WriteByte('(')
		fmtlist(b, n.args, ", ", alt)
		b.WriteByte(')')
	case nodeRange:
		fmtlist(b, n.args, ":", alt)
	case nodeCond:
		n.args[0].fmt(b, alt)
		b.WriteString(" ? ")
		n.args[1].fmt(b, alt)
		b.WriteString(" : ")
		n.args[2].fmt(b, alt)
	case nodeAssign:
		b.WriteString(n.name)
		b.WriteString(" = ")
		n.left.fmt(b, alt)
	case nodeFunc:
		b.WriteString(n.name)
		b.WriteByte('(')
		for i, p := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.name)
		}
		b.WriteString(") = ")
		n.left.fmt(b, alt)
	case nodeNeg, nodeNop:
		b.WriteString(opText[n.kind])
		n.left.fmt(b, alt)
	case nodeFact:
		n.left.fmt(b, alt)
		b.WriteByte('!')
	default:
		op, ok := opText[n.kind]
		if !ok {
			panic("numexpr: invalid node kind " + n.kind.String() + " after writing " + b.String())
		}
		if alt {
			switch n.kind {
			case nodeMul:
				op = "×"
			case nodeDiv:
				op = "÷"
			}
		}
		n.left.fmt(b, alt)
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		n.right.fmt(b, alt)
	}
}

func fmtlist(b *strings.Builder, nodes []*node, sep string, alt bool) {
	for i, a := range nodes {
		if i > 0 {
			b.WriteString(sep)
		}
		a.fmt(b, alt)
	}
}

// equal reports whether two trees are structurally identical. Positions and
// grouping are ignored.
func (n *node) equal(m *node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.kind != m.kind || n.name != m.name || len(n.args) != len(m.args) {
		return false
	}
	if !n.left.equal(m.left) || !n.right.equal(m.right) {
		return false
	}
	for i := range n.args {
		if !n.args[i].equal(m.args[i]) {
			return false
		}
	}
	return true
}

// children lists the subtrees of n in evaluation order.
func (n *node) children() []*node {
	var r []*node
	r = append(r, n.args...)
	if n.left != nil {
		r = append(r, n.left)
	}
	if n.right != nil {
		r = append(r, n.right)
	}
	return r
}

// Node is a read-only view of a node in a parsed expression.
type Node struct {
	n *node
}

// Type names the kind of node: "Constant", "String", "Symbol", "Call",
// "List", "Matrix", "Range", "Conditional", "Assign", "Function", "Block",
// "Unary", or "Operator".
func (n Node) Type() string {
	switch n.n.kind {
	case nodeNum:
		return "Constant"
	case nodeStr:
		return "String"
	case nodeName:
		return "Symbol"
	case nodeCall:
		return "Call"
	case nodeList:
		return "List"
	case nodeMatrix:
		return "Matrix"
	case nodeRange:
		return "Range"
	case nodeCond:
		return "Conditional"
	case nodeAssign:
		return "Assign"
	case nodeFunc:
		return "Function"
	case nodeBlock:
		return "Block"
	case nodeNeg, nodeNop, nodeFact:
		return "Unary"
	default:
		return "Operator"
	}
}

// Name returns the literal text of a constant or string, the name of a
// symbol, call, assignment, or function definition, or the operator of a
// unary or binary node.
func (n Node) Name() string {
	if op, ok := opText[n.n.kind]; ok {
		return op
	}
	return n.n.name
}

// Pos returns the position of the token that introduced the node.
func (n Node) Pos() int {
	return n.n.pos
}

// Children returns views of the node's direct subtrees. The parameters of a
// function definition are included as symbols before its body.
func (n Node) Children() []Node {
	c := n.n.children()
	r := make([]Node, len(c))
	for i, x := range c {
		r[i] = Node{x}
	}
	return r
}

func (n Node) String() string {
	return n.n.String()
}

// Root returns a view of the root node of the expression.
func (e *Expr) Root() Node {
	return Node{e.n}
}

// Walk calls f for each node of the expression in depth-first pre-order. If f
// returns false, the children of that node are skipped.
func (e *Expr) Walk(f func(Node) bool) {
	var walk func(n *node)
	walk = func(n *node) {
		if !f(Node{n}) {
			return
		}
		for _, c := range n.children() {
			walk(c)
		}
	}
	walk(e.n)
}

// Filter returns the nodes of the expression for which f returns true, in
// depth-first pre-order.
func (e *Expr) Filter(f func(Node) bool) []Node {
	var r []Node
	e.Walk(func(n Node) bool {
		if f(n) {
			r = append(r, n)
		}
		return true
	})
	return r
}
