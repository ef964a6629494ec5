package numexpr

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Program = Stmt { (';' | '\n') Stmt }
// Stmt = Expr | empty
// Expr = num | str | name | Call | List | Matrix | Range | Cond | Assign | FuncDef
//      | Unary | Fact | Binary | '(' Expr ')'
// Call = name '(' [ Expr { ',' Expr } ] ')'
// List = '[' [ Expr { ',' Expr } ] ']'
// Matrix = '[' Expr { ',' Expr } { ';' Expr { ',' Expr } } ']'
// Range = Expr ':' Expr [ ':' Expr ]
// Cond = Expr '?' Expr ':' Expr
// Assign = name '=' Expr
// FuncDef = name '(' [ name { ',' name } ] ')' '=' Expr
// Unary = ('-' | '+') Expr
// Fact = Expr '!'
// Binary = Expr op Expr | Expr Expr
// op = '+' | '-' | '*' | '×' | '/' | '÷' | '%' | '^' | '==' | '!=' | '<' | '<=' | '>' | '>='

// Expr is a parsed expression that can be evaluated with a context.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the list of free variable names used in the expression.
	names []string
}

// Parse parses an expression or a program of statements separated by
// semicolons or newlines so it can be evaluated with a context. The given
// options are applied in order.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	var p parsectx
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	scan := lex(src, p.ident)
	var stmts []*node
	for {
		p.stmt = true
		n, err := parseterm(scan, &p, exprprec)
		if err != nil {
			return nil, err
		}
		if n != nil {
			stmts = append(stmts, n)
		}
		tok := scan.must()
		if tok.kind == tokenEOF {
			if len(stmts) == 0 {
				return nil, &EmptyExpressionError{Col: 1}
			}
			break
		}
		if tok.kind != tokenSep || tok.text == "," {
			return nil, itShouldNotHaveEndedThisWay(tok, -1)
		}
	}
	ex := Expr{n: stmts[0]}
	if len(stmts) > 1 {
		ex.n = &node{kind: nodeBlock, pos: stmts[0].pos, args: stmts}
	}
	ex.names = freevars(ex.n)
	return &ex, nil
}

// ParseString is a shortcut to parse a string.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// freevars lists the names that an expression looks up without first
// binding them.
func freevars(root *node) []string {
	seen := make(map[string]bool)
	bound := make(map[string]bool)
	var walk func(n *node, local map[string]bool)
	walk = func(n *node, local map[string]bool) {
		switch n.kind {
		case nodeName:
			if !local[n.name] && !bound[n.name] {
				seen[n.name] = true
			}
			return
		case nodeAssign:
			walk(n.left, local)
			if local == nil {
				bound[n.name] = true
			}
			return
		case nodeFunc:
			params := make(map[string]bool, len(local)+len(n.args))
			for k := range local {
				params[k] = true
			}
			for _, a := range n.args {
				params[a.name] = true
			}
			walk(n.left, params)
			if local == nil {
				bound[n.name] = true
			}
			return
		}
		for _, c := range n.children() {
			walk(c, local)
		}
	}
	walk(root, nil)
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next(p.depth == 0)
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenStr, tokenOpen:
			// (parsed) x -> (parsed) * (x)
			// (parsed) x^(expr) -> (parsed) * (x^(expr))
			// a^(parsed) x -> (a^(parsed)) * (x)
			// 2 (expr) -> (2) * (expr)
			prec := termprec
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			if p.noimpl {
				return nil, &SyntaxError{Col: tok.pos, Msg: "unexpected " + describe(tok)}
			}
			scan.push(tok)
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, pos: tok.pos, left: n, right: rhs}
		case tokenOp:
			var ok bool
			n, ok, err = parseop(scan, p, until, n, tok)
			if err != nil {
				return nil, err
			}
			if !ok {
				return n, nil
			}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("numexpr: unknown token: " + tok.String())
		}
	}
}

// parseop handles an operator following a complete term n. If the operator
// binds less tightly than until, parseop pushes it back and returns n with
// false.
func parseop(scan *lexer, p *parsectx, until operator, n *node, tok lexToken) (*node, bool, error) {
	switch tok.text {
	case "!":
		if !postfixprec.moreBinding(until) {
			scan.push(tok)
			return n, false, nil
		}
		return &node{kind: nodeFact, pos: tok.pos, left: n}, true, nil
	case "?":
		if !condprec.moreBinding(until) {
			scan.push(tok)
			return n, false, nil
		}
		p.cond++
		then, err := parseterm(scan, p, condprec)
		p.cond--
		if err != nil {
			return nil, false, err
		}
		if then == nil {
			return nil, false, needterm(scan)
		}
		colon := scan.must()
		if colon.kind != tokenOp || colon.text != ":" {
			scan.push(colon)
			return nil, false, &SyntaxError{Col: colon.pos, Msg: "expected ':' in conditional, found " + describe(colon)}
		}
		els, err := parseterm(scan, p, condprec)
		if err != nil {
			return nil, false, err
		}
		if els == nil {
			return nil, false, needterm(scan)
		}
		return &node{kind: nodeCond, pos: tok.pos, args: []*node{n, then, els}}, true, nil
	case "=":
		if !assignprec.moreBinding(until) {
			scan.push(tok)
			return n, false, nil
		}
		rhs, err := parseterm(scan, p, assignprec)
		if err != nil {
			return nil, false, err
		}
		if rhs == nil {
			return nil, false, needterm(scan)
		}
		n, err = assignment(n, rhs, tok)
		return n, err == nil, err
	case ":":
		if p.cond > 0 || !rangeprec.moreBinding(until) {
			scan.push(tok)
			return n, false, nil
		}
		rhs, err := parseterm(scan, p, rangeprec)
		if err != nil {
			return nil, false, err
		}
		if rhs == nil {
			return nil, false, needterm(scan)
		}
		if n.kind == nodeRange && !n.grouped {
			if len(n.args) == 3 {
				return nil, false, &SyntaxError{Col: tok.pos, Msg: "range has too many parts"}
			}
			// a:step then :b
			n.args = append(n.args, rhs)
			return n, true, nil
		}
		return &node{kind: nodeRange, pos: tok.pos, args: []*node{n, rhs}}, true, nil
	}
	prec := binop(tok.text)
	if prec.op == nodeNone {
		return nil, false, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
	}
	if !prec.moreBinding(until) {
		scan.push(tok)
		return n, false, nil
	}
	rhs, err := parseterm(scan, p, prec)
	if err != nil {
		return nil, false, err
	}
	if rhs == nil {
		return nil, false, needterm(scan)
	}
	return &node{kind: prec.op, pos: tok.pos, left: n, right: rhs}, true, nil
}

// assignment builds an assignment or function definition from its target.
func assignment(lhs, rhs *node, tok lexToken) (*node, error) {
	switch lhs.kind {
	case nodeName:
		return &node{kind: nodeAssign, name: lhs.name, pos: lhs.pos, left: rhs}, nil
	case nodeCall:
		seen := make(map[string]bool, len(lhs.args))
		for _, a := range lhs.args {
			if a.kind != nodeName {
				return nil, &SyntaxError{Col: a.pos, Msg: "function parameter must be a name"}
			}
			if seen[a.name] {
				return nil, &SyntaxError{Col: a.pos, Msg: "duplicate parameter " + strconv.Quote(a.name)}
			}
			seen[a.name] = true
		}
		return &node{kind: nodeFunc, name: lhs.name, pos: lhs.pos, args: lhs.args, left: rhs}, nil
	default:
		return nil, &SyntaxError{Col: tok.pos, Msg: "cannot assign to " + lhs.String()}
	}
}

// needterm creates the error for a missing operand, using the token that
// ended the empty subexpression.
func needterm(scan *lexer) error {
	end := scan.must()
	scan.push(end)
	return &EmptyExpressionError{Col: end.pos, End: end.text}
}

// describe names a token for error messages.
func describe(tok lexToken) string {
	switch tok.kind {
	case tokenEOF:
		return "end of input"
	case tokenStr:
		return "string " + strconv.Quote(tok.text)
	case tokenSep:
		if tok.text == "\n" {
			return "newline"
		}
	}
	return strconv.Quote(tok.text)
}

// parselhs parses the first component of a term. I.e., operators are unary,
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer, p *parsectx, until operator) (*node, error) {
	stmt := p.stmt
	p.stmt = false
	// Newlines are whitespace where a term is expected.
	tok, err := scan.next(false)
	if err != nil {
		return nil, err
	}
	var n *node
	switch tok.kind {
	case tokenNum:
		n = &node{kind: nodeNum, name: tok.text, pos: tok.pos}
	case tokenStr:
		n = &node{kind: nodeStr, name: tok.text, pos: tok.pos}
	case tokenIdent:
		nxt, err := scan.next(p.depth == 0)
		if err != nil {
			return nil, err
		}
		if nxt.kind != tokenOpen || nxt.text != "(" {
			scan.push(nxt)
			n = &node{kind: nodeName, name: tok.text, pos: tok.pos}
			break
		}
		args, err := parseseq(scan, p, nxt, false)
		if err != nil {
			return nil, err
		}
		n = &node{kind: nodeCall, name: tok.text, pos: tok.pos}
		if len(args) > 0 {
			n.args = args[0]
		}
	case tokenOp:
		// unary operator
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			return nil, needterm(scan)
		}
		n = &node{kind: prec.op, pos: tok.pos, left: rhs}
	case tokenOpen:
		if tok.text == "[" {
			rows, err := parseseq(scan, p, tok, true)
			if err != nil {
				return nil, err
			}
			n = listnode(rows, tok.pos)
			break
		}
		p.depth++
		cond := p.cond
		p.cond = 0
		rhs, err := parseterm(scan, p, exprprec)
		p.depth--
		p.cond = cond
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != ")" {
			return nil, itShouldNotHaveEndedThisWay(end, rightbracket(tok.text))
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		if rhs.kind == nodeRange {
			rhs.grouped = true
		}
		n = rhs
	case tokenClose:
		// This might be part of an empty call or list, so just let the caller
		// decide what to do.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		if stmt && tok.text == ";" {
			scan.push(tok)
			return nil, nil
		}
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		if stmt {
			scan.push(tok)
			return nil, nil
		}
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("numexpr: unknown token: " + tok.String())
	}
	return n, nil
}

// listnode creates a list or matrix literal from parsed rows.
func listnode(rows [][]*node, pos int) *node {
	switch len(rows) {
	case 0:
		return &node{kind: nodeList, pos: pos}
	case 1:
		return &node{kind: nodeList, pos: pos, args: rows[0]}
	}
	n := &node{kind: nodeMatrix, pos: pos, args: make([]*node, len(rows))}
	for i, row := range rows {
		n.args[i] = &node{kind: nodeList, pos: row[0].pos, args: row}
	}
	return n
}

// parseseq parses a bracketed sequence of zero or more comma-separated
// expressions after its open bracket. If rows is true, semicolons separate
// rows; otherwise they are errors. The close bracket is consumed.
func parseseq(scan *lexer, p *parsectx, open lexToken, rows bool) ([][]*node, error) {
	match := rightbracket(open.text)
	p.depth++
	cond := p.cond
	p.cond = 0
	defer func() {
		p.depth--
		p.cond = cond
	}()
	var out [][]*node
	var row []*node
	for {
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			// As a special case, reporting mismatched brackets is more helpful
			// than empty expression, if that's what we'd do here.
			if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open.text}
			}
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			if end.text != closebrackets[match] {
				return nil, &BracketError{Col: end.pos, Left: open.text, Right: end.text}
			}
			if rhs == nil {
				// No expression parsed.
				// f() and [] are allowed, but f(a,) isn't.
				if len(row) != 0 || len(out) != 0 {
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, nil
			}
			return append(out, append(row, rhs)), nil
		case tokenSep:
			if rhs == nil {
				return nil, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			row = append(row, rhs)
			switch {
			case end.text == ",":
			case end.text == ";" && rows:
				out = append(out, row)
				row = nil
			default:
				return nil, &SeparatorError{Col: end.pos, Sep: end.text}
			}
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: open.text, Right: ""}
		default:
			panic("numexpr: parseseq ended on non-end token " + end.String())
		}
	}
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("numexpr: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket rune index that
// the expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a call or list.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenOp:
		// A colon with no conditional to close.
		return &SyntaxError{Col: tok.pos, Msg: "unexpected " + describe(tok)}
	default:
		panic("numexpr: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the names of free variables in the expression, i.e. those
// which evaluation looks up in the scope without the expression having
// assigned them first.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// String creates a string representation of the parsed expression, with
// parentheses grouping each term. The result parses to an equal expression.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, true)
	return b.String()
}

// Equal reports whether e and f are structurally identical.
func (e *Expr) Equal(f *Expr) bool {
	return e.n.equal(f.n)
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "==":
		return operator{-10, false, nodeEq}
	case "!=":
		return operator{-10, false, nodeNe}
	case "<":
		return operator{-10, false, nodeLt}
	case "<=":
		return operator{-10, false, nodeLe}
	case ">":
		return operator{-10, false, nodeGt}
	case ">=":
		return operator{-10, false, nodeGe}
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×":
		return operator{5, false, nodeMul}
	case "/", "÷":
		return operator{5, false, nodeDiv}
	case "%":
		return operator{5, false, nodeMod}
	case "^":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{20, true, nodeNop}
	case "-":
		return operator{20, true, nodeNeg}
	default:
		return operator{}
	}
}

var (
	// termprec is the default precedence for parsing terms. Its prec
	// should match that of multiplication.
	termprec = operator{5, true, nodeMul}
	// assignprec, condprec, and rangeprec are the precedences of the
	// operators that build nodes other than simple binary operations.
	assignprec = operator{-20, true, nodeAssign}
	condprec   = operator{-15, true, nodeCond}
	rangeprec  = operator{-5, false, nodeRange}
	// postfixprec is the precedence of factorial.
	postfixprec = operator{25, false, nodeFact}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone}
)
