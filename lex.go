package numexpr

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a numeric literal.
	tokenNum
	// tokenStr is a string literal. Its text is the decoded contents.
	tokenStr
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is an operator.
	tokenOp
	// tokenOpen is an open bracket, ( or [.
	tokenOpen
	// tokenClose is a close bracket, ) or ].
	tokenClose
	// tokenSep is a separator: a comma, a semicolon, or a newline.
	tokenSep
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenEOF:
		return "EOF"
	case tokenNum:
		return "Num"
	case tokenStr:
		return "Str"
	case tokenIdent:
		return "Ident"
	case tokenOp:
		return "Op"
	case tokenOpen:
		return "Open"
	case tokenClose:
		return "Close"
	case tokenSep:
		return "Sep"
	}
	return "tokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Operators contains the runes which are considered to be operators. Of
// these, =, !, <, and > may also begin a two-rune operator ending in =.
const Operators = "+-*/%^×÷!=<>?:"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in byte position k in OpenBrackets is
// matched with the bracket in byte position k in ClosedBrackets.
const (
	OpenBrackets  = "(["
	CloseBrackets = ")]"
)

func byteidcs(s string) []string {
	v := make([]string, len(s))
	for i, r := range s {
		v[i] = string(r)
	}
	return v
}

var (
	operstrs      = byteidcs(Operators)
	openbrackets  = byteidcs(OpenBrackets)
	closebrackets = byteidcs(CloseBrackets)
)

// IsIdentRune is the default identifier classifier. It accepts Unicode
// letters and underscores.
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

type lexer struct {
	src   io.RuneScanner
	buf   strings.Builder
	ident func(rune) bool
	rune  int
	p     lexToken
	eof   bool
}

func lex(src io.RuneScanner, ident func(rune) bool) *lexer {
	if ident == nil {
		ident = IsIdentRune
	}
	return &lexer{
		src:   src,
		ident: ident,
		rune:  1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("numexpr: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("numexpr: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input. If nl is true, a newline is a
// separator token; otherwise it is whitespace like any other. The first time
// EOF is encountered before any non-whitespace characters, the result is an
// EOF token with a nil error. Subsequent times, if the EOF token is not
// pushed, the result is an EOF token again.
func (l *lexer) next(nl bool) (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		if nl || tok.kind != tokenSep || tok.text != "\n" {
			return tok, nil
		}
		// A newline pushed back into a context that ignores it.
	}
	if l.eof {
		return lexToken{kind: tokenEOF, pos: l.rune}, nil
	}
	defer l.buf.Reset()
	for {
		tok := lexToken{pos: l.rune}
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case r == '\n' && nl:
			tok.text = "\n"
			tok.kind = tokenSep
			return tok, nil
		case unicode.IsSpace(r):
			continue
		case '0' <= r && r <= '9', r == '.':
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '"', r == '\'':
			if err := l.scanString(r); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenStr
			return tok, nil
		case l.ident(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			// Infinity looks like an identifier, so check for it here.
			switch tok.text {
			case "inf", "Inf", "Infinity":
				tok.kind = tokenNum
			default:
				tok.kind = tokenIdent
			}
			return tok, nil
		case r == ',', r == ';':
			tok.text = string(r)
			tok.kind = tokenSep
			return tok, nil
		case r == '∞':
			tok.text = "∞"
			tok.kind = tokenNum
			return tok, nil
		default:
			if k := strings.IndexRune(Operators, r); k >= 0 {
				tok.text = operstrs[k]
				tok.kind = tokenOp
				if strings.ContainsRune("=!<>", r) {
					l.scanCompound(&tok)
				}
				return tok, nil
			}
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				tok.text = openbrackets[k]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				tok.text = closebrackets[k]
				tok.kind = tokenClose
				return tok, nil
			}
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return tok, l.error("")
		}
	}
}

// scanCompound extends an operator token with a following =.
func (l *lexer) scanCompound(tok *lexToken) {
	r, err := l.readRune()
	if err != nil {
		return
	}
	if r != '=' {
		l.unreadRune()
		return
	}
	tok.text += "="
}

func (l *lexer) scanNum() error {
	var dig, dot, e, le, ed bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if unicode.IsSpace(r) {
			l.unreadRune()
			break
		}
		if r == '+' || r == '-' {
			// + or - anywhere other than immediately following an exponent
			// marker means a new token, as it is an operator.
			if !le {
				l.unreadRune()
				break
			}
			le = false
			l.buf.WriteRune(r)
			continue
		}
		if strings.ContainsRune(Operators+OpenBrackets+CloseBrackets+",;", r) {
			l.unreadRune()
			break
		}
		l.buf.WriteRune(r)
		switch r {
		case '.':
			if dot || e {
				return l.error("number")
			}
			dot = true
			le = false
		case 'e', 'E':
			if !dig || e {
				return l.error("number")
			}
			e = true
			le = true
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			if e {
				ed = true
			} else {
				dig = true
			}
			le = false
		default:
			return l.error("number")
		}
	}
	if (!dig && !ed) || (e && !ed) {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case l.ident(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

// scanString scans a string literal whose opening quote has been read. The
// decoded contents are left in the buffer.
func (l *lexer) scanString(quote rune) error {
	var raw strings.Builder
	esc := false
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.buf.WriteRune(quote)
				l.buf.WriteString(raw.String())
				return l.error("string")
			}
			return err
		}
		switch {
		case esc:
			esc = false
			if r == '\'' {
				// Go's unquoting rejects \' in double quotes.
				raw.WriteRune(r)
				continue
			}
			raw.WriteRune('\\')
			raw.WriteRune(r)
		case r == '\\':
			esc = true
		case r == quote:
			s, err := strconv.Unquote(`"` + raw.String() + `"`)
			if err != nil {
				l.buf.WriteRune(quote)
				l.buf.WriteString(raw.String())
				l.buf.WriteRune(quote)
				return l.error("string")
			}
			l.buf.WriteString(s)
			return nil
		case r == '"':
			// Only reachable in single-quoted strings.
			raw.WriteString(`\"`)
		case r == '\n':
			l.buf.WriteRune(quote)
			l.buf.WriteString(raw.String())
			return l.error("string")
		default:
			raw.WriteRune(r)
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.rune,
	}
}
