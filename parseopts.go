package numexpr

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type (
	identopt func(rune) bool
	implopt  bool
)

// parsectx holds general data for parsing. It is also a ParseOption.
type parsectx struct {
	// ident classifies runes that may appear in identifiers. Digits are
	// allowed after the first rune regardless.
	ident func(rune) bool
	// noimpl disables implicit multiplication by juxtaposition.
	noimpl bool
	// depth is the bracket nesting depth. Newlines separate statements only
	// at depth 0.
	depth int
	// cond counts unclosed conditionals awaiting their colon at the current
	// bracket depth.
	cond int
	// stmt indicates that the next term starts a statement, so that an empty
	// term is allowed.
	stmt bool
}

// Identifiers sets the classifier deciding which runes may start or continue
// an identifier. Digits may always continue one. The default is IsIdentRune.
// For example, to admit symbol glyphs:
//
//	numexpr.Identifiers(func(r rune) bool {
//		return numexpr.IsIdentRune(r) || unicode.IsSymbol(r)
//	})
func Identifiers(f func(r rune) bool) ParseOption {
	return identopt(f)
}

func (o identopt) parseOption(p parsectx) parsectx {
	p.ident = o
	return p
}

// NoImplicitMul disables multiplication by juxtaposition, so that "2 x" is a
// syntax error rather than 2*x.
func NoImplicitMul() ParseOption {
	return implopt(true)
}

func (o implopt) parseOption(p parsectx) parsectx {
	p.noimpl = bool(o)
	return p
}

// ParsingPreset creates a parsing preset that may be more efficient when using
// the same non-default parsing options for many calls to Parse. A preset
// panics when it would change any option from the default, but it is safe to
// apply other options after a preset.
func ParsingPreset(opts ...ParseOption) ParseOption {
	var p parsectx
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	return &p
}

func (o *parsectx) parseOption(p parsectx) parsectx {
	if p.ident != nil || p.noimpl {
		panic("numexpr: preset applied to non-default parse config")
	}
	p.ident = o.ident
	p.noimpl = o.noimpl
	return p
}
