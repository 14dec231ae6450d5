package tyck

import (
	"fmt"
	"strconv"

	"github.com/vito/tyck/pkg/hm"
)

// Stmt is a top-level or block-level statement prior to folding into a Term.
type Stmt interface {
	SourceLocatable
	isStmt()
}

// ConstStmt is `const name = init`.
type ConstStmt struct {
	Name string
	Init Term
	Loc  *SourceLocation
}

// FuncStmt is `function name(params): ret { body }`.
type FuncStmt struct {
	Name   string
	Params []hm.Param
	Ret    hm.Type
	Body   Term
	Loc    *SourceLocation
}

// ExprStmt is an expression in statement position.
type ExprStmt struct {
	Expr Term
}

func (*ConstStmt) isStmt() {}
func (*FuncStmt) isStmt()  {}
func (*ExprStmt) isStmt()  {}

func (s *ConstStmt) GetSourceLocation() *SourceLocation { return s.Loc }
func (s *FuncStmt) GetSourceLocation() *SourceLocation  { return s.Loc }
func (s *ExprStmt) GetSourceLocation() *SourceLocation  { return s.Expr.GetSourceLocation() }

// Parse parses a whole program into a single term.
func Parse(filename string, src []byte) (Term, error) {
	stmts, err := ParseStatements(filename, src)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, &ParseError{
			Message:  "empty program",
			Location: &SourceLocation{Filename: filename, Line: 1, Column: 1},
		}
	}
	return Fold(stmts)
}

// ParseStatements parses a program without folding it, so that callers such
// as a REPL can keep trailing declarations.
func ParseStatements(filename string, src []byte) ([]Stmt, error) {
	p, err := newParser(filename, string(src))
	if err != nil {
		return nil, err
	}
	stmts, err := p.statements()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		return nil, p.unexpected()
	}
	return stmts, nil
}

// ParseType parses a type annotation such as `(x: number) => boolean`.
func ParseType(src string) (hm.Type, error) {
	p, err := newParser("", src)
	if err != nil {
		return nil, err
	}
	t, err := p.typ()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		return nil, p.unexpected()
	}
	return t, nil
}

// Fold nests statements right to left: declarations scope over everything
// after them and the final statement must be an expression.
func Fold(stmts []Stmt) (Term, error) {
	if len(stmts) == 0 {
		return nil, &ParseError{Message: "expected an expression"}
	}
	last, ok := stmts[len(stmts)-1].(*ExprStmt)
	if !ok {
		return nil, &ParseError{
			Message:  "expected an expression after the last declaration",
			Location: stmts[len(stmts)-1].GetSourceLocation(),
		}
	}

	result := last.Expr
	for i := len(stmts) - 2; i >= 0; i-- {
		loc := spanLocs(stmts[i].GetSourceLocation(), result.GetSourceLocation())
		switch s := stmts[i].(type) {
		case *ConstStmt:
			result = &Let{Name: s.Name, Init: s.Init, Rest: result, Loc: loc}
		case *FuncStmt:
			result = &FunDecl{
				Name:   s.Name,
				Params: s.Params,
				Ret:    s.Ret,
				Body:   s.Body,
				Rest:   result,
				Loc:    loc,
			}
		case *ExprStmt:
			result = &Sequence{First: s.Expr, Rest: result, Loc: loc}
		default:
			panic(fmt.Sprintf("tyck: unexpected statement %T", s))
		}
	}
	return result, nil
}

var reserved = map[string]bool{
	"const":    true,
	"function": true,
	"return":   true,
	"true":     true,
	"false":    true,
}

// maxNesting bounds how deeply expressions and types may nest.
const maxNesting = DefaultMaxDepth

type parser struct {
	filename string
	toks     []token
	pos      int
	depth    int
}

func newParser(filename, src string) (*parser, error) {
	toks, err := lex(filename, src)
	if err != nil {
		return nil, err
	}
	return &parser{filename: filename, toks: toks}, nil
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek()
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) prev() token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) at(kind tokenKind) bool {
	return p.peek().kind == kind
}

// is reports whether the next token is the given punctuation or keyword.
func (p *parser) is(text string) bool {
	return isText(p.peek(), text)
}

func isText(tok token, text string) bool {
	return (tok.kind == tokPunct || tok.kind == tokIdent) && tok.text == text
}

func (p *parser) expect(text string) (token, error) {
	if !p.is(text) {
		return token{}, p.errorf(p.peek(), "expected %q, got %s", text, p.peek())
	}
	return p.next(), nil
}

func (p *parser) ident() (token, error) {
	tok := p.peek()
	if tok.kind != tokIdent || reserved[tok.text] {
		return token{}, p.errorf(tok, "expected identifier, got %s", tok)
	}
	return p.next(), nil
}

func (p *parser) errorf(tok token, format string, args ...any) *ParseError {
	return &ParseError{
		Message:    fmt.Sprintf(format, args...),
		Location:   p.tokenLoc(tok),
		Incomplete: tok.kind == tokEOF,
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxNesting {
		p.depth--
		return &ParseError{
			Message:  fmt.Sprintf("nesting exceeds maximum depth of %d", maxNesting),
			Location: p.tokenLoc(p.peek()),
		}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) unexpected() *ParseError {
	return p.errorf(p.peek(), "unexpected %s", p.peek())
}

func (p *parser) tokenLoc(tok token) *SourceLocation {
	return &SourceLocation{
		Filename: p.filename,
		Line:     tok.line,
		Column:   tok.col,
		Length:   max(1, len([]rune(tok.text))),
		End:      &SourcePosition{Line: tok.endLine, Column: tok.endCol},
	}
}

// span covers start through the most recently consumed token.
func (p *parser) span(start token) *SourceLocation {
	end := p.prev()
	loc := &SourceLocation{
		Filename: p.filename,
		Line:     start.line,
		Column:   start.col,
		End:      &SourcePosition{Line: end.endLine, Column: end.endCol},
	}
	if end.endLine == start.line {
		loc.Length = end.endCol - start.col
	} else {
		loc.Length = len([]rune(start.text))
	}
	return loc
}

func spanLocs(start, end *SourceLocation) *SourceLocation {
	if start == nil || end == nil {
		return start
	}
	loc := *start
	if end.End != nil {
		loc.End = end.End
	} else {
		loc.End = &SourcePosition{Line: end.Line, Column: end.Column + end.Length}
	}
	if loc.End.Line == loc.Line {
		loc.Length = loc.End.Column - loc.Column
	}
	return &loc
}

func (p *parser) statements() ([]Stmt, error) {
	var stmts []Stmt
	for !p.at(tokEOF) && !p.is("}") && !p.is("return") {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.is(";") {
			p.next()
		}
	}
	return stmts, nil
}

func (p *parser) statement() (Stmt, error) {
	start := p.peek()
	switch {
	case p.is("const"):
		p.next()
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("="); err != nil {
			return nil, err
		}
		init, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ConstStmt{Name: name.text, Init: init, Loc: p.span(start)}, nil

	case p.is("function"):
		p.next()
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		params, err := p.params()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		ret, err := p.typ()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &FuncStmt{
			Name:   name.text,
			Params: params,
			Ret:    ret,
			Body:   body,
			Loc:    p.span(start),
		}, nil

	default:
		expr, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: expr}, nil
	}
}

// block parses `{ stmt* return expr }`.
func (p *parser) block() (Term, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	stmts, err := p.statements()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("return"); err != nil {
		return nil, err
	}
	ret, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.is(";") {
		p.next()
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return Fold(append(stmts, &ExprStmt{Expr: ret}))
}

func (p *parser) expr() (Term, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	start := p.peek()
	cond, err := p.add()
	if err != nil {
		return nil, err
	}
	if !p.is("?") {
		return cond, nil
	}
	p.next()
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &Conditional{Cond: cond, Then: then, Else: els, Loc: p.span(start)}, nil
}

func (p *parser) add() (Term, error) {
	start := p.peek()
	left, err := p.postfix()
	if err != nil {
		return nil, err
	}
	for p.is("+") {
		p.next()
		right, err := p.postfix()
		if err != nil {
			return nil, err
		}
		left = &Addition{Left: left, Right: right, Loc: p.span(start)}
	}
	return left, nil
}

func (p *parser) postfix() (Term, error) {
	start := p.peek()
	term, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is("("):
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			term = &FunCall{Fun: term, Args: args, Loc: p.span(start)}
		case p.is("."):
			p.next()
			field, err := p.ident()
			if err != nil {
				return nil, err
			}
			term = &Select{Target: term, Field: field.text, Loc: p.span(start)}
		default:
			return term, nil
		}
	}
}

func (p *parser) args() ([]Term, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Term
	for !p.is(")") {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.is(",") {
			break
		}
		p.next()
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) primary() (Term, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokNumber:
		p.next()
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %s", tok.text)
		}
		return &NumLit{Value: n, Loc: p.tokenLoc(tok)}, nil

	case p.is("true"), p.is("false"):
		p.next()
		return &BoolLit{Value: tok.text == "true", Loc: p.tokenLoc(tok)}, nil

	case tok.kind == tokIdent && !reserved[tok.text]:
		p.next()
		return &Symbol{Name: tok.text, Loc: p.tokenLoc(tok)}, nil

	case p.is("(") && p.isArrow():
		return p.lambda()

	case p.is("("):
		p.next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.is("{"):
		return p.object()

	default:
		return nil, p.unexpected()
	}
}

// isArrow looks past `(` for `) =>` or `ident :`.
func (p *parser) isArrow() bool {
	first, second := p.peekAt(1), p.peekAt(2)
	if isText(first, ")") {
		return isText(second, "=>")
	}
	return first.kind == tokIdent && isText(second, ":")
}

func (p *parser) lambda() (Term, error) {
	start := p.peek()
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("=>"); err != nil {
		return nil, err
	}
	var body Term
	if p.is("{") {
		body, err = p.block()
	} else {
		body, err = p.expr()
	}
	if err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body, Loc: p.span(start)}, nil
}

// params parses `(name: type, ...)`.
func (p *parser) params() ([]hm.Param, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var params []hm.Param
	for !p.is(")") {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		t, err := p.typ()
		if err != nil {
			return nil, err
		}
		params = append(params, hm.Param{Name: name.text, Type: t})
		if !p.is(",") {
			break
		}
		p.next()
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) object() (Term, error) {
	start := p.next()
	var props []Property
	for !p.is("}") {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Name: name.text, Value: value})
		if !p.is(",") {
			break
		}
		p.next()
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return &ObjectLit{Props: props, Loc: p.span(start)}, nil
}

func (p *parser) typ() (hm.Type, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.peek()
	switch {
	case p.is("boolean"):
		p.next()
		return hm.Boolean, nil
	case p.is("number"):
		p.next()
		return hm.Number, nil
	case p.is("("):
		params, err := p.params()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("=>"); err != nil {
			return nil, err
		}
		ret, err := p.typ()
		if err != nil {
			return nil, err
		}
		return hm.NewFnType(ret, params...), nil
	case p.is("{"):
		p.next()
		var fields []hm.Field
		for !p.is("}") {
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			t, err := p.typ()
			if err != nil {
				return nil, err
			}
			fields = append(fields, hm.Field{Name: name.text, Type: t})
			if !p.is(",") && !p.is(";") {
				break
			}
			p.next()
		}
		if _, err := p.expect("}"); err != nil {
			return nil, err
		}
		return hm.NewObjectType(fields...), nil
	case tok.kind == tokIdent:
		return nil, p.errorf(tok, "unknown type %s", tok.text)
	default:
		return nil, p.errorf(tok, "expected a type, got %s", tok)
	}
}
