package tyck

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	// 1-based start position
	line, col int
	// position just past the last character
	endLine, endCol int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q", t.text)
}

var twoCharPuncts = []string{"=>"}

const oneCharPuncts = "(){},:;?.+="

type lexer struct {
	filename string
	src      string
	off      int
	line     int
	col      int
}

func lex(filename, src string) ([]token, error) {
	l := &lexer{filename: filename, src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) peekRune(ahead int) rune {
	off := l.off
	for ; ahead > 0; ahead-- {
		if off >= len(l.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}
	if off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) errorf(line, col int, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Location: &SourceLocation{
			Filename: l.filename,
			Line:     line,
			Column:   col,
			Length:   1,
		},
	}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.off < len(l.src) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			for l.off < len(l.src) && l.peekRune(0) != '\n' {
				l.advance()
			}
		case r == '/' && l.peekRune(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.off >= len(l.src) {
					err := l.errorf(line, col, "unterminated comment")
					err.Incomplete = true
					return err
				}
				if l.peekRune(0) == '*' && l.peekRune(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}

	tok := token{line: l.line, col: l.col}
	start := l.off
	finish := func(kind tokenKind) (token, error) {
		tok.kind = kind
		tok.text = l.src[start:l.off]
		tok.endLine, tok.endCol = l.line, l.col
		return tok, nil
	}

	if l.off >= len(l.src) {
		return finish(tokEOF)
	}

	r := l.peekRune(0)
	switch {
	case isIdentStart(r):
		for l.off < len(l.src) && isIdentPart(l.peekRune(0)) {
			l.advance()
		}
		return finish(tokIdent)

	case unicode.IsDigit(r):
		l.digits()
		if l.peekRune(0) == '.' && unicode.IsDigit(l.peekRune(1)) {
			l.advance()
			l.digits()
		}
		if e := l.peekRune(0); e == 'e' || e == 'E' {
			sign := l.peekRune(1)
			if unicode.IsDigit(sign) || ((sign == '+' || sign == '-') && unicode.IsDigit(l.peekRune(2))) {
				l.advance()
				if sign == '+' || sign == '-' {
					l.advance()
				}
				l.digits()
			}
		}
		return finish(tokNumber)
	}

	for _, p := range twoCharPuncts {
		if strings.HasPrefix(l.src[l.off:], p) {
			for range p {
				l.advance()
			}
			return finish(tokPunct)
		}
	}
	if strings.ContainsRune(oneCharPuncts, r) {
		l.advance()
		return finish(tokPunct)
	}

	return token{}, l.errorf(l.line, l.col, "unexpected character %q", r)
}

func (l *lexer) digits() {
	for l.off < len(l.src) && unicode.IsDigit(l.peekRune(0)) {
		l.advance()
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
