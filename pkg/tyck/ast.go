package tyck

import (
	"github.com/vito/tyck/pkg/hm"
)

// Term is a node of the checked language's syntax tree. The set of terms is
// closed: only this package can add variants, and each one knows how to infer
// its own type.
type Term interface {
	SourceLocatable

	// Infer computes the term's type under env. Children are checked through
	// Check so that depth limits and type recording apply uniformly.
	hm.Inferer

	// Walk visits this term and its children depth-first. Returning false
	// skips the children of the current term.
	Walk(fn func(Term) bool)

	isTerm()
}

// Property is a named member of an object literal.
type Property struct {
	Name  string
	Value Term
}

// BoolLit is the literal true or false.
type BoolLit struct {
	Value bool
	Loc   *SourceLocation
}

// Conditional is `cond ? then : else`.
type Conditional struct {
	Cond Term
	Then Term
	Else Term
	Loc  *SourceLocation
}

// NumLit is a numeric literal.
type NumLit struct {
	Value float64
	Loc   *SourceLocation
}

// Addition is `left + right`.
type Addition struct {
	Left  Term
	Right Term
	Loc   *SourceLocation
}

// Symbol references a variable.
type Symbol struct {
	Name string
	Loc  *SourceLocation
}

// Lambda is an anonymous function with declared parameter types.
type Lambda struct {
	Params []hm.Param
	Body   Term
	Loc    *SourceLocation
}

// FunCall applies Fun to Args.
type FunCall struct {
	Fun  Term
	Args []Term
	Loc  *SourceLocation
}

// Sequence checks First for errors, then yields Rest.
type Sequence struct {
	First Term
	Rest  Term
	Loc   *SourceLocation
}

// Let binds Name to Init's type within Rest.
type Let struct {
	Name string
	Init Term
	Rest Term
	Loc  *SourceLocation
}

// ObjectLit constructs a structural record.
type ObjectLit struct {
	Props []Property
	Loc   *SourceLocation
}

// Select reads Field from Target.
type Select struct {
	Target Term
	Field  string
	Loc    *SourceLocation
}

// FunDecl declares a named, possibly self-recursive function visible in its
// own Body and in Rest.
type FunDecl struct {
	Name   string
	Params []hm.Param
	Ret    hm.Type
	Body   Term
	Rest   Term
	Loc    *SourceLocation
}

var (
	_ Term = (*BoolLit)(nil)
	_ Term = (*Conditional)(nil)
	_ Term = (*NumLit)(nil)
	_ Term = (*Addition)(nil)
	_ Term = (*Symbol)(nil)
	_ Term = (*Lambda)(nil)
	_ Term = (*FunCall)(nil)
	_ Term = (*Sequence)(nil)
	_ Term = (*Let)(nil)
	_ Term = (*ObjectLit)(nil)
	_ Term = (*Select)(nil)
	_ Term = (*FunDecl)(nil)
)

func (*BoolLit) isTerm()     {}
func (*Conditional) isTerm() {}
func (*NumLit) isTerm()      {}
func (*Addition) isTerm()    {}
func (*Symbol) isTerm()      {}
func (*Lambda) isTerm()      {}
func (*FunCall) isTerm()     {}
func (*Sequence) isTerm()    {}
func (*Let) isTerm()         {}
func (*ObjectLit) isTerm()   {}
func (*Select) isTerm()      {}
func (*FunDecl) isTerm()     {}

func (t *BoolLit) GetSourceLocation() *SourceLocation     { return t.Loc }
func (t *Conditional) GetSourceLocation() *SourceLocation { return t.Loc }
func (t *NumLit) GetSourceLocation() *SourceLocation      { return t.Loc }
func (t *Addition) GetSourceLocation() *SourceLocation    { return t.Loc }
func (t *Symbol) GetSourceLocation() *SourceLocation      { return t.Loc }
func (t *Lambda) GetSourceLocation() *SourceLocation      { return t.Loc }
func (t *FunCall) GetSourceLocation() *SourceLocation     { return t.Loc }
func (t *Sequence) GetSourceLocation() *SourceLocation    { return t.Loc }
func (t *Let) GetSourceLocation() *SourceLocation         { return t.Loc }
func (t *ObjectLit) GetSourceLocation() *SourceLocation   { return t.Loc }
func (t *Select) GetSourceLocation() *SourceLocation      { return t.Loc }
func (t *FunDecl) GetSourceLocation() *SourceLocation     { return t.Loc }

func (t *BoolLit) Walk(fn func(Term) bool) { fn(t) }

func (t *Conditional) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Cond, fn)
	walk(t.Then, fn)
	walk(t.Else, fn)
}

func (t *NumLit) Walk(fn func(Term) bool) { fn(t) }

func (t *Addition) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Left, fn)
	walk(t.Right, fn)
}

func (t *Symbol) Walk(fn func(Term) bool) { fn(t) }

func (t *Lambda) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Body, fn)
}

func (t *FunCall) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Fun, fn)
	for _, arg := range t.Args {
		walk(arg, fn)
	}
}

func (t *Sequence) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.First, fn)
	walk(t.Rest, fn)
}

func (t *Let) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Init, fn)
	walk(t.Rest, fn)
}

func (t *ObjectLit) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	for _, p := range t.Props {
		walk(p.Value, fn)
	}
}

func (t *Select) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Target, fn)
}

func (t *FunDecl) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	walk(t.Body, fn)
	walk(t.Rest, fn)
}

// walk skips missing children so hand-built trees with holes can still be
// traversed.
func walk(t Term, fn func(Term) bool) {
	if t != nil {
		t.Walk(fn)
	}
}
