package tyck

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/iancoleman/strcase"
	"github.com/vito/tyck/pkg/hm"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Length   int             // Length of the span on its first line
	End      *SourcePosition // Optional: end position of the node
}

// SourcePosition represents a position in source code
type SourcePosition struct {
	Line   int
	Column int
}

// Contains reports whether the 1-based line/column falls inside the span.
// The end position is exclusive.
func (loc *SourceLocation) Contains(line, col int) bool {
	if loc == nil {
		return false
	}
	endLine, endCol := loc.Line, loc.Column+loc.Length
	if loc.End != nil {
		endLine, endCol = loc.End.Line, loc.End.Column
	}
	if line < loc.Line || line > endLine {
		return false
	}
	if line == loc.Line && col < loc.Column {
		return false
	}
	if line == endLine && col >= endCol {
		return false
	}
	return true
}

func (loc *SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", loc.Filename, loc.Line, loc.Column)
}

type SourceLocatable interface {
	GetSourceLocation() *SourceLocation
}

// Kind classifies a type error.
type Kind int

const (
	NotABoolean Kind = iota + 1
	BranchTypeMismatch
	NotANumber
	UnknownVariable
	NotAFunction
	ArgumentTypeMismatch
	ArityMismatch
	NotAnObject
	UnknownProperty
	WrongReturnType
)

var kindNames = map[Kind]string{
	NotABoolean:          "NotABoolean",
	BranchTypeMismatch:   "BranchTypeMismatch",
	NotANumber:           "NotANumber",
	UnknownVariable:      "UnknownVariable",
	NotAFunction:         "NotAFunction",
	ArgumentTypeMismatch: "ArgumentTypeMismatch",
	ArityMismatch:        "ArityMismatch",
	NotAnObject:          "NotAnObject",
	UnknownProperty:      "UnknownProperty",
	WrongReturnType:      "WrongReturnType",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error lets a Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Code is a stable snake_case identifier, e.g. "not_a_boolean".
func (k Kind) Code() string {
	return strcase.ToSnake(k.String())
}

// TypeError is a classified type checking failure.
type TypeError struct {
	Kind Kind
	// Term is the offending term.
	Term Term
	// Field is the missing property for UnknownProperty.
	Field string
	// Index is the 0-based argument position for ArgumentTypeMismatch.
	Index    int
	Expected hm.Type
	Actual   hm.Type
	// Cause explains a structural mismatch, when there is one.
	Cause error
}

var _ SourceLocatable = (*TypeError)(nil)

func (e *TypeError) Error() string {
	switch e.Kind {
	case NotABoolean:
		return fmt.Sprintf("boolean expected, got %s", e.Actual)
	case BranchTypeMismatch:
		return fmt.Sprintf("then and else have different types: %s and %s", e.Expected, e.Actual)
	case NotANumber:
		return fmt.Sprintf("number expected, got %s", e.Actual)
	case UnknownVariable:
		if sym, ok := e.Term.(*Symbol); ok {
			return fmt.Sprintf("unknown variable: %s", sym.Name)
		}
		return "unknown variable"
	case NotAFunction:
		return fmt.Sprintf("function type expected, got %s", e.Actual)
	case ArgumentTypeMismatch:
		return fmt.Sprintf("argument %d: parameter type mismatch: %s", e.Index+1, e.cause())
	case ArityMismatch:
		want := 0
		if ft, ok := e.Expected.(*hm.FunctionType); ok {
			want = ft.Arity()
		}
		got := 0
		if call, ok := e.Term.(*FunCall); ok {
			got = len(call.Args)
		}
		return fmt.Sprintf("wrong number of arguments: expected %d, got %d", want, got)
	case NotAnObject:
		return fmt.Sprintf("object type expected, got %s", e.Actual)
	case UnknownProperty:
		return fmt.Sprintf("unknown property name: %s", e.Field)
	case WrongReturnType:
		return fmt.Sprintf("wrong return type: %s", e.cause())
	default:
		return e.Kind.String()
	}
}

func (e *TypeError) cause() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

func (e *TypeError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *TypeError) Unwrap() error {
	return e.Cause
}

func (e *TypeError) GetSourceLocation() *SourceLocation {
	if e.Term == nil {
		return nil
	}
	return e.Term.GetSourceLocation()
}

// KindOf returns the classification of a type error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var typeErr *TypeError
	if errors.As(err, &typeErr) {
		return typeErr.Kind, true
	}
	return 0, false
}

// ParseError reports malformed surface syntax.
type ParseError struct {
	Message  string
	Location *SourceLocation

	// Incomplete is set when the input ended early, e.g. an unclosed
	// brace. Interactive callers can read more input and try again.
	Incomplete bool
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) GetSourceLocation() *SourceLocation {
	return e.Location
}

// IsIncomplete reports whether err is a parse error caused by the input
// ending early.
func IsIncomplete(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr) && parseErr.Incomplete
}

// SourceError represents an error with source location information
type SourceError struct {
	Inner    error
	Location *SourceLocation
	Source   string // The source code of the file
}

// NewSourceError creates a new SourceError
func NewSourceError(inner error, location *SourceLocation, source string) *SourceError {
	return &SourceError{
		Inner:    inner,
		Location: location,
		Source:   source,
	}
}

// WithSource attaches source context to located errors. Errors without a
// location are returned unchanged.
func WithSource(err error, source string) error {
	var sourceErr *SourceError
	if err == nil || errors.As(err, &sourceErr) {
		return err
	}
	var located SourceLocatable
	if !errors.As(err, &located) {
		return err
	}
	loc := located.GetSourceLocation()
	if loc == nil {
		return err
	}
	return NewSourceError(err, loc, source)
}

func (e *SourceError) Unwrap() error {
	return e.Inner
}

func (e *SourceError) Error() string {
	if e.Location == nil {
		return e.Inner.Error()
	}

	return e.FormatWithHighlighting()
}

var (
	errorLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	gutterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Faint(true)
	focusLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	underlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// FormatWithHighlighting returns a nicely formatted error with syntax highlighting
func (e *SourceError) FormatWithHighlighting() string {
	if e.Location == nil && e.Source == "" {
		return e.Inner.Error()
	}

	if e.Source == "" && e.Location.Filename != "" {
		contents, err := os.ReadFile(e.Location.Filename)
		if err == nil {
			e.Source = string(contents)
		}
	}

	lines := strings.Split(e.Source, "\n")
	if e.Location.Line < 1 || e.Location.Line > len(lines) {
		return e.Inner.Error()
	}

	var result strings.Builder

	fmt.Fprintf(&result, "%s %s\n", errorLabelStyle.Render("Error:"), e.Inner)
	fmt.Fprintf(&result, "  %s\n", gutterStyle.Render("--> "+e.Location.String()))
	fmt.Fprintf(&result, " %s\n", gutterStyle.Render(padLeft("", 3)+" |"))

	startLine := max(1, e.Location.Line-2)
	endLine := min(len(lines), e.Location.Line+2)

	for i := startLine; i <= endLine; i++ {
		lineNum := padLeft(fmt.Sprintf("%d", i), 3)
		if i != e.Location.Line {
			fmt.Fprintf(&result, " %s %s\n", gutterStyle.Render(lineNum+" |"), lines[i-1])
			continue
		}
		fmt.Fprintf(&result, " %s %s\n", focusLineStyle.Render(lineNum+" |"), lines[i-1])

		// 1 space + 3 for line number + " | " + column - 1
		padding := strings.Repeat(" ", 1+3+3+e.Location.Column-1)
		underline := strings.Repeat("^", max(1, e.Location.Length))
		fmt.Fprintf(&result, "%s%s\n", padding, underlineStyle.Render(underline))
	}

	fmt.Fprintf(&result, " %s\n", gutterStyle.Render(padLeft("", 3)+" |"))

	return result.String()
}

// Plain renders err without terminal styling.
func Plain(err error) string {
	return ansi.Strip(err.Error())
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
