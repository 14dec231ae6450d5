package hm

import (
	"fmt"
)

// MismatchError describes the first point at which two types differ.
type MismatchError struct {
	// Path locates the difference inside the expected type, outermost first,
	// e.g. ["parameter 2", "field foo"]. Empty when the roots differ.
	Path     []string
	Expected Type
	Actual   Type
	msg      string
}

func (e *MismatchError) Error() string {
	msg := e.msg
	if msg == "" {
		msg = fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	}
	for i := len(e.Path) - 1; i >= 0; i-- {
		msg = e.Path[i] + ": " + msg
	}
	return msg
}

func (e *MismatchError) within(step string) *MismatchError {
	e.Path = append([]string{step}, e.Path...)
	return e
}

// Equal reports whether actual is structurally equal to expected.
func Equal(actual, expected Type) bool {
	return compare(actual, expected) == nil
}

// Compare returns nil when actual is structurally equal to expected, or a
// *MismatchError naming the first difference.
func Compare(actual, expected Type) error {
	if err := compare(actual, expected); err != nil {
		return err
	}
	return nil
}

// compare is driven by the shape of expected.
func compare(actual, expected Type) *MismatchError {
	switch et := expected.(type) {
	case TypeConst:
		if at, ok := actual.(TypeConst); ok && at == et {
			return nil
		}
		return &MismatchError{Expected: expected, Actual: actual}

	case *FunctionType:
		at, ok := actual.(*FunctionType)
		if !ok {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		if len(at.Params) != len(et.Params) {
			return &MismatchError{
				Expected: expected,
				Actual:   actual,
				msg: fmt.Sprintf("expected %d parameters, got %d",
					len(et.Params), len(at.Params)),
			}
		}
		for i := range et.Params {
			if err := compare(at.Params[i].Type, et.Params[i].Type); err != nil {
				return err.within(fmt.Sprintf("parameter %d", i+1))
			}
		}
		if err := compare(at.Ret, et.Ret); err != nil {
			return err.within("return type")
		}
		return nil

	case *ObjectType:
		at, ok := actual.(*ObjectType)
		if !ok {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		if len(at.Fields) != len(et.Fields) {
			return &MismatchError{
				Expected: expected,
				Actual:   actual,
				msg: fmt.Sprintf("expected %d fields, got %d",
					len(et.Fields), len(at.Fields)),
			}
		}
		for _, ef := range et.Fields {
			aft, found := at.FieldType(ef.Name)
			if !found {
				return &MismatchError{
					Expected: expected,
					Actual:   actual,
					msg:      fmt.Sprintf("missing field %s", ef.Name),
				}
			}
			if err := compare(aft, ef.Type); err != nil {
				return err.within("field " + ef.Name)
			}
		}
		return nil

	default:
		panic(fmt.Sprintf("hm: unexpected type %T", expected))
	}
}
