package hm

import (
	"fmt"
	"strings"
)

// Type is a closed set of type constructors: TypeConst, *FunctionType and
// *ObjectType. Types are immutable values compared structurally.
type Type interface {
	Namer
	Eq(Type) bool
	fmt.Stringer

	isType()
}

// TypeConst is a primitive type with no components.
type TypeConst string

const (
	Boolean TypeConst = "boolean"
	Number  TypeConst = "number"
)

var _ Type = Boolean

func (tc TypeConst) Name() string { return string(tc) }

func (tc TypeConst) Eq(other Type) bool { return Equal(other, tc) }

func (tc TypeConst) String() string { return string(tc) }

func (TypeConst) isType() {}

// Param is a named function parameter. Names are documentation only; function
// types compare parameters by position.
type Param struct {
	Name string
	Type Type
}

func (p Param) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// FunctionType represents a function type
type FunctionType struct {
	Params []Param
	Ret    Type
}

var _ Type = (*FunctionType)(nil)

func NewFnType(ret Type, params ...Param) *FunctionType {
	return &FunctionType{Params: params, Ret: ret}
}

func (ft *FunctionType) Name() string {
	return ft.String()
}

func (ft *FunctionType) Eq(other Type) bool {
	return Equal(other, ft)
}

func (ft *FunctionType) String() string {
	params := make([]string, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), ft.Ret)
}

func (*FunctionType) isType() {}

// Arity returns the number of declared parameters.
func (ft *FunctionType) Arity() int {
	return len(ft.Params)
}

// Field is a named member of an object type.
type Field struct {
	Name string
	Type Type
}

// ObjectType is a structural record type. Field names are unique.
type ObjectType struct {
	Fields []Field
}

var _ Type = (*ObjectType)(nil)

// NewObjectType creates an object type from fields in written order. When a
// name repeats, the last type wins but the field keeps its first position.
func NewObjectType(fields ...Field) *ObjectType {
	obj := &ObjectType{Fields: make([]Field, 0, len(fields))}
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if i, dup := index[f.Name]; dup {
			obj.Fields[i].Type = f.Type
			continue
		}
		index[f.Name] = len(obj.Fields)
		obj.Fields = append(obj.Fields, f)
	}
	return obj
}

// FieldType returns the type of the named field.
func (t *ObjectType) FieldType(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

func (t *ObjectType) Name() string {
	return t.String()
}

func (t *ObjectType) Eq(other Type) bool {
	return Equal(other, t)
}

func (t *ObjectType) String() string {
	if len(t.Fields) == 0 {
		return "{}"
	}
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return fmt.Sprintf("{ %s }", strings.Join(fields, "; "))
}

func (*ObjectType) isType() {}
