package tyck

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/vito/tyck/pkg/hm"
)

// DefaultMaxDepth bounds recursion over deeply nested terms.
const DefaultMaxDepth = 10000

var (
	// ErrNilTerm is returned when asked to check a nil term.
	ErrNilTerm = errors.New("cannot check a nil term")

	// ErrTooDeep is returned when term nesting exceeds the configured depth.
	ErrTooDeep = errors.New("term nesting exceeds maximum depth")
)

// Info records the type of every successfully checked term.
type Info struct {
	Types map[Term]hm.Type
}

// TypeOf returns the recorded type of t, or nil.
func (info *Info) TypeOf(t Term) hm.Type {
	if info == nil {
		return nil
	}
	return info.Types[t]
}

type maxDepthKey struct{}

// ContextWithMaxDepth limits how deeply nested a checked term may be.
func ContextWithMaxDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, maxDepthKey{}, depth)
}

// MaxDepthFromContext returns the configured depth limit.
func MaxDepthFromContext(ctx context.Context) int {
	if depth, ok := ctx.Value(maxDepthKey{}).(int); ok && depth > 0 {
		return depth
	}
	return DefaultMaxDepth
}

// checkState is shared by every recursive Check below one entry point.
type checkState struct {
	depth    int
	maxDepth int
	info     *Info
}

type checkStateKey struct{}

// Check computes the type of term under env, or returns the first type error.
// A nil env is the empty environment.
func Check(ctx context.Context, env *hm.Env, term Term) (hm.Type, error) {
	st, nested := ctx.Value(checkStateKey{}).(*checkState)
	if !nested {
		st = &checkState{maxDepth: MaxDepthFromContext(ctx)}
		ctx = context.WithValue(ctx, checkStateKey{}, st)
	}
	return st.check(ctx, env, term)
}

// CheckInfo is like Check but also records the type of each sub-term that
// checked successfully.
func CheckInfo(ctx context.Context, env *hm.Env, term Term) (hm.Type, *Info, error) {
	info := &Info{Types: map[Term]hm.Type{}}
	st := &checkState{maxDepth: MaxDepthFromContext(ctx), info: info}
	ctx = context.WithValue(ctx, checkStateKey{}, st)
	t, err := st.check(ctx, env, term)
	return t, info, err
}

func (st *checkState) check(ctx context.Context, env *hm.Env, term Term) (hm.Type, error) {
	if term == nil {
		return nil, errors.WithStack(ErrNilTerm)
	}
	if st.depth >= st.maxDepth {
		return nil, errors.Wrapf(ErrTooDeep, "limit %d", st.maxDepth)
	}
	st.depth++
	defer func() { st.depth-- }()

	t, err := term.Infer(ctx, env)
	if err != nil {
		return nil, err
	}
	if st.info != nil {
		st.info.Types[term] = t
	}
	return t, nil
}

func (t *BoolLit) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	return hm.Boolean, nil
}

func (t *Conditional) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	condType, err := Check(ctx, env, t.Cond)
	if err != nil {
		return nil, err
	}
	if !hm.Equal(condType, hm.Boolean) {
		return nil, &TypeError{Kind: NotABoolean, Term: t.Cond, Expected: hm.Boolean, Actual: condType}
	}

	thenType, err := Check(ctx, env, t.Then)
	if err != nil {
		return nil, err
	}
	elseType, err := Check(ctx, env, t.Else)
	if err != nil {
		return nil, err
	}
	if err := hm.Compare(elseType, thenType); err != nil {
		return nil, &TypeError{
			Kind:     BranchTypeMismatch,
			Term:     t,
			Expected: thenType,
			Actual:   elseType,
			Cause:    err,
		}
	}
	return thenType, nil
}

func (t *NumLit) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	return hm.Number, nil
}

func (t *Addition) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	for _, operand := range []Term{t.Left, t.Right} {
		operandType, err := Check(ctx, env, operand)
		if err != nil {
			return nil, err
		}
		if !hm.Equal(operandType, hm.Number) {
			return nil, &TypeError{Kind: NotANumber, Term: operand, Expected: hm.Number, Actual: operandType}
		}
	}
	return hm.Number, nil
}

func (t *Symbol) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	bound, found := env.Lookup(t.Name)
	if !found {
		return nil, &TypeError{Kind: UnknownVariable, Term: t}
	}
	return bound, nil
}

func (t *Lambda) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	ret, err := Check(ctx, env.ExtendParams(t.Params), t.Body)
	if err != nil {
		return nil, err
	}
	return &hm.FunctionType{Params: slices.Clone(t.Params), Ret: ret}, nil
}

func (t *FunCall) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	funType, err := Check(ctx, env, t.Fun)
	if err != nil {
		return nil, err
	}
	ft, ok := funType.(*hm.FunctionType)
	if !ok {
		return nil, &TypeError{Kind: NotAFunction, Term: t.Fun, Actual: funType}
	}

	if len(t.Args) != ft.Arity() {
		return nil, &TypeError{Kind: ArityMismatch, Term: t, Expected: ft}
	}

	for i, arg := range t.Args {
		argType, err := Check(ctx, env, arg)
		if err != nil {
			return nil, err
		}
		param := ft.Params[i].Type
		if err := hm.Compare(argType, param); err != nil {
			return nil, &TypeError{
				Kind:     ArgumentTypeMismatch,
				Term:     arg,
				Index:    i,
				Expected: param,
				Actual:   argType,
				Cause:    err,
			}
		}
	}
	return ft.Ret, nil
}

func (t *Sequence) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	if _, err := Check(ctx, env, t.First); err != nil {
		return nil, err
	}
	return Check(ctx, env, t.Rest)
}

func (t *Let) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	initType, err := Check(ctx, env, t.Init)
	if err != nil {
		return nil, err
	}
	return Check(ctx, env.Extend(t.Name, initType), t.Rest)
}

func (t *ObjectLit) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	fields := make([]hm.Field, 0, len(t.Props))
	for _, p := range t.Props {
		propType, err := Check(ctx, env, p.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, hm.Field{Name: p.Name, Type: propType})
	}
	return hm.NewObjectType(fields...), nil
}

func (t *Select) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	targetType, err := Check(ctx, env, t.Target)
	if err != nil {
		return nil, err
	}
	obj, ok := targetType.(*hm.ObjectType)
	if !ok {
		return nil, &TypeError{Kind: NotAnObject, Term: t.Target, Actual: targetType}
	}
	fieldType, found := obj.FieldType(t.Field)
	if !found {
		return nil, &TypeError{Kind: UnknownProperty, Term: t, Field: t.Field, Actual: obj}
	}
	return fieldType, nil
}

// Signature is the function type as declared, before the body is checked.
func (t *FunDecl) Signature() *hm.FunctionType {
	return &hm.FunctionType{Params: slices.Clone(t.Params), Ret: t.Ret}
}

func (t *FunDecl) Infer(ctx context.Context, env *hm.Env) (hm.Type, error) {
	sig := t.Signature()

	// the name is bound after the parameters so it shadows a parameter of
	// the same name
	bodyEnv := env.ExtendParams(t.Params).Extend(t.Name, sig)
	bodyType, err := Check(ctx, bodyEnv, t.Body)
	if err != nil {
		return nil, err
	}
	if err := hm.Compare(bodyType, t.Ret); err != nil {
		return nil, &TypeError{
			Kind:     WrongReturnType,
			Term:     t.Body,
			Expected: t.Ret,
			Actual:   bodyType,
			Cause:    err,
		}
	}

	return Check(ctx, env.Extend(t.Name, sig), t.Rest)
}
