package tyck

import (
	"context"
	"fmt"

	"github.com/vito/tyck/pkg/hm"
)

// Session checks a series of inputs against a growing environment. Trailing
// declarations stay in scope for later inputs.
type Session struct {
	base *hm.Env
	env  *hm.Env
}

func NewSession(env *hm.Env) *Session {
	return &Session{base: env, env: env}
}

// Env returns the current environment.
func (s *Session) Env() *hm.Env {
	return s.env
}

// Reset drops everything declared since the session started.
func (s *Session) Reset() {
	s.env = s.base
}

// Eval checks src and returns the type of its last statement; for a
// declaration that is the declared name's type. Nothing is kept if any
// statement fails.
func (s *Session) Eval(ctx context.Context, src string) (hm.Type, error) {
	stmts, err := ParseStatements("", []byte(src))
	if err != nil {
		return nil, WithSource(err, src)
	}

	env := s.env
	var last hm.Type
	for _, stmt := range stmts {
		switch st := stmt.(type) {
		case *ConstStmt:
			t, err := Check(ctx, env, st.Init)
			if err != nil {
				return nil, WithSource(err, src)
			}
			env = env.Extend(st.Name, t)
			last = t
		case *FuncStmt:
			decl := &FunDecl{
				Name:   st.Name,
				Params: st.Params,
				Ret:    st.Ret,
				Body:   st.Body,
				Rest:   &Symbol{Name: st.Name, Loc: st.Loc},
				Loc:    st.Loc,
			}
			t, err := Check(ctx, env, decl)
			if err != nil {
				return nil, WithSource(err, src)
			}
			env = env.Extend(st.Name, t)
			last = t
		case *ExprStmt:
			t, err := Check(ctx, env, st.Expr)
			if err != nil {
				return nil, WithSource(err, src)
			}
			last = t
		default:
			panic(fmt.Sprintf("tyck: unexpected statement %T", st))
		}
	}

	s.env = env
	return last, nil
}
