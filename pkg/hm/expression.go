package hm

import "context"

// Inferer is an AST node that can compute its own Type given an Env.
type Inferer interface {
	Infer(context.Context, *Env) (Type, error)
}

// Namer is anything that knows its own name
type Namer interface {
	Name() string
}
