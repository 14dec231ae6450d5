package hm

import (
	"slices"
)

// Env is a persistent type environment. Each Extend returns a new scope that
// shares its parent; the parent is never modified. The nil *Env is empty.
type Env struct {
	name   string
	t      Type
	parent *Env
	depth  int
}

// Binding pairs a name with its type.
type Binding struct {
	Name string
	Type Type
}

// NewEnv creates an environment from bindings, later ones shadowing earlier
// ones of the same name.
func NewEnv(bindings ...Binding) *Env {
	var env *Env
	for _, b := range bindings {
		env = env.Extend(b.Name, b.Type)
	}
	return env
}

// Extend returns a child scope binding name to t.
func (env *Env) Extend(name string, t Type) *Env {
	return &Env{
		name:   name,
		t:      t,
		parent: env,
		depth:  env.Len() + 1,
	}
}

// ExtendParams binds each parameter in order.
func (env *Env) ExtendParams(params []Param) *Env {
	for _, p := range params {
		env = env.Extend(p.Name, p.Type)
	}
	return env
}

// Lookup returns the innermost type bound to name.
func (env *Env) Lookup(name string) (Type, bool) {
	for e := env; e != nil; e = e.parent {
		if e.name == name {
			return e.t, true
		}
	}
	return nil, false
}

// Len returns the number of bindings, including shadowed ones.
func (env *Env) Len() int {
	if env == nil {
		return 0
	}
	return env.depth
}

// Names returns the visible names in sorted order.
func (env *Env) Names() []string {
	seen := map[string]bool{}
	var names []string
	for e := env; e != nil; e = e.parent {
		if seen[e.name] {
			continue
		}
		seen[e.name] = true
		names = append(names, e.name)
	}
	slices.Sort(names)
	return names
}

// Bindings returns the visible bindings in sorted name order.
func (env *Env) Bindings() []Binding {
	names := env.Names()
	bindings := make([]Binding, len(names))
	for i, name := range names {
		t, _ := env.Lookup(name)
		bindings[i] = Binding{Name: name, Type: t}
	}
	return bindings
}
