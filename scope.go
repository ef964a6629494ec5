package numexpr

import "sort"

// Scope is a set of variable bindings with an optional enclosing scope.
// Lookups search the scope and then its ancestors; assignments always bind in
// the scope itself. A Scope must not be used concurrently.
type Scope struct {
	vars   map[string]Value
	parent *Scope
}

// NewScope creates an empty scope enclosed by parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]Value), parent: parent}
}

// Get looks up a name in the scope and its ancestors.
func (s *Scope) Get(name string) (Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds a name in the scope, shadowing any binding in an ancestor.
func (s *Scope) Set(name string, v Value) {
	s.vars[name] = v
}

// Delete removes a binding from the scope itself. Bindings in ancestors are
// unaffected.
func (s *Scope) Delete(name string) {
	delete(s.vars, name)
}

// All returns every visible binding, with inner bindings taking precedence
// over those of ancestors.
func (s *Scope) All() map[string]Value {
	var chain []*Scope
	for t := s; t != nil; t = t.parent {
		chain = append(chain, t)
	}
	r := make(map[string]Value)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			r[k] = v
		}
	}
	return r
}

// Names returns the sorted names of every visible binding.
func (s *Scope) Names() []string {
	all := s.All()
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clear removes all bindings from the scope itself.
func (s *Scope) Clear() {
	for k := range s.vars {
		delete(s.vars, k)
	}
}

// Child creates a new empty scope enclosed by s.
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope {
	return s.parent
}
