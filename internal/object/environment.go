package object

import (
	"fmt"
	"log/slog"
)

// Environment is one scope in the lexical chain. A run owns a single root
// environment; blocks and calls push enclosed environments on top of it.
// Evaluation is single-threaded by contract, so no locking is needed here.
type Environment struct {
	Bindings map[string]Object
	Outer    *Environment
}

func NewEnvironment() *Environment {
	return &Environment{
		Bindings: make(map[string]Object),
	}
}

// NewEnclosedEnvironment creates a child scope. The child keeps its parent
// alive; closures rely on that to outlive the call frame they were born in.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Define creates a binding in this scope. Redeclaring a name already present
// in the same scope is an error; shadowing an outer binding is fine.
func (e *Environment) Define(name string, val Object) (Object, error) {
	if _, exists := e.Bindings[name]; exists {
		return nil, fmt.Errorf("'%s' is already defined in this scope", name)
	}

	e.Bindings[name] = val

	slog.Debug("binding defined",
		slog.String("name", name),
		slog.String("type", string(val.Type())))
	return val, nil
}

// Get resolves a name through the scope chain, nearest scope first.
func (e *Environment) Get(name string) (Object, bool) {
	if val, ok := e.Bindings[name]; ok {
		return val, true
	}
	if e.Outer != nil {
		return e.Outer.Get(name)
	}
	return nil, false
}

// Assign mutates the nearest enclosing scope that already defines the name.
// Assignment never creates a binding.
func (e *Environment) Assign(name string, val Object) (Object, error) {
	if _, exists := e.Bindings[name]; exists {
		e.Bindings[name] = val
		slog.Debug("binding assigned",
			slog.String("name", name),
			slog.String("type", string(val.Type())))
		return val, nil
	}

	if e.Outer != nil {
		return e.Outer.Assign(name, val)
	}
	return nil, fmt.Errorf("'%s' is not defined in any accessible scope", name)
}
