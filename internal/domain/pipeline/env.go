package pipeline

import (
	"sort"
	"strings"
)

// Binding is one contribution to the environment descriptor. The
// contributor names the component that added the value, which keeps the
// descriptor explainable when two backends would disagree.
type Binding struct {
	Variable    string
	Contributor string
	Value       string
}

// listVariables are colon-joined search paths. Contributions to these
// accumulate in order; every other variable is last-writer-wins.
var listVariables = map[string]bool{
	"PATH":            true,
	"CPATH":           true,
	"LIBRARY_PATH":    true,
	"LD_LIBRARY_PATH": true,
	"PKG_CONFIG_PATH": true,
	"PYTHONPATH":      true,
}

// Env is an immutable, ordered environment descriptor. With returns a new
// descriptor; the receiver is never modified.
type Env struct {
	bindings []Binding
}

// NewEnv creates an empty descriptor.
func NewEnv() Env {
	return Env{}
}

// With appends one binding and returns the extended descriptor.
func (e Env) With(variable, contributor, value string) Env {
	next := make([]Binding, len(e.bindings), len(e.bindings)+1)
	copy(next, e.bindings)
	next = append(next, Binding{Variable: variable, Contributor: contributor, Value: value})
	return Env{bindings: next}
}

// Bindings returns a copy of all bindings in contribution order.
func (e Env) Bindings() []Binding {
	out := make([]Binding, len(e.bindings))
	copy(out, e.bindings)
	return out
}

// Len returns the number of bindings.
func (e Env) Len() int {
	return len(e.bindings)
}

// Variables returns the distinct variable names, sorted.
func (e Env) Variables() []string {
	seen := make(map[string]bool, len(e.bindings))
	out := make([]string, 0, len(e.bindings))
	for _, b := range e.bindings {
		if !seen[b.Variable] {
			seen[b.Variable] = true
			out = append(out, b.Variable)
		}
	}
	sort.Strings(out)
	return out
}

// Value renders the merged value of one variable. List variables join
// their contributions with ":"; scalars take the last contribution.
func (e Env) Value(variable string) (string, bool) {
	merged, ok := e.merge()[variable]
	return merged, ok
}

// merge folds the bindings into final per-variable values.
func (e Env) merge() map[string]string {
	out := make(map[string]string, len(e.bindings))
	for _, b := range e.bindings {
		if listVariables[b.Variable] {
			if existing, ok := out[b.Variable]; ok && existing != "" {
				out[b.Variable] = existing + ":" + b.Value
				continue
			}
		}
		out[b.Variable] = b.Value
	}
	return out
}

// Environ renders the descriptor over a base process environment, in the
// form exec.Cmd expects. Descriptor list paths are prepended ahead of any
// base value so provisioned tools shadow system ones; scalar variables are
// replaced outright. Variables absent from the base are appended sorted,
// so the rendering is deterministic.
func (e Env) Environ(base []string) []string {
	merged := e.merge()
	consumed := make(map[string]bool, len(merged))

	out := make([]string, 0, len(base)+len(merged))
	for _, kv := range base {
		name, baseValue, ok := strings.Cut(kv, "=")
		if !ok {
			out = append(out, kv)
			continue
		}
		value, contributes := merged[name]
		if !contributes {
			out = append(out, kv)
			continue
		}
		consumed[name] = true
		if listVariables[name] && baseValue != "" {
			out = append(out, name+"="+value+":"+baseValue)
		} else {
			out = append(out, name+"="+value)
		}
	}

	fresh := make([]string, 0, len(merged))
	for name, value := range merged {
		if !consumed[name] {
			fresh = append(fresh, name+"="+value)
		}
	}
	sort.Strings(fresh)
	return append(out, fresh...)
}
