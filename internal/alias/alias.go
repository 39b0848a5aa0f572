// Package alias stores name → target bindings consumed during subprocess
// spec construction. Targets are a closed set of variants; resolution logic
// lives in the proc package, which walks bindings until it reaches a literal
// command, a callable, or nothing.
package alias

import (
	"io"
	"sort"
	"sync"
)

// Target is one alias binding. Implementations are the only valid variants:
// Command, Tokens, Func and Modifier.
type Target interface {
	aliasTarget()
}

// Command is a recursive command-string target. It is re-tokenized with
// shell-style quoting rules when resolved, and its head may itself be an
// alias.
type Command string

// Tokens is a recursive token-sequence target spliced verbatim in place of
// the alias name.
type Tokens []string

// Func is a callable target executed in-process. It receives the resolved
// argv (including the alias name at position zero), the wired standard
// streams, and returns an exit code.
type Func func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

// Modifier overrides execution attributes of the remainder of a command
// chain instead of contributing a new command. Nil fields leave the
// corresponding attribute untouched.
type Modifier struct {
	Threadable      *bool
	ForceThreadable *bool
}

func (Command) aliasTarget()  {}
func (Tokens) aliasTarget()   {}
func (Func) aliasTarget()     {}
func (Modifier) aliasTarget() {}

// Bool returns a pointer to v, for populating Modifier fields inline.
func Bool(v bool) *bool {
	return &v
}

// Registry is a concurrency-safe name → Target store. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Set binds name to target, replacing any previous binding.
func (r *Registry) Set(name string, target Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[name] = target
}

// Lookup returns the target bound to name.
func (r *Registry) Lookup(name string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.targets[name]
	return target, ok
}

// Delete removes the binding for name if present.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, name)
}

// Names returns all bound names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
