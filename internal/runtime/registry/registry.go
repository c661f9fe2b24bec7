// Package registry provides the shared name-to-process table that callers
// resolve services through. Individual operations are atomic; nothing is
// guaranteed across a lookup+bind pair, so takeover protocols must re-verify
// after acting.
package registry

import (
	"errors"
	"sync"

	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

var (
	// ErrNameTaken is returned by Bind when the name already resolves.
	ErrNameTaken = errors.New("wiretap: name already bound")

	// ErrDeadProcess is returned by Bind when the ref has already exited.
	ErrDeadProcess = errors.New("wiretap: cannot bind a dead process")
)

// Registry is the discovery surface the wiretap runtime installs against.
// Implementations must serialize concurrent Bind/Unbind per name.
type Registry interface {
	Lookup(name string) (*procpkg.Ref, bool)
	Bind(name string, ref *procpkg.Ref) error
	Unbind(name string)
}

// Table is the in-memory Registry used for single-node deployments. A
// process is not unbound automatically when it dies; the binding dangles
// until someone repairs it.
type Table struct {
	mu      sync.Mutex
	entries map[string]*procpkg.Ref
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*procpkg.Ref)}
}

// Lookup resolves name to the currently bound ref.
func (t *Table) Lookup(name string) (*procpkg.Ref, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.entries[name]
	return ref, ok
}

// Bind associates name with ref. It fails when the name is already bound or
// the ref is dead.
func (t *Table) Bind(name string, ref *procpkg.Ref) error {
	if !ref.Alive() {
		return ErrDeadProcess
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; ok {
		return ErrNameTaken
	}
	t.entries[name] = ref
	return nil
}

// Unbind removes the binding for name. Unbinding an absent name is a no-op.
func (t *Table) Unbind(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, name)
}

// Names returns the currently bound names, for introspection and logs.
func (t *Table) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	return names
}
