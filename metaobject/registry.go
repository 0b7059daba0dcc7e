package metaobject

import (
	"fmt"
	"sort"
	"sync"
)

// Registry publishes finished meta-objects under their class name.
// Registration is idempotent: registering the same record again leaves the
// registry unchanged.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*MetaObject
}

// Default is the process-wide registry used by generated code.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*MetaObject)}
}

// Register publishes mo. Registering a record equal to the one already
// present is a no-op; a different record under the same name is an error.
func (r *Registry) Register(mo *MetaObject) error {
	if mo == nil || mo.ClassName == "" {
		return fmt.Errorf("%w: missing class name", ErrMalformedBlob)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.classes[mo.ClassName]; ok {
		if prev == mo || prev.Equal(mo) {
			return nil
		}
		return fmt.Errorf("%w: class %q is already registered with a different meta-object", ErrConflictingRegistration, mo.ClassName)
	}
	r.classes[mo.ClassName] = mo
	return nil
}

// RegisterAll registers every record in order and stops at the first error.
func (r *Registry) RegisterAll(mos ...*MetaObject) error {
	for _, mo := range mos {
		if err := r.Register(mo); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the record registered for name. Both dispatch-capable and
// value-only classes are visible here.
func (r *Registry) Lookup(name string) (*MetaObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mo, ok := r.classes[name]
	return mo, ok
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// SuperChain walks from name towards the root. The walk ends at the empty
// superclass sentinel or at the first ancestor that is not registered, which
// is still included by name. Cycles end the walk at the repeated class.
func (r *Registry) SuperChain(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var chain []string
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		seen[name] = true
		chain = append(chain, name)
		mo, ok := r.classes[name]
		if !ok {
			break
		}
		name = mo.SuperClass
	}
	return chain
}

// Inherits reports whether class name is ancestor or derives from it. Only
// dispatch-capable classes take part in identity checks.
func (r *Registry) Inherits(name, ancestor string) (bool, error) {
	mo, ok := r.Lookup(name)
	if !ok {
		return false, fmt.Errorf("class %q is not registered", name)
	}
	if !mo.DispatchCapable() {
		return false, fmt.Errorf("%w: %s", ErrNotDispatchCapable, name)
	}
	for _, c := range r.SuperChain(name) {
		if c == ancestor {
			return true, nil
		}
	}
	return false, nil
}
