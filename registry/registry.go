package registry

import "sync"

// Registry is the mapping hookName -> Chain (§3 HookRegistry). Lookup
// distinguishes "no such chain" (nil, false) from "chain exists but is
// empty" (non-nil Chain with Len() == 0).
//
// Chains are rebuilt copy-on-write on every ApplyBatch so a reader that
// obtained a *Chain under RLock continues to see a self-consistent
// snapshot even while a concurrent reload is in flight (§5 "Reads must
// see a consistent chain (snapshot or reader lock)").
type Registry struct {
	mu     sync.RWMutex
	chains map[string]*Chain
}

func New() *Registry {
	return &Registry{chains: make(map[string]*Chain)}
}

// Lookup returns the chain registered for hookName, if any.
func (r *Registry) Lookup(hookName string) (*Chain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[hookName]
	return c, ok
}

// ApplyBatch atomically replaces every function previously contributed by
// source with fns (§4.1 "When reloading a module, first remove all
// functions that carry the reloaded module's source, then insert the
// freshly discovered ones"). fns need not all share one hook name, though
// in practice a single module's exports usually do not either.
func (r *Registry) ApplyBatch(source string, fns []*Function) {
	r.mu.Lock()
	defer r.mu.Unlock()

	touched := make(map[string]struct{})
	for hookName, c := range r.chains {
		if c.hasSource(source) {
			touched[hookName] = struct{}{}
		}
	}
	for _, fn := range fns {
		touched[fn.HookName] = struct{}{}
	}

	for hookName := range touched {
		old := r.chains[hookName]
		nc := newChain()
		if old != nil {
			for _, fn := range old.fns {
				if fn.Source != source {
					nc.fns = append(nc.fns, fn)
				}
			}
		}
		r.chains[hookName] = nc
	}
	for _, fn := range fns {
		r.chains[fn.HookName].fns = append(r.chains[fn.HookName].fns, fn)
	}
	for hookName := range touched {
		r.chains[hookName].sort()
	}
}

// HookNames returns a snapshot of every registered hook name, regardless
// of whether its chain is currently empty.
func (r *Registry) HookNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	return names
}

func (c *Chain) hasSource(source string) bool {
	for _, fn := range c.fns {
		if fn.Source == source {
			return true
		}
	}
	return false
}
