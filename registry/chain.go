package registry

import (
	"sort"

	"github.com/riverhook/hookd/cmn/debug"
)

// Chain is the priority-sorted sequence of Functions registered under one
// hook name (§3 HookChain). After every mutation the sequence is re-sorted
// ascending by priority; ordering among equal priorities is unspecified.
type Chain struct {
	fns []*Function
}

func newChain() *Chain { return &Chain{} }

// upsert inserts fn, or replaces the existing function from the same
// source, then re-sorts.
func (c *Chain) upsert(fn *Function) {
	for i, existing := range c.fns {
		if existing.sameSlot(fn) {
			c.fns[i] = fn
			c.sort()
			return
		}
	}
	c.fns = append(c.fns, fn)
	c.sort()
}

// removeSource drops every function whose Source matches src (used when a
// module is reloaded: "first remove all functions that carry the reloaded
// module's source, then insert the freshly discovered ones" - §4.1).
func (c *Chain) removeSource(src string) {
	kept := c.fns[:0]
	for _, fn := range c.fns {
		if fn.Source != src {
			kept = append(kept, fn)
		}
	}
	c.fns = kept
}

func (c *Chain) sort() {
	sort.SliceStable(c.fns, func(i, j int) bool {
		return c.fns[i].Priority < c.fns[j].Priority
	})
	for i := 1; i < len(c.fns); i++ {
		debug.Assert(c.fns[i-1].Priority <= c.fns[i].Priority, "chain not sorted ascending by priority")
	}
}

// Len reports the number of functions currently in the chain (empty is
// distinct from "no such chain" at the registry level, per §3's invariant).
func (c *Chain) Len() int { return len(c.fns) }

// matching returns, in priority order, the functions that participate
// under the given request mask and match mode.
func (c *Chain) matching(reqMask CategoryMask, mode MatchMode) []*Function {
	out := make([]*Function, 0, len(c.fns))
	for _, fn := range c.fns {
		if fn.Mask.Matches(reqMask, mode) {
			out = append(out, fn)
		}
	}
	return out
}

// Check reports whether at least one function in the chain matches
// (§4.1 "Chain queries" / checkTarget).
func (c *Chain) Check(reqMask CategoryMask, mode MatchMode) bool {
	for _, fn := range c.fns {
		if fn.Mask.Matches(reqMask, mode) {
			return true
		}
	}
	return false
}
