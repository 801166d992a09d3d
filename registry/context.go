package registry

// Context is the per-invocation record threaded through one chain call
// (§3 Context). It is created fresh for each Call/CallSync/Dispatch and
// discarded once the terminal continuation fires — it is never shared
// across requests (§5 "context is per-invocation, not shared").
type Context struct {
	chain      []*Function
	mode       Mode
	reqMask    CategoryMask
	matchMode  MatchMode
	terminal   func(lastResult interface{}, err error)
	fired      bool // set once terminal has run; the sync.Once guards in executor.go enforce once-only

	lastResult interface{}
}

// LastResult returns the result left by the previously executed function
// in this chain (SYNC replaces it, EVENT preserves it, ASYNC replaces it
// with its continuation argument — §5 "Ordering guarantees").
func (c *Context) LastResult() interface{} { return c.lastResult }

// Mode selects how a chain is invoked (§4.1 "Chain invocation").
type Mode uint8

const (
	// Call runs the chain and invokes the terminal callback with the final
	// lastResult on a later turn of the event loop.
	Call Mode = iota
	// CallSync runs the chain and returns lastResult directly; any ASYNC
	// function encountered is skipped rather than suspending.
	CallSync
	// Dispatch runs the chain fire-and-forget: no terminal callback, and
	// ASYNC functions' continuations are no-ops (never suspend).
	Dispatch
)
