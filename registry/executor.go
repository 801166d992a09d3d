package registry

import "sync"

// Invoke drives a hook chain in Call or Dispatch mode (§4.1 "Chain
// invocation - general model"). For Call, terminal is invoked with the
// chain's final lastResult on a later goroutine scheduling turn, never
// synchronously from this call (§5 "Suspension points" / §8 "asynchrony
// guarantee"). For Dispatch, terminal is ignored (nil is fine) and ASYNC
// functions never suspend the loop.
//
// The caller is expected to have already established that the chain
// exists (via Check/Lookup); Invoke on a missing or empty chain simply
// fires the terminal (Call) or returns (Dispatch) with a nil result.
func (r *Registry) Invoke(hookName string, reqMask CategoryMask, matchMode MatchMode, mode Mode, args Args, terminal func(result interface{}, err error)) {
	if mode == CallSync {
		panic("registry: Invoke does not accept CallSync; use InvokeSync")
	}
	chain, _ := r.Lookup(hookName)
	var fns []*Function
	if chain != nil {
		fns = chain.matching(reqMask, matchMode)
	}
	ctx := &Context{chain: fns, mode: mode, reqMask: reqMask, matchMode: matchMode, terminal: terminal}
	runFrom(ctx, 0, args)
}

// InvokeSync drives a hook chain in CallSync mode: fully synchronous,
// ASYNC functions are skipped rather than suspending, and the final
// lastResult is returned directly (§4.1 table, CallSync column).
func (r *Registry) InvokeSync(hookName string, reqMask CategoryMask, matchMode MatchMode, args Args) (result interface{}, err error) {
	chain, _ := r.Lookup(hookName)
	var fns []*Function
	if chain != nil {
		fns = chain.matching(reqMask, matchMode)
	}
	ctx := &Context{chain: fns, mode: CallSync, reqMask: reqMask, matchMode: matchMode}
	var lastErr error
	for _, fn := range fns {
		if fn.Policy == PolicyAsync {
			continue // "skipped" per the CallSync column
		}
		res, e := callSyncLike(ctx, fn, args)
		if fn.Policy == PolicySync {
			ctx.lastResult, lastErr = res, e
		}
		// PolicyEvent: lastResult/err left unchanged regardless of res/e.
		_ = e
	}
	return ctx.lastResult, lastErr
}

// Check reports whether the named chain exists and has at least one
// function matching reqMask under mode (§4.1 "Chain queries").
func (r *Registry) Check(hookName string, reqMask CategoryMask, mode MatchMode) bool {
	chain, ok := r.Lookup(hookName)
	if !ok {
		return false
	}
	return chain.Check(reqMask, mode)
}

func runFrom(ctx *Context, idx int, args Args) {
	for idx < len(ctx.chain) {
		fn := ctx.chain[idx]

		switch fn.Policy {
		case PolicySync, PolicyEvent:
			res, err := callSyncLike(ctx, fn, args)
			if fn.Policy == PolicySync && ctx.mode != Dispatch {
				ctx.lastResult = res
			}
			_ = err
			idx++
			continue

		case PolicyAsync:
			switch ctx.mode {
			case Dispatch:
				// Run it; its continuation is a no-op and the loop never
				// waits for it (§4.1 table, DISPATCH/ASYNC cell).
				fn.Fn(ctx, args, func(interface{}, error) {})
				idx++
				continue
			default: // Call
				resumeIdx := idx + 1
				var once sync.Once
				done := func(result interface{}, err error) {
					once.Do(func() {
						ctx.lastResult = result
						runFrom(ctx, resumeIdx, args)
					})
				}
				fn.Fn(ctx, args, done)
				return // suspend: do not advance the loop synchronously
			}
		}
	}
	fireTerminal(ctx)
}

// callSyncLike invokes a SYNC/EVENT function, which is expected to call its
// done continuation synchronously before returning; a function that never
// calls done is treated as having produced a nil result.
func callSyncLike(ctx *Context, fn *Function, args Args) (result interface{}, err error) {
	var called bool
	fn.Fn(ctx, args, func(r interface{}, e error) {
		called = true
		result, err = r, e
	})
	_ = called
	return result, err
}

func fireTerminal(ctx *Context) {
	if ctx.mode != Call || ctx.terminal == nil {
		return
	}
	var once sync.Once
	fireOnce := func() {
		once.Do(func() {
			ctx.fired = true
			ctx.terminal(ctx.lastResult, nil)
		})
	}
	// Never call the terminal synchronously from this call site (§5,
	// §8 "terminal callback ... executes on a later turn").
	go fireOnce()
}
