package registry

import (
	"sync"
	"testing"
	"time"
)

func syncFn(result interface{}) Func {
	return func(_ *Context, _ Args, done Done) {
		done(result, nil)
	}
}

// Functions run in ascending priority order (§8 "Hook chain invocation
// order equals the ascending priority order of its matching functions").
func TestInvokeOrdersByPriority(t *testing.T) {
	r := New()
	var order []int
	record := func(i int) Func {
		return func(_ *Context, _ Args, done Done) {
			order = append(order, i)
			done(i, nil)
		}
	}

	r.ApplyBatch("mod", []*Function{
		{Source: "mod", HookName: "h", Priority: 30, Policy: PolicySync, Fn: record(30)},
		{Source: "mod", HookName: "h", Priority: 10, Policy: PolicySync, Fn: record(10)},
		{Source: "mod", HookName: "h", Priority: 20, Policy: PolicySync, Fn: record(20)},
	})

	done := make(chan struct{})
	r.Invoke("h", AllCats, Inclusive, Call, Args{}, func(result interface{}, err error) {
		close(done)
	})
	<-done

	want := []int{10, 20, 30}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// The terminal callback of CALL mode must execute on a later turn than the
// initiating call, even for an all-SYNC chain (§5, §8 "asynchrony
// guarantee").
func TestCallTerminalFiresOnLaterTurn(t *testing.T) {
	r := New()
	r.ApplyBatch("mod", []*Function{
		{Source: "mod", HookName: "h", Policy: PolicySync, Fn: syncFn("done")},
	})

	fired := make(chan struct{})
	var calledBeforeReturn bool
	r.Invoke("h", AllCats, Inclusive, Call, Args{}, func(interface{}, error) {
		close(fired)
	})
	select {
	case <-fired:
		calledBeforeReturn = true
	default:
	}
	if calledBeforeReturn {
		t.Fatalf("terminal callback fired synchronously from Invoke")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("terminal callback never fired")
	}
}

// An ASYNC hook's continuation invoked more than once must not fire the
// terminal callback more than once (§8).
func TestAsyncContinuationOnceOnly(t *testing.T) {
	r := New()
	var storedDone Done
	var once sync.WaitGroup
	once.Add(1)

	r.ApplyBatch("mod", []*Function{
		{Source: "mod", HookName: "h", Policy: PolicyAsync, Fn: func(_ *Context, _ Args, done Done) {
			storedDone = done
			once.Done()
		}},
	})

	var fireCount int
	var mu sync.Mutex
	allDone := make(chan struct{})
	r.Invoke("h", AllCats, Inclusive, Call, Args{}, func(interface{}, error) {
		mu.Lock()
		fireCount++
		mu.Unlock()
		select {
		case <-allDone:
		default:
			close(allDone)
		}
	})

	once.Wait()
	storedDone("first", nil)
	storedDone("second", nil)
	storedDone("third", nil)

	<-allDone
	time.Sleep(50 * time.Millisecond) // let any spurious extra fire land

	mu.Lock()
	defer mu.Unlock()
	if fireCount != 1 {
		t.Fatalf("terminal callback fired %d times, want 1", fireCount)
	}
}

// Check is false for a hook name with no chain, true for a chain with a
// matching function, and respects the match mode (§4.1 "Chain queries").
func TestCheck(t *testing.T) {
	r := New()
	if r.Check("missing", AllCats, Inclusive) {
		t.Fatalf("Check on unregistered hook name must be false")
	}

	r.ApplyBatch("mod", []*Function{
		{Source: "mod", HookName: "h", Mask: 0b01, Policy: PolicySync, Fn: syncFn(nil)},
	})
	if !r.Check("h", 0b01, Inclusive) {
		t.Fatalf("Check should match overlapping mask under INCLUSIVE")
	}
	if r.Check("h", 0b10, Strict) {
		t.Fatalf("Check should not match a disjoint mask under STRICT")
	}
}

// InvokeSync skips ASYNC functions and returns the SYNC lastResult
// directly (§4.1 table, CallSync column).
func TestInvokeSyncSkipsAsync(t *testing.T) {
	r := New()
	r.ApplyBatch("mod", []*Function{
		{Source: "mod", HookName: "h", Priority: 0, Policy: PolicySync, Fn: syncFn("sync-result")},
		{Source: "mod", HookName: "h", Priority: 1, Policy: PolicyAsync, Fn: func(_ *Context, _ Args, done Done) {
			t.Fatalf("ASYNC function must not run under CallSync")
		}},
	})

	result, err := r.InvokeSync("h", AllCats, Inclusive, Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "sync-result" {
		t.Fatalf("result = %v, want sync-result", result)
	}
}
