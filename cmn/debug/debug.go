// Package debug provides cheap invariant assertions that the teacher's
// packages sprinkle through concurrency-sensitive code paths (chain
// mutation, cache bookkeeping, LRU relinking). Kept unconditional: this
// daemon's assertions guard protocol invariants, not perf-sensitive hot
// loops, so there is no "debug build" tag gating them as in the teacher.
package debug

import (
	"fmt"

	"github.com/golang/glog"
)

func Assert(cond bool, a ...interface{}) {
	if !cond {
		fail(a...)
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		fail(fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(a ...interface{}) {
	msg := "DEBUG PANIC: " + fmt.Sprint(a...)
	glog.Errorln(msg)
	glog.Flush()
	panic(msg)
}
