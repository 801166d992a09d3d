package registry

import (
	"net/http"

	"github.com/riverhook/hookd/cmn/cos"
	"github.com/riverhook/hookd/descriptor"
)

// Args is the positional-argument bundle passed to a hook function
// (§4.2 "Hook execution phase"). Path is populated for a site-default
// invocation (`catHost$`) and, for onHookModuleChanged, carries the changed
// module's absolute path; a URI hook (`catHost$path`) never sees it.
type Args struct {
	Path    string
	Params  map[string]string
	Headers cos.Header
	Body    []byte

	// HTTPRequest/HTTPResponse/Descriptor carry the (request, response,
	// descriptor) triple for a DISPATCH-mode manual-delegation invocation
	// (§4.2 "On manual"); nil/zero for an ordinary hook invocation.
	HTTPRequest  *http.Request
	HTTPResponse http.ResponseWriter
	Descriptor   *descriptor.Descriptor
}

// Done is the continuation a hook function invokes with its result (or
// error) to signal completion. SYNC and EVENT hooks are expected to call it
// before returning; ASYNC hooks may call it later, from another goroutine
// — that call is the chain's sole suspension point (§5 "Suspension points").
// The chain driver enforces once-only (§8 "An ASYNC hook's continuation...
// must not cause the terminal callback to fire more than once").
type Done func(result interface{}, err error)

// Func is the user-provided callable a HookFunction wraps.
type Func func(ctx *Context, args Args, done Done)

// Function is a single registered hook: a typed function pointer plus the
// metadata decoded from its name or declared by its module (§3
// HookFunction). Two Functions are the same slot in a chain iff their
// Source and HookName match (§3 invariant: "two functions with the same
// (source, hookName) replace each other on reload").
type Function struct {
	Source   string // originating module identifier
	HookName string
	Mask     CategoryMask
	Priority int
	Policy   Policy
	Fn       Func
}

func (f *Function) sameSlot(other *Function) bool {
	return f.Source == other.Source && f.HookName == other.HookName
}
