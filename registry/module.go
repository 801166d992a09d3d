package registry

import (
	"path/filepath"
	"plugin"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ModuleSuffix is the file naming convention hook modules must follow
// (§6 "Hook module discovery": `*.hook.<lang-ext>`). hookd's single
// implementation language is Go, compiled as a Go plugin (the stdlib
// mechanism for loading an independently-built code unit at runtime — see
// DESIGN.md for why no third-party dependency covers this).
const ModuleSuffix = ".hook.so"

// Module is the external collaborator every hook file exports: the body of
// hook functions is explicitly out of scope (§1) and is supplied by
// whatever the module author builds, subject only to this interface.
type Module interface {
	// Source identifies the module; the file's basename by convention.
	Source() string
	// DefaultPriority is inherited by every exported function that does
	// not have an entry in Priorities.
	DefaultPriority() int
	// Exports lists every callable the module contributes, keyed by its
	// raw (undecoded) symbol name. Names that don't parse per the naming
	// grammar are ignored (§4.1 "Non-matching exports are ignored").
	Exports() map[string]Func
	// Priorities optionally overrides DefaultPriority per symbol name.
	Priorities() map[string]int
}

// pluginSymbol is the convention a compiled *.hook.so must satisfy:
// an exported symbol "HookModule" of type Module.
const pluginSymbol = "HookModule"

// LoadModule opens a compiled hook module and decodes its exported
// functions into Functions. Load failures (missing file, bad plugin,
// missing/misshaped HookModule symbol) are returned, not panicked — the
// caller logs them and treats the module as contributing zero functions
// (§4.1 "Loading errors ... are reported non-fatally").
func LoadModule(path string) (source string, fns []*Function, err error) {
	p, err := plugin.Open(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "open hook module %s", path)
	}
	sym, err := p.Lookup(pluginSymbol)
	if err != nil {
		return "", nil, errors.Wrapf(err, "lookup %s in %s", pluginSymbol, path)
	}
	mod, ok := sym.(Module)
	if !ok {
		modPtr, ok2 := sym.(*Module)
		if ok2 {
			mod, ok = *modPtr, true
		}
		if !ok {
			return "", nil, errors.Errorf("%s: %s does not implement registry.Module", path, pluginSymbol)
		}
	}

	source = mod.Source()
	if source == "" {
		source = filepath.Base(path)
	}
	defaultPriority := mod.DefaultPriority()
	priorities := mod.Priorities()

	for symName, fn := range mod.Exports() {
		meta, ok := ParseName(symName)
		if !ok {
			glog.Warningf("hook module %s: export %q does not match naming grammar, skipping", source, symName)
			continue
		}
		priority := defaultPriority
		if p, has := priorities[symName]; has {
			priority = p
		}
		fns = append(fns, &Function{
			Source:   source,
			HookName: meta.HookName,
			Mask:     meta.Mask,
			Priority: priority,
			Policy:   meta.Policy,
			Fn:       fn,
		})
	}
	return source, fns, nil
}

// IsHookModule reports whether name (a basename, not a full path) follows
// the module naming convention.
func IsHookModule(name string) bool {
	return strings.HasSuffix(name, ModuleSuffix)
}
