package registry

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"

	"github.com/riverhook/hookd/cache"
)

// OnModuleChanged is the built-in event-style hook name the watcher fires
// after every reload batch, once per changed module, with that module's
// absolute path (§4.1 "Filesystem watcher", §6 "Built-in hook names").
const OnModuleChanged = "onHookModuleChanged"

// quiescence is the coalescing window: a burst of filesystem events is
// collapsed into a single reload batch once the filesystem goes quiet for
// this long (§4.1 "Coalesce filesystem events over a 200 ms quiescence
// window into a single reload batch").
const quiescence = 200 * time.Millisecond

// Watcher discovers hook modules under a base directory at startup and
// reloads them as they change on disk.
type Watcher struct {
	reg       *Registry
	basedir   string
	recursive bool

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	pending map[string]struct{} // paths changed since the last reload batch
}

func NewWatcher(reg *Registry, basedir string, recursive bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		reg:       reg,
		basedir:   basedir,
		recursive: recursive,
		fsw:       fsw,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		pending:   make(map[string]struct{}),
	}
	return w, nil
}

func (w *Watcher) Name() string { return "hook-watcher" }

// Run performs the initial module discovery, then watches basedir for
// changes until Stop is called.
func (w *Watcher) Run() error {
	defer close(w.doneCh)

	if err := w.addDirs(w.basedir); err != nil {
		return err
	}
	w.initialLoad()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case <-w.stopCh:
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !IsHookModule(filepath.Base(ev.Name)) {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.mu.Unlock()
			if !timerArmed {
				timer.Reset(quiescence)
				timerArmed = true
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(quiescence)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			glog.Warningf("hook watcher: %v", err)

		case <-timer.C:
			timerArmed = false
			w.flush()
		}
	}
}

func (w *Watcher) Stop(error) {
	close(w.stopCh)
	w.fsw.Close()
	<-w.doneCh
}

func (w *Watcher) addDirs(root string) error {
	if err := w.fsw.Add(root); err != nil {
		return err
	}
	if !w.recursive {
		return nil
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == root {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) initialLoad() {
	_ = filepath.Walk(w.basedir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !IsHookModule(filepath.Base(path)) {
			return nil
		}
		w.reload(path)
		return nil
	})
}

// flush drains the pending set accumulated during the quiescence window
// into one reload batch, then fires onHookModuleChanged once per changed
// module with its absolute path.
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	// The coalesced batch is queued and drained in FIFO order. flush runs
	// on Run's loop goroutine, so no new events are read while it reloads.
	q := cache.NewQueue[string](len(paths) + 1)
	for _, p := range paths {
		q.Push(p)
	}
	changed := make([]string, 0, len(paths))
	for {
		p, ok := q.Pop()
		if !ok {
			break
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.reload(p)
		changed = append(changed, abs)
	}
	for _, abs := range changed {
		w.reg.Invoke(OnModuleChanged, AllCats, Inclusive, Dispatch, Args{Path: abs}, nil)
	}
}

// reload loads (or re-loads) a single module and applies its functions.
// Load failures are logged and leave the module contributing zero
// functions, without affecting any other module (§4.1, §7).
func (w *Watcher) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		// File removed: still clear its prior contributions using its
		// basename as the source identity.
		w.reg.ApplyBatch(filepath.Base(path), nil)
		return
	}
	source, fns, err := LoadModule(path)
	if err != nil {
		glog.Errorf("hook module %s: load failed: %v", path, err)
		w.reg.ApplyBatch(filepath.Base(path), nil)
		return
	}
	w.reg.ApplyBatch(source, fns)
}
