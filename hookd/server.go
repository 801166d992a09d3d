package hookd

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/riverhook/hookd/cache"
	"github.com/riverhook/hookd/config"
	"github.com/riverhook/hookd/metrics"
	"github.com/riverhook/hookd/registry"
)

// Server is the daemon process: the Request Dispatcher bound to one
// ServerConfig, its hook Registry + Watcher, and its Response Cache (§4.2,
// §4.1, §4.3). It promotes the teacher's global counters/ad-hoc fields
// (§9 design notes) to explicit atomic fields.
type Server struct {
	cfg     *config.ServerConfig
	reg     *registry.Registry
	watcher *registry.Watcher
	cache   *cache.ResponseCache
	metrics *metrics.Metrics

	// sfGroup collapses concurrent cache misses for the same key into one
	// hook-chain execution (see hookd/dispatcher.go's handle).
	sfGroup singleflight.Group

	// lastEvictions tracks the cache's cumulative eviction count last
	// folded into metrics.CacheEvictions, so repeated snapshots only Add
	// the delta onto the monotonic Prometheus counter.
	lastEvictions atomic.Int64

	// pendingUploads is the process-wide counter of bytes currently
	// buffered across in-flight request bodies (§3 ServerConfig,
	// §5 "pendingUploads counter is process-wide and must be updated
	// atomically").
	pendingUploads atomic.Int64

	plainListeners  []net.Listener
	secureListeners []net.Listener
	httpServers     []*http.Server

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg *config.ServerConfig) (*Server, error) {
	reg := registry.New()
	watcher, err := registry.NewWatcher(reg, cfg.Basedir, cfg.WatchRecursive)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		reg:     reg,
		watcher: watcher,
		cache:   cache.New(cfg.CacheSize),
		metrics: metrics.New(),
		stopCh:  make(chan struct{}),
	}, nil
}

func (s *Server) Name() string { return "hookd" }

// MustRegister exposes s's Prometheus collectors on reg (ambient metrics
// wiring; see SPEC_FULL.md's domain-stack table).
func (s *Server) MustRegister(reg prometheus.Registerer) {
	s.metrics.MustRegister(reg)
}

// Run binds every listener and blocks serving requests until Stop is
// called or a fatal listener error occurs (mirrors the teacher's rungroup
// member contract, §9 "graceful shutdown").
func (s *Server) Run() error {
	go func() {
		if err := s.watcher.Run(); err != nil {
			glog.Errorf("hook watcher exited: %v", err)
		}
	}()

	plain, secure, err := buildListeners(s.cfg)
	if err != nil {
		return err
	}
	s.plainListeners, s.secureListeners = plain, secure

	var g errgroup.Group
	serve := func(ln net.Listener, srv *http.Server) func() error {
		return func() error {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	}

	for _, ln := range plain {
		srv := &http.Server{Handler: s.handler(false)}
		s.httpServers = append(s.httpServers, srv)
		g.Go(serve(ln, srv))
	}
	for _, ln := range secure {
		srv := &http.Server{Handler: s.handler(true)}
		s.httpServers = append(s.httpServers, srv)
		g.Go(serve(ln, srv))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait() }()

	select {
	case <-s.stopCh:
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop begins graceful shutdown: listeners stop accepting, in-flight
// requests are given cfg.ShutdownGrace to drain, then the watcher stops.
func (s *Server) Stop(error) {
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
		defer cancel()
		var g errgroup.Group
		for _, srv := range s.httpServers {
			srv := srv
			g.Go(func() error { return srv.Shutdown(ctx) })
		}
		if err := g.Wait(); err != nil {
			glog.Warningf("listener shutdown: %v", err)
		}
		s.watcher.Stop(nil)
		close(s.stopCh)
	})
}

// handler returns the top-level http.Handler wired to Dispatcher.ServeHTTP,
// tagging each connection with whether it arrived over TLS so the
// plaintext-upgrade policy (§4.2 step 2) can act on it.
func (s *Server) handler(isTLS bool) http.Handler {
	d := &Dispatcher{srv: s, isTLS: isTLS}
	return d
}
