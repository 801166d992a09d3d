package hookd

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/riverhook/hookd/cmn/cos"
	"github.com/riverhook/hookd/config"
	"github.com/riverhook/hookd/descriptor"
	"github.com/riverhook/hookd/registry"
)

// Dispatcher is the per-listener http.Handler implementing the request
// pipeline of §4.2: plaintext-upgrade policy, site resolution, method
// dispatch, body collection, hook execution, and response rendering.
type Dispatcher struct {
	srv   *Server
	isTLS bool
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()

	rec := &statusRecorder{ResponseWriter: w}
	defer func() {
		d.srv.metrics.RequestsTotal.WithLabelValues(rec.statusClass()).Inc()
	}()
	w = rec

	if !d.isTLS && d.srv.cfg.TLSEnabled() && d.redirectPlaintext(w, r) {
		return
	}

	site, ok := resolveSite(d.srv.cfg, r.Host)
	if !ok {
		glog.Warningf("[%s] no site for host %q: connection destroyed", reqID, r.Host)
		rec.hijacked = true
		hijackAndClose(w)
		return
	}

	switch r.Method {
	case http.MethodHead, http.MethodGet:
		d.handle(w, r, site, start, nil, nil)
	case http.MethodPost:
		body, bodyParams, ok := d.collectBody(w, r)
		if !ok {
			return
		}
		d.handle(w, r, site, start, body, bodyParams)
	case http.MethodOptions:
		writeStatus(w, http.StatusNotImplemented)
	default:
		writeStatus(w, http.StatusMethodNotAllowed)
	}
}

// redirectPlaintext applies §4.2 step 2. It reports whether it fully
// handled the response (a redirect was written).
func (d *Dispatcher) redirectPlaintext(w http.ResponseWriter, r *http.Request) bool {
	switch d.srv.cfg.PlaintextPolicy {
	case config.PlaintextReject:
		// always redirect
	case config.PlaintextUpgrade:
		if r.Header.Get("Upgrade-Insecure-Requests") != "1" {
			return false
		}
	default: // PlaintextNone
		return false
	}

	status := http.StatusMovedPermanently // 301
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusPermanentRedirect // 308
	}

	target := "https://" + r.Host + r.URL.RequestURI()
	body := fmt.Sprintf(`<html><body>Please continue at <a href="%s">%s</a></body></html>`,
		target, html.EscapeString(target))

	w.Header().Set("Location", target)
	w.Header().Set("Vary", "Upgrade-Insecure-Requests")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write([]byte(body))
	return true
}

// handle runs the hook-execution phase and response rendering for a
// request whose site has already been resolved (§4.2 steps 4 onward).
func (d *Dispatcher) handle(w http.ResponseWriter, r *http.Request, site *config.SiteConfig, start time.Time, body []byte, bodyParams map[string]string) {
	stage1 := time.Since(start)

	params := make(map[string]string, len(r.URL.Query())+len(bodyParams))
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if len(bodyParams) > 0 {
		for k, v := range bodyParams {
			params[k] = v
		}
	}

	headers := cos.NewHeader()
	for k, v := range r.Header {
		if len(v) > 0 {
			headers.Set(k, v[0])
		}
	}

	cacheKey := site.CanonicalHost() + "$" + r.URL.RequestURI()
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if desc, ok := d.srv.cache.Get(cacheKey, time.Now()); ok {
			d.srv.metrics.CacheHits.Inc()
			descriptor.Render(w, desc, stage1.Microseconds(), time.Since(start).Sub(stage1).Microseconds())
			return
		}
		d.srv.metrics.CacheMisses.Inc()
	}

	mask, ok := registry.CategoryBit(site.CategoryLetter())
	if !ok {
		glog.Errorf("site %q: invalid category %q", site.CanonicalHost(), site.Category)
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	trimmedPath := strings.TrimPrefix(r.URL.Path, "/")
	uriHook := site.CanonicalHost() + "$" + trimmedPath
	siteHook := site.CanonicalHost() + "$"

	var hookName string
	var args registry.Args
	switch {
	case d.srv.reg.Check(uriHook, mask, registry.Inclusive):
		hookName = uriHook
		args = registry.Args{Params: params, Headers: headers, Body: body}
	case d.srv.reg.Check(siteHook, mask, registry.Inclusive):
		hookName = siteHook
		args = registry.Args{Path: r.URL.Path, Params: params, Headers: headers, Body: body}
	default:
		writeStatus(w, http.StatusNotFound)
		return
	}

	// Concurrent GET/HEAD misses on the same cache key collapse into one
	// hook-chain execution (§5 "shared-resource policy" extended to the
	// cache miss path): a stampede of requests for a cold key runs the
	// chain once and fans the same descriptor out to every waiter.
	chainStart := time.Now()
	var desc *descriptor.Descriptor
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		v, _, _ := d.srv.sfGroup.Do(cacheKey, func() (interface{}, error) {
			return d.invokeHook(hookName, mask, args), nil
		})
		desc = v.(*descriptor.Descriptor)
	} else {
		desc = d.invokeHook(hookName, mask, args)
	}
	d.srv.metrics.HookChainLatency.WithLabelValues(hookName).Observe(time.Since(chainStart).Seconds())

	if desc.Manual != "" {
		d.dispatchManual(w, r, desc, site, mask)
		return
	}
	if desc.Error || !desc.Valid() {
		glog.Errorf("hook %s: invalid descriptor (error=%v valid=%v)", hookName, desc.Error, desc.Valid())
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	stage2 := time.Since(start) - stage1
	cacheable := descriptor.Render(w, desc, stage1.Microseconds(), stage2.Microseconds())
	if cacheable {
		size := int64(desc.Data.Len())
		expiresAt := time.Now().Add(time.Duration(desc.MaxAge) * time.Second)
		d.srv.cache.Put(cacheKey, desc, size, expiresAt)
		d.reportCacheStats()
	}
}

// reportCacheStats folds the cache's own cumulative counters into the
// process's Prometheus gauges/counters. CacheEvictions is a monotonic
// counter, so only the delta since the last report is added.
func (d *Dispatcher) reportCacheStats() {
	stats := d.srv.cache.Snapshot()
	d.srv.metrics.CacheSizeBytes.Set(float64(stats.TotalSize))
	for {
		prev := d.srv.lastEvictions.Load()
		if stats.Evictions <= prev {
			return
		}
		if d.srv.lastEvictions.CompareAndSwap(prev, stats.Evictions) {
			d.srv.metrics.CacheEvictions.Add(float64(stats.Evictions - prev))
			return
		}
	}
}

// invokeHook runs hookName's chain synchronously from the caller's
// perspective (the Executor's own CALL semantics may still suspend across
// ASYNC hooks; this just blocks until the terminal descriptor arrives).
func (d *Dispatcher) invokeHook(hookName string, mask registry.CategoryMask, args registry.Args) *descriptor.Descriptor {
	result := make(chan *descriptor.Descriptor, 1)
	d.srv.reg.Invoke(hookName, mask, registry.Inclusive, registry.Call, args, func(res interface{}, err error) {
		desc, ok := res.(*descriptor.Descriptor)
		if !ok || desc == nil {
			desc = descriptor.New()
		}
		result <- desc
	})
	return <-result
}

// dispatchManual implements §4.2 "On manual": delegate full response
// writing to another hook in DISPATCH mode, or 502 if it doesn't exist.
func (d *Dispatcher) dispatchManual(w http.ResponseWriter, r *http.Request, desc *descriptor.Descriptor, site *config.SiteConfig, mask registry.CategoryMask) {
	if !d.srv.reg.Check(desc.Manual, mask, registry.Inclusive) {
		glog.Errorf("manual target %q not found", desc.Manual)
		writeStatus(w, http.StatusBadGateway)
		return
	}
	args := registry.Args{HTTPRequest: r, HTTPResponse: w, Descriptor: desc}
	d.srv.reg.Invoke(desc.Manual, mask, registry.Inclusive, registry.Dispatch, args, nil)
}
