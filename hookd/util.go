package hookd

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"github.com/riverhook/hookd/config"
)

// statusRecorder wraps a ResponseWriter to capture the status code written
// (for the "status_class" metrics label, §9 domain-stack wiring) while
// still passing Hijack through for the "unknown host" connection-destroy
// path (§4.2 step 3).
type statusRecorder struct {
	http.ResponseWriter
	status   int
	hijacked bool
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("statusRecorder: underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

// statusClass reports the Prometheus status_class label: "hijacked" for a
// destroyed connection that never got a response, else "Nxx" — defaulting
// to 200 for a handler that wrote a body without an explicit WriteHeader.
func (s *statusRecorder) statusClass() string {
	if s.hijacked {
		return "hijacked"
	}
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status/100) + "xx"
}

// writeStatus emits a minimal plain-text error body for status, matching
// descriptor.Render's own error-path rendering (§4.2, §7).
func writeStatus(w http.ResponseWriter, status int) {
	body := []byte(fmt.Sprintf("%d %s\n", status, http.StatusText(status)))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

// hijackAndClose destroys the underlying connection without writing a
// response (§4.2 step 3, §7 "Unknown host ... connection destroyed").
func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		glog.Warningf("hijack failed: %v", err)
		return
	}
	conn.Close()
}

// resolveSite implements §4.2 step 3: Host header verbatim, then "!" if
// the host is empty, else "*" as catch-all.
func resolveSite(cfg *config.ServerConfig, host string) (*config.SiteConfig, bool) {
	if s, ok := cfg.Sites[host]; ok {
		return &s, true
	}
	if host == "" {
		if s, ok := cfg.Sites[config.HostEmpty]; ok {
			return &s, true
		}
		return nil, false
	}
	if s, ok := cfg.Sites[config.HostCatchAll]; ok {
		return &s, true
	}
	return nil, false
}
