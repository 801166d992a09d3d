package hookd

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/glog"
)

// uploadChunkSize bounds how much of the body is read per iteration, so the
// pendingUploads admission check runs against the storage limit before an
// unbounded amount is buffered in one shot.
const uploadChunkSize = 64 * 1024

// collectBody implements §4.2 "Body collection": Content-Length admission
// before any read, chunked accumulation against the process-wide storage
// limit, and content-type-driven parsing of the accumulated bytes. It
// reports ok=false after already writing a terminal response (406/500).
func (d *Dispatcher) collectBody(w http.ResponseWriter, r *http.Request) (body []byte, params map[string]string, ok bool) {
	if r.ContentLength > 0 && r.ContentLength > d.srv.cfg.UploadMaxUnitSize {
		d.srv.metrics.UploadsRejected.Inc()
		writeStatus(w, http.StatusNotAcceptable)
		return nil, nil, false
	}

	var accumulated int64
	buf := make([]byte, uploadChunkSize)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			accumulated += int64(n)
			if d.srv.pendingUploads.Add(int64(n)) > d.srv.cfg.UploadMaxStorage {
				d.srv.pendingUploads.Sub(accumulated)
				d.srv.metrics.UploadsRejected.Inc()
				writeStatus(w, http.StatusNotAcceptable)
				return nil, nil, false
			}
			d.srv.metrics.PendingUploads.Set(float64(d.srv.pendingUploads.Load()))
			body = append(body, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			d.srv.pendingUploads.Sub(accumulated)
			d.srv.metrics.PendingUploads.Set(float64(d.srv.pendingUploads.Load()))
			glog.Errorf("body read aborted: %v", err)
			writeStatus(w, http.StatusInternalServerError)
			return nil, nil, false
		}
	}
	d.srv.pendingUploads.Sub(accumulated)
	d.srv.metrics.PendingUploads.Set(float64(d.srv.pendingUploads.Load()))

	contentType := r.Header.Get("Content-Type")
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	if strings.TrimSpace(contentType) == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			glog.Warningf("form body parse failed: %v", err)
			return body, nil, true
		}
		params = make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		return body, params, true
	}

	return body, nil, true
}
