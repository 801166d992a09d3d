package descriptor

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"github.com/riverhook/hookd/cmn/cos"
)

// Render writes d onto w per §4.2 "Response rendering". It reports whether
// the rendered response is eligible for cache insertion (§4.2 "Cache
// insertion"): d.Cacheable() for a bytes/text body, false for a stream, an
// empty body, or an invalid status.
//
// Render assumes the caller has already handled d.Manual and d.Error
// specially (manual delegation and the error path both need
// request/registry context Render doesn't have); by the time Render
// runs, d is expected to be Valid() with Manual == "".
func Render(w http.ResponseWriter, d *Descriptor, stage1Us, stage2Us int64) (cacheable bool) {
	if !d.StatusSet || d.Status < 100 || d.Status >= 600 {
		glog.Errorf("render: invalid status %d", d.Status)
		writeSimpleError(w, http.StatusInternalServerError)
		return false
	}

	for name, val := range d.Headers {
		if !cos.IsValidHeaderValue(val) {
			glog.Warningf("render: skipping invalid header %q", name)
			continue
		}
		w.Header().Set(name, val)
	}

	if d.EntityTagSet {
		w.Header().Set("ETag", d.EntityTag)
	}
	if d.MaxAgeSet {
		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d, must-revalidate", d.MaxAge))
	}

	contentType := d.DataType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-GMetrics", fmt.Sprintf("%dus, %dus", stage1Us, stage2Us))

	switch d.Data.Kind {
	case KindBytes:
		w.Header().Set("Content-Length", strconv.Itoa(len(d.Data.Bytes)))
		w.WriteHeader(d.Status)
		w.Write(d.Data.Bytes)
		return d.Cacheable()

	case KindText:
		body := []byte(d.Data.Text)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(d.Status)
		w.Write(body)
		return d.Cacheable()

	case KindStream:
		if d.Data.Length > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(d.Data.Length, 10))
		}
		w.WriteHeader(d.Status)
		if _, err := io.Copy(w, d.Data.Stream); err != nil {
			glog.Errorf("render: stream copy failed: %v", err)
		}
		return false // streams are never cacheable, §4.2

	default: // KindNone / unrecognized
		w.Header().Del("Content-Type")
		w.Header().Del("ETag")
		w.Header().Del("Cache-Control")
		writeSimpleError(w, d.Status)
		return false
	}
}

func writeSimpleError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := []byte(fmt.Sprintf("%d %s\n", status, http.StatusText(status)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}
