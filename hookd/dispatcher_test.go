package hookd

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/riverhook/hookd/config"
	"github.com/riverhook/hookd/metrics"
	"github.com/riverhook/hookd/registry"
)

func newTestServer(cfg *config.ServerConfig) *Server {
	return &Server{
		cfg:     cfg,
		reg:     registry.New(),
		metrics: metrics.New(),
	}
}

type panicOnReadBody struct{}

func (panicOnReadBody) Read([]byte) (int, error) {
	panic("body must not be read once admission control rejects the request")
}
func (panicOnReadBody) Close() error { return nil }

// Plaintext upgrade policy (§8 boundary scenario 4).
var _ = Describe("plaintext upgrade policy", func() {
	var (
		srv *Server
		d   *Dispatcher
	)

	BeforeEach(func() {
		cfg := config.Defaults()
		cfg.Addrs = []string{"0.0.0.0"}
		cfg.Basedir = "/srv/hooks"
		cfg.Secure = &config.TLSConfig{Certificate: "c.pem", Key: "k.pem"}
		cfg.PlaintextPolicy = config.PlaintextUpgrade
		srv = newTestServer(cfg)
		d = &Dispatcher{srv: srv, isTLS: false}
	})

	It("redirects a GET with Upgrade-Insecure-Requests with a 301 to https", func() {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/a/b?q=1", nil)
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		rec := httptest.NewRecorder()

		handled := d.redirectPlaintext(rec, req)

		Expect(handled).To(BeTrue())
		Expect(rec.Code).To(Equal(http.StatusMovedPermanently))
		Expect(rec.Header().Get("Location")).To(Equal("https://example.com/a/b?q=1"))
		Expect(rec.Header().Get("Vary")).To(Equal("Upgrade-Insecure-Requests"))
	})

	It("does not redirect a GET without the upgrade header", func() {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/a", nil)
		rec := httptest.NewRecorder()

		handled := d.redirectPlaintext(rec, req)

		Expect(handled).To(BeFalse())
	})

	It("redirects a POST with the upgrade header with a 308", func() {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/a", nil)
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		rec := httptest.NewRecorder()

		handled := d.redirectPlaintext(rec, req)

		Expect(handled).To(BeTrue())
		Expect(rec.Code).To(Equal(http.StatusPermanentRedirect))
	})

	It("always redirects under the reject policy, header or not", func() {
		srv.cfg.PlaintextPolicy = config.PlaintextReject
		req := httptest.NewRequest(http.MethodGet, "http://example.com/a", nil)
		rec := httptest.NewRecorder()

		Expect(d.redirectPlaintext(rec, req)).To(BeTrue())
	})
})

// Upload admission control (§8 boundary scenario 5).
var _ = Describe("upload admission control", func() {
	It("rejects a Content-Length over the unit size with 406, without reading the body", func() {
		cfg := config.Defaults()
		cfg.Addrs = []string{"0.0.0.0"}
		cfg.Basedir = "/srv/hooks"
		cfg.UploadMaxUnitSize = 100
		srv := newTestServer(cfg)
		d := &Dispatcher{srv: srv}

		req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", panicOnReadBody{})
		req.ContentLength = 101
		rec := httptest.NewRecorder()

		body, params, ok := d.collectBody(rec, req)

		Expect(ok).To(BeFalse())
		Expect(body).To(BeNil())
		Expect(params).To(BeNil())
		Expect(rec.Code).To(Equal(http.StatusNotAcceptable))
	})
})

// Site resolution fallback (§8 boundary scenario 6).
var _ = Describe("site resolution fallback", func() {
	var cfg *config.ServerConfig

	BeforeEach(func() {
		cfg = config.Defaults()
		cfg.Addrs = []string{"0.0.0.0"}
		cfg.Basedir = "/srv/hooks"
	})

	It("resolves an empty Host to the \"!\" site", func() {
		empty := config.SiteConfig{Hosts: []string{"empty-site"}, Category: "A"}
		cfg.Sites = map[string]config.SiteConfig{config.HostEmpty: empty}

		site, ok := resolveSite(cfg, "")
		Expect(ok).To(BeTrue())
		Expect(site.CanonicalHost()).To(Equal("empty-site"))
	})

	It("falls back to the \"*\" site for an unmatched Host", func() {
		catchAll := config.SiteConfig{Hosts: []string{"catch-all"}, Category: "B"}
		cfg.Sites = map[string]config.SiteConfig{config.HostCatchAll: catchAll}

		site, ok := resolveSite(cfg, "x.example")
		Expect(ok).To(BeTrue())
		Expect(site.CanonicalHost()).To(Equal("catch-all"))
	})

	It("reports no match when \"*\" is absent for an unmatched Host", func() {
		cfg.Sites = map[string]config.SiteConfig{
			config.HostEmpty: {Hosts: []string{"empty-site"}, Category: "A"},
		}

		_, ok := resolveSite(cfg, "x.example")
		Expect(ok).To(BeFalse())
	})

	It("prefers an exact Host match over any fallback", func() {
		cfg.Sites = map[string]config.SiteConfig{
			"x.example":        {Hosts: []string{"exact"}, Category: "A"},
			config.HostCatchAll: {Hosts: []string{"catch-all"}, Category: "B"},
		}

		site, ok := resolveSite(cfg, "x.example")
		Expect(ok).To(BeTrue())
		Expect(site.CanonicalHost()).To(Equal("exact"))
	})
})
