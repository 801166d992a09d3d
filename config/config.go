package config

import (
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/riverhook/hookd/cmn/cos"
)

// PlaintextPolicy governs how the dispatcher treats plaintext connections
// when TLS is enabled server-wide (§4.2 step 2).
type PlaintextPolicy string

const (
	PlaintextNone    PlaintextPolicy = "none"
	PlaintextUpgrade PlaintextPolicy = "upgrade"
	PlaintextReject  PlaintextPolicy = "reject"
)

// TLSConfig is the secure-listener material (§3 ServerConfig.secure). TLS
// certificate parsing itself is an external collaborator (§1 out of
// scope): this struct only carries the file paths and options the
// listener package hands to crypto/tls.
type TLSConfig struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
	// KeyPassphrase decrypts Key if it is a passphrase-protected PEM block.
	KeyPassphrase string `json:"key_passphrase,omitempty"`
	// CAChain, if set, enables client-certificate validation against this
	// trust chain.
	CAChain string `json:"ca_chain,omitempty"`
}

func (t *TLSConfig) complete() bool {
	return t != nil && t.Certificate != "" && t.Key != ""
}

// ServerConfig is the root configuration record (§3 ServerConfig).
type ServerConfig struct {
	Addrs       []string `json:"addrs"`
	Ports       []int    `json:"ports"`
	SecurePorts []int    `json:"secure_ports"`

	Sites map[string]SiteConfig `json:"sites"`

	Secure          *TLSConfig      `json:"secure,omitempty"`
	PlaintextPolicy PlaintextPolicy `json:"plaintext_policy"`

	CacheSizeStr string `json:"cache_size"`
	CacheSize    int64  `json:"-"`

	UploadMaxUnitSizeStr string `json:"upload_max_unit_size"`
	UploadMaxUnitSize    int64  `json:"-"`

	UploadMaxStorageStr string `json:"upload_max_storage"`
	UploadMaxStorage    int64  `json:"-"`

	Basedir          string `json:"basedir"`
	WatchRecursive   bool   `json:"watch_recursive"`
	SafeHooks        bool   `json:"safe_hooks"`

	// ShutdownGraceStr/ShutdownGrace: how long in-flight requests are
	// given to drain on Server.Stop (§9 "Supplemented features":
	// graceful shutdown, mirroring the teacher's rungroup).
	ShutdownGraceStr string        `json:"shutdown_grace"`
	ShutdownGrace    time.Duration `json:"-"`
}

// Default byte sizes (§3 ServerConfig defaults).
const (
	DefaultCacheSize         = 4 * 1 << 20  // 4 MiB
	DefaultUploadMaxUnitSize = 1 * 1 << 20  // 1 MiB
	DefaultUploadMaxStorage  = 16 * 1 << 20 // 16 MiB
)

// Defaults fills in every field with a spec-mandated default (§3) ahead of
// JSON decode overriding whatever the file specifies.
func Defaults() *ServerConfig {
	return &ServerConfig{
		Ports:            []int{80},
		SecurePorts:      []int{443},
		PlaintextPolicy:  PlaintextNone,
		Sites:            map[string]SiteConfig{},
		CacheSizeStr:         "4MiB",
		UploadMaxUnitSizeStr: "1MiB",
		UploadMaxStorageStr:  "16MiB",
		ShutdownGraceStr:     "10s",
	}
}

// Finalize parses the *Str byte-size/duration fields into their runtime
// counterparts and validates the whole tree. Call after JSON decode.
func (c *ServerConfig) Finalize() error {
	var err error
	if c.CacheSize, err = cos.S2B(c.CacheSizeStr); err != nil {
		return errors.Wrap(err, "cache_size")
	}
	if c.UploadMaxUnitSize, err = cos.S2B(c.UploadMaxUnitSizeStr); err != nil {
		return errors.Wrap(err, "upload_max_unit_size")
	}
	if c.UploadMaxStorage, err = cos.S2B(c.UploadMaxStorageStr); err != nil {
		return errors.Wrap(err, "upload_max_storage")
	}
	if c.ShutdownGraceStr == "" {
		c.ShutdownGrace = 10 * time.Second
	} else if c.ShutdownGrace, err = time.ParseDuration(c.ShutdownGraceStr); err != nil {
		return errors.Wrap(err, "shutdown_grace")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	glog.Infof("config: cache_size=%s upload_max_unit_size=%s upload_max_storage=%s",
		cos.B2S(c.CacheSize, 1), cos.B2S(c.UploadMaxUnitSize, 1), cos.B2S(c.UploadMaxStorage, 1))
	return nil
}

func (c *ServerConfig) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("config: addrs must be non-empty")
	}
	if len(c.Ports) == 0 {
		c.Ports = []int{80}
	}
	if len(c.SecurePorts) == 0 {
		c.SecurePorts = []int{443}
	}
	if c.Basedir == "" {
		return errors.New("config: basedir is required")
	}
	switch c.PlaintextPolicy {
	case "", PlaintextNone, PlaintextUpgrade, PlaintextReject:
	default:
		return errors.Errorf("config: invalid plaintext_policy %q", c.PlaintextPolicy)
	}
	if c.PlaintextPolicy == "" {
		c.PlaintextPolicy = PlaintextNone
	}
	for host, site := range c.Sites {
		if host == "" {
			return errors.New("config: site keys must be non-empty")
		}
		s := site
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "site %q", host)
		}
	}
	return nil
}

// TLSEnabled reports whether this server runs any secure listener at all
// (§4.2 step 2 relies on this to decide whether plaintextPolicy applies).
func (c *ServerConfig) TLSEnabled() bool {
	return c.Secure.complete()
}
