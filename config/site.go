// Package config implements the data model of §3: SiteConfig and
// ServerConfig, their JSON persistence, and validation.
package config

import "github.com/pkg/errors"

// Sentinel host keys recognized during site resolution (§3, §4.2 step 3).
const (
	HostEmpty   = "!" // matches an empty/missing Host header
	HostCatchAll = "*" // matches any host not otherwise matched
)

// SiteConfig is one logical server identity (§3 SiteConfig).
type SiteConfig struct {
	// Hosts is a non-empty ordered list of hostnames; Hosts[0] is
	// canonical and forms the prefix of this site's cache keys and hook
	// names.
	Hosts []string `json:"hosts"`
	// Category is a single uppercase letter A-Z. The teacher source's
	// validator regex `/^A-Z$/` matches only the literal string "A-Z";
	// the evident intent, `/^[A-Z]$/` (a single uppercase letter), is what
	// this implementation enforces (spec §9 "Open questions").
	Category string `json:"category"`
	Description string `json:"description"`
}

func (s *SiteConfig) Validate() error {
	if len(s.Hosts) == 0 {
		return errors.New("site: hosts must be non-empty")
	}
	for _, h := range s.Hosts {
		if h == "" {
			return errors.New("site: hostnames must be non-empty")
		}
	}
	if len(s.Category) != 1 || s.Category[0] < 'A' || s.Category[0] > 'Z' {
		return errors.Errorf("site: category %q must be a single uppercase letter A-Z", s.Category)
	}
	return nil
}

// CanonicalHost is Hosts[0], the prefix used for cache keys and hook names.
func (s *SiteConfig) CanonicalHost() string { return s.Hosts[0] }

// CategoryLetter returns the validated single-letter category.
func (s *SiteConfig) CategoryLetter() byte { return s.Category[0] }
