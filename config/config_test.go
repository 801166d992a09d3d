package config

import (
	"testing"
	"time"
)

func validConfig() *ServerConfig {
	cfg := Defaults()
	cfg.Addrs = []string{"0.0.0.0"}
	cfg.Basedir = "/srv/hooks"
	cfg.Sites = map[string]SiteConfig{
		"example.com": {Hosts: []string{"example.com"}, Category: "A"},
	}
	return cfg
}

func TestFinalizeDerivesByteSizesAndDuration(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.CacheSize != DefaultCacheSize {
		t.Errorf("CacheSize = %d, want %d", cfg.CacheSize, DefaultCacheSize)
	}
	if cfg.UploadMaxUnitSize != DefaultUploadMaxUnitSize {
		t.Errorf("UploadMaxUnitSize = %d, want %d", cfg.UploadMaxUnitSize, DefaultUploadMaxUnitSize)
	}
	if cfg.UploadMaxStorage != DefaultUploadMaxStorage {
		t.Errorf("UploadMaxStorage = %d, want %d", cfg.UploadMaxStorage, DefaultUploadMaxStorage)
	}
	if cfg.ShutdownGrace != 10*time.Second {
		t.Errorf("ShutdownGrace = %v, want 10s", cfg.ShutdownGrace)
	}
}

func TestValidateRejectsEmptyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty addrs")
	}
}

func TestValidateRejectsEmptyBasedir(t *testing.T) {
	cfg := validConfig()
	cfg.Basedir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty basedir")
	}
}

func TestValidateRejectsBadPlaintextPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.PlaintextPolicy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for invalid plaintext_policy")
	}
}

func TestValidateDefaultsPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Ports, cfg.SecurePorts = nil, nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(cfg.Ports) != 1 || cfg.Ports[0] != 80 {
		t.Errorf("Ports = %v, want [80]", cfg.Ports)
	}
	if len(cfg.SecurePorts) != 1 || cfg.SecurePorts[0] != 443 {
		t.Errorf("SecurePorts = %v, want [443]", cfg.SecurePorts)
	}
}

func TestTLSEnabled(t *testing.T) {
	cfg := validConfig()
	if cfg.TLSEnabled() {
		t.Fatalf("TLSEnabled should be false with no secure config")
	}
	cfg.Secure = &TLSConfig{Certificate: "cert.pem", Key: "key.pem"}
	if !cfg.TLSEnabled() {
		t.Fatalf("TLSEnabled should be true once certificate and key are set")
	}
}

// SiteConfig.Category accepts a single uppercase letter only, resolving
// the spec's open question about the teacher's `/^A-Z$/` typo (§9).
func TestSiteConfigCategoryValidation(t *testing.T) {
	tests := []struct {
		category string
		wantErr  bool
	}{
		{"A", false},
		{"Z", false},
		{"A-Z", true},
		{"", true},
		{"AB", true},
		{"a", true},
	}
	for _, tt := range tests {
		s := SiteConfig{Hosts: []string{"h"}, Category: tt.category}
		err := s.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(category=%q) err = %v, wantErr = %v", tt.category, err, tt.wantErr)
		}
	}
}
