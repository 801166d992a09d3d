package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/riverhook/hookd/cmn/cos"
)

// ToUpdate is a sparse set of command-line overrides, mirroring the
// teacher's `ConfigToUpdate.FillFromKVS` convention (§9 "Supplemented
// features": config hot-validation on custom override). Only the handful
// of fields operators actually need to flip at deploy time are supported;
// unlike the teacher's fully generic reflection-driven IterFields, this is
// a small explicit switch — the field set here is deliberately closed.
type ToUpdate struct {
	Basedir           *string
	SafeHooks         *bool
	CacheSize         *string
	UploadMaxUnitSize *string
	UploadMaxStorage  *string
	PlaintextPolicy   *string
}

// FillFromKVS parses "key1=value1,key2=value2" pairs such as
// `-config_custom="basedir=/srv/hooks,safe_hooks=true"` into u.
func (u *ToUpdate) FillFromKVS(kvs []string) error {
	for _, kv := range kvs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return errors.Errorf("config override %q: expected key=value", kv)
		}
		key, val := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch key {
		case "basedir":
			u.Basedir = &val
		case "safe_hooks":
			b, err := cos.ParseBool(val)
			if err != nil {
				return errors.Wrapf(err, "safe_hooks=%q", val)
			}
			u.SafeHooks = &b
		case "cache_size":
			u.CacheSize = &val
		case "upload_max_unit_size":
			u.UploadMaxUnitSize = &val
		case "upload_max_storage":
			u.UploadMaxStorage = &val
		case "plaintext_policy":
			u.PlaintextPolicy = &val
		default:
			return errors.Errorf("config override: unknown key %q", key)
		}
	}
	return nil
}

// Apply merges u into cfg in memory; the caller must call cfg.Finalize()
// again afterwards to re-derive and re-validate the runtime fields.
func (u *ToUpdate) Apply(cfg *ServerConfig) {
	if u.Basedir != nil {
		cfg.Basedir = *u.Basedir
	}
	if u.SafeHooks != nil {
		cfg.SafeHooks = *u.SafeHooks
	}
	if u.CacheSize != nil {
		cfg.CacheSizeStr = *u.CacheSize
	}
	if u.UploadMaxUnitSize != nil {
		cfg.UploadMaxUnitSizeStr = *u.UploadMaxUnitSize
	}
	if u.UploadMaxStorage != nil {
		cfg.UploadMaxStorageStr = *u.UploadMaxStorage
	}
	if u.PlaintextPolicy != nil {
		cfg.PlaintextPolicy = PlaintextPolicy(*u.PlaintextPolicy)
	}
}
