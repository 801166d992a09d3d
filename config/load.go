package config

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads, decodes, defaults, and validates a ServerConfig from path
// (§7 "Config validation ... fatal at construction; does not start" — the
// caller is expected to treat a non-nil error as fatal before any listener
// starts).
func Load(path string) (*ServerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg := Defaults()
	dec := jsonAPI.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, errors.Wrapf(err, "validate config %s", path)
	}
	return cfg, nil
}

// Save persists cfg to path via a temp-file-then-rename, the same atomic
// write-path the teacher's cmn/jsp.Save uses so a crash mid-write never
// leaves a half-written config file in place.
func Save(path string, cfg *ServerConfig) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	enc := jsonAPI.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(cfg); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", tmp)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s -> %s", tmp, path)
	}
	return nil
}
