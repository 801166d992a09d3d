// Package cos provides small low-level helpers shared across hookd's
// packages: process-exit helpers, byte-size string parsing, and the
// case-insensitive header map the HTTP protocol requires.
package cos

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Runner is implemented by every long-running component started by a
// rungroup (the watcher, the listener manager, the main dispatcher).
type Runner interface {
	Run() error
	Stop(err error)
	Name() string
}

// Exitf prints a usage-style message to stderr and exits with status 1.
func Exitf(f string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

// ExitLogf is used at startup before the logger is flushed: same as Exitf.
func ExitLogf(f string, a ...interface{}) {
	Exitf(f, a...)
}

// ParseBool accepts the same token set as strconv.ParseBool plus "" => false.
func ParseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// B2S renders a byte count human-readably, e.g. B2S(4194304, 0) => "4MiB".
func B2S(b int64, digits int) string {
	const (
		ki = 1024
		mi = ki * 1024
		gi = mi * 1024
	)
	switch {
	case b >= gi:
		return fmt.Sprintf("%.*fGiB", digits, float64(b)/gi)
	case b >= mi:
		return fmt.Sprintf("%.*fMiB", digits, float64(b)/mi)
	case b >= ki:
		return fmt.Sprintf("%.*fKiB", digits, float64(b)/ki)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// S2B parses a human byte-size string ("4MiB", "512k", "16777216") into bytes.
func S2B(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	mult := int64(1)
	lower := strings.ToLower(s)
	suffixes := []struct {
		suf string
		m   int64
	}{
		{"kib", 1024}, {"mib", 1024 * 1024}, {"gib", 1024 * 1024 * 1024},
		{"kb", 1000}, {"mb", 1000 * 1000}, {"gb", 1000 * 1000 * 1000},
		{"k", 1024}, {"m", 1024 * 1024}, {"g", 1024 * 1024 * 1024},
	}
	for _, sfx := range suffixes {
		if strings.HasSuffix(lower, sfx.suf) {
			numPart := s[:len(s)-len(sfx.suf)]
			n, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
			}
			mult = sfx.m
			return int64(n * float64(mult)), nil
		}
	}
	return 0, fmt.Errorf("invalid byte size %q", s)
}

// Header is a case-insensitive string-to-string map, as required by HTTP
// header semantics (RFC 7230 §3.2). Unlike http.Header it stores single
// values, matching the one-value-per-name ResponseDescriptor.Headers model.
type Header map[string]string

func NewHeader() Header { return make(Header) }

func (h Header) Set(name, value string) { h[strings.ToLower(name)] = value }

func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

func (h Header) Del(name string) { delete(h, strings.ToLower(name)) }

// IsValidHeaderValue rejects values that would corrupt the response framing
// (embedded CR/LF — header/response splitting).
func IsValidHeaderValue(v string) bool {
	return !strings.ContainsAny(v, "\r\n")
}
