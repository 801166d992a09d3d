// Package descriptor defines the value object a hook function returns
// (§3 ResponseDescriptor) and the logic that turns one into bytes on the
// wire (§4.2 "Response rendering").
package descriptor

import (
	"io"

	"github.com/riverhook/hookd/cmn/cos"
)

// Kind discriminates the tagged variant of Data, replacing the teacher
// source's duck-typed payload (per the spec's design-notes guidance) with
// an explicit sum type.
type Kind uint8

const (
	KindNone Kind = iota
	KindBytes
	KindText
	KindStream
)

// Data is the tagged body a hook produces. Exactly one of Bytes/Text/Stream
// is meaningful, selected by Kind.
type Data struct {
	Kind   Kind
	Bytes  []byte
	Text   string
	Stream io.Reader
	// Length is the declared length of Stream, if known. Zero/negative
	// means unknown; Content-Length is then omitted.
	Length int64
}

func NoneData() Data            { return Data{Kind: KindNone} }
func BytesData(b []byte) Data   { return Data{Kind: KindBytes, Bytes: b} }
func TextData(s string) Data    { return Data{Kind: KindText, Text: s} }
func StreamData(r io.Reader, length int64) Data {
	return Data{Kind: KindStream, Stream: r, Length: length}
}

// Len returns the byte length of a Bytes/Text payload; callers must not
// call it for KindStream (use Length for the declared hint instead).
func (d Data) Len() int {
	switch d.Kind {
	case KindBytes:
		return len(d.Bytes)
	case KindText:
		return len(d.Text)
	default:
		return 0
	}
}

// Descriptor is the value every hook function in a chain's terminal
// position contributes back to the dispatcher (§3 ResponseDescriptor).
//
// StatusSet/MaxAgeSet/EntityTagSet distinguish "absent" from the zero value,
// since 0 is not a valid HTTP status and "" is a legitimate ETag.
type Descriptor struct {
	Status    int
	StatusSet bool

	Data     Data
	DataType string // MIME type; "" => application/octet-stream

	Headers cos.Header

	EntityTag    string
	EntityTagSet bool

	MaxAge    int // seconds
	MaxAgeSet bool

	// Manual, if non-empty, names a hook to which response writing is
	// delegated wholesale (DISPATCH mode, §4.2 "On manual").
	Manual string

	// Error marks a failure reported by a hook; the dispatcher renders such
	// a descriptor as 500. Only hook code sets it: no error guard wraps hook
	// execution, and ServerConfig.SafeHooks is not consulted by the
	// dispatcher.
	Error bool
}

// New returns a zero-value descriptor with headers ready to populate.
func New() *Descriptor {
	return &Descriptor{Headers: cos.NewHeader()}
}

func (d *Descriptor) SetStatus(status int) *Descriptor {
	d.Status, d.StatusSet = status, true
	return d
}

func (d *Descriptor) SetEntityTag(tag string) *Descriptor {
	d.EntityTag, d.EntityTagSet = tag, true
	return d
}

func (d *Descriptor) SetMaxAge(seconds int) *Descriptor {
	d.MaxAge, d.MaxAgeSet = seconds, true
	return d
}

// Valid reports whether the descriptor carries enough information to be
// rendered at all: either a usable status, or a manual-delegation target
// (§7 "Hook signaled invalid descriptor").
func (d *Descriptor) Valid() bool {
	if d.Manual != "" {
		return true
	}
	return d.StatusSet && d.Status >= 100 && d.Status < 600
}

// Cacheable reports whether this descriptor may be inserted into the
// response cache (§4.2 "Cache insertion"): valid status, bytes/text body,
// explicit ETag, and explicit max-age.
func (d *Descriptor) Cacheable() bool {
	if d.Error || !d.StatusSet || d.Status < 100 || d.Status >= 600 {
		return false
	}
	if d.Data.Kind != KindBytes && d.Data.Kind != KindText {
		return false
	}
	return d.EntityTagSet && d.MaxAgeSet
}
