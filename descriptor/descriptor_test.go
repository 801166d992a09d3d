package descriptor

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
		want bool
	}{
		{"status set and in range", New().SetStatus(200), true},
		{"status zero", New(), false},
		{"status out of range low", New().SetStatus(99), false},
		{"status out of range high", New().SetStatus(600), false},
		{"manual set, no status", func() *Descriptor { d := New(); d.Manual = "other"; return d }(), true},
	}
	for _, tt := range tests {
		if got := tt.d.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCacheable(t *testing.T) {
	full := func() *Descriptor {
		d := New().SetStatus(200).SetEntityTag("v1").SetMaxAge(300)
		d.Data = BytesData([]byte("hi"))
		return d
	}

	if !full().Cacheable() {
		t.Errorf("fully-populated bytes descriptor should be cacheable")
	}

	missingTag := full()
	missingTag.EntityTagSet = false
	if missingTag.Cacheable() {
		t.Errorf("descriptor without an entity tag must not be cacheable")
	}

	missingMaxAge := full()
	missingMaxAge.MaxAgeSet = false
	if missingMaxAge.Cacheable() {
		t.Errorf("descriptor without max-age must not be cacheable")
	}

	streamed := full()
	streamed.Data = StreamData(nil, 0)
	if streamed.Cacheable() {
		t.Errorf("a streaming descriptor must never be cacheable (§4.2)")
	}

	erred := full()
	erred.Error = true
	if erred.Cacheable() {
		t.Errorf("an error descriptor must not be cacheable")
	}
}

func TestDataLen(t *testing.T) {
	if BytesData([]byte("abc")).Len() != 3 {
		t.Errorf("BytesData len mismatch")
	}
	if TextData("abcd").Len() != 4 {
		t.Errorf("TextData len mismatch")
	}
	if NoneData().Len() != 0 {
		t.Errorf("NoneData len should be 0")
	}
}
