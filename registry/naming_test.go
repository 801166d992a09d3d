package registry

import "testing"

func TestParseNameTable(t *testing.T) {
	tests := []struct {
		name     string
		wantOK   bool
		wantMeta Meta
	}{
		{"hS_onRequest", true, Meta{Policy: PolicySync, Mask: AllCats, HookName: "onRequest"}},
		{"hA_upload", true, Meta{Policy: PolicyAsync, Mask: AllCats, HookName: "upload"}},
		{"hE_onHookModuleChanged", true, Meta{Policy: PolicyEvent, Mask: AllCats, HookName: "onHookModuleChanged"}},
		{"hSAB_render", true, Meta{Policy: PolicySync, Mask: 0b011, HookName: "render"}},
		{"hsab_render", true, Meta{Policy: PolicySync, Mask: 0b011, HookName: "render"}},
		{"hS_a$b", true, Meta{Policy: PolicySync, Mask: AllCats, HookName: "a$b"}},
		{"xS_bad", false, Meta{}},
		{"h_missingPolicy", false, Meta{}},
		{"hS", false, Meta{}},
		{"hSZ9_bad", false, Meta{}},
		{"hS_", false, Meta{}},
	}

	for _, tt := range tests {
		got, ok := ParseName(tt.name)
		if ok != tt.wantOK {
			t.Errorf("ParseName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if got != tt.wantMeta {
			t.Errorf("ParseName(%q) = %+v, want %+v", tt.name, got, tt.wantMeta)
		}
	}
}

// Decoding then re-encoding a name yields an equivalent function record
// (§8 "Round-trips").
func TestParseEncodeRoundTrip(t *testing.T) {
	names := []string{"hS_onRequest", "hACZ_fetch", "hE_x$y", "hsab_render"}
	for _, name := range names {
		meta, ok := ParseName(name)
		if !ok {
			t.Fatalf("ParseName(%q) failed unexpectedly", name)
		}
		reMeta, ok := ParseName(EncodeName(meta))
		if !ok {
			t.Fatalf("re-parsing EncodeName(%+v) failed", meta)
		}
		if reMeta != meta {
			t.Errorf("round-trip mismatch for %q: got %+v, want %+v", name, reMeta, meta)
		}
	}
}

// Inclusive vs strict match (§8 boundary scenario 3): masks 0b001, 0b010,
// 0b011, ALL_CATS; requesting 0b001 under INCLUSIVE selects {0b001, 0b011,
// ALL_CATS}, under STRICT selects only {0b001}.
func TestCategoryMaskMatches(t *testing.T) {
	masks := []CategoryMask{0b001, 0b010, 0b011, AllCats}
	req := CategoryMask(0b001)

	var inclusive, strict []CategoryMask
	for _, m := range masks {
		if m.Matches(req, Inclusive) {
			inclusive = append(inclusive, m)
		}
		if m.Matches(req, Strict) {
			strict = append(strict, m)
		}
	}

	wantInclusive := []CategoryMask{0b001, 0b011, AllCats}
	if len(inclusive) != len(wantInclusive) {
		t.Fatalf("inclusive = %v, want %v", inclusive, wantInclusive)
	}
	for i := range wantInclusive {
		if inclusive[i] != wantInclusive[i] {
			t.Fatalf("inclusive = %v, want %v", inclusive, wantInclusive)
		}
	}

	wantStrict := []CategoryMask{0b001}
	if len(strict) != len(wantStrict) {
		t.Fatalf("strict = %v, want %v (ALL_CATS is equality-only under STRICT)", strict, wantStrict)
	}
}
