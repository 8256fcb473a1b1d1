//go:build go1.18

package idgen

import "testing"

// FuzzValidateRaw checks that ValidateRaw never panics and agrees with its
// own length precondition regardless of input.
func FuzzValidateRaw(f *testing.F) {
	f.Add("")
	f.Add("01HQZX8F3PZ9K2VBN4R7T6W1JY")
	f.Add("not-a-ulid-at-all---------")
	f.Add(New())

	f.Fuzz(func(t *testing.T, raw string) {
		err := ValidateRaw(raw)
		if len(raw) != rawLength && err == nil {
			t.Fatalf("expected error for wrong-length input %q", raw)
		}
	})
}

// FuzzSanitizeAgentName checks that a successful sanitization always yields a
// non-empty result built only from [a-z0-9_-], and is idempotent.
func FuzzSanitizeAgentName(f *testing.F) {
	f.Add("Claude Reviewer")
	f.Add("")
	f.Add("!!!")
	f.Add("already-ok_123")

	f.Fuzz(func(t *testing.T, name string) {
		got, err := SanitizeAgentName(name)
		if err != nil {
			return
		}
		if got == "" {
			t.Fatalf("sanitization reported success but returned empty string for %q", name)
		}
		for _, r := range got {
			if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-' && r != '_' {
				t.Fatalf("sanitized name %q contains disallowed rune %q", got, r)
			}
		}
		again, err := SanitizeAgentName(got)
		if err != nil {
			t.Fatalf("sanitizing an already-sanitized name failed: %v", err)
		}
		if again != got {
			t.Fatalf("sanitization is not idempotent: %q -> %q", got, again)
		}
	})
}
