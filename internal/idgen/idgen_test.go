package idgen

import (
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid"
)

func TestNew_Length(t *testing.T) {
	id := New()
	if len(id) != rawLength {
		t.Fatalf("expected length %d, got %d (%s)", rawLength, len(id), id)
	}
	if err := ValidateRaw(id); err != nil {
		t.Fatalf("freshly generated id should validate: %v", err)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestPrefixed_RoundTrip(t *testing.T) {
	id := Prefixed("task")
	if !strings.HasPrefix(id, "task-") {
		t.Fatalf("expected task- prefix, got %s", id)
	}
	if err := ValidatePrefixed(id, "task"); err != nil {
		t.Fatalf("expected valid prefixed id: %v", err)
	}
	raw, err := StripPrefix(id, "task")
	if err != nil {
		t.Fatalf("unexpected error stripping prefix: %v", err)
	}
	if err := ValidateRaw(raw); err != nil {
		t.Fatalf("stripped raw id should validate: %v", err)
	}
}

func TestValidatePrefixed_WrongPrefix(t *testing.T) {
	id := Prefixed("task")
	if err := ValidatePrefixed(id, "decision"); err == nil {
		t.Fatal("expected error for mismatched prefix")
	}
}

func TestValidateRaw_WrongLength(t *testing.T) {
	if err := ValidateRaw("short"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestValidateRaw_BadAlphabet(t *testing.T) {
	bad := strings.Repeat("!", rawLength)
	if err := ValidateRaw(bad); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestValidateRaw_TooOld(t *testing.T) {
	old := timeOnlyULID(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := ValidateRaw(old); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier for pre-2020 timestamp, got %v", err)
	}
}

func TestValidateRaw_TooFarInFuture(t *testing.T) {
	future := timeOnlyULID(t, time.Now().Add(time.Hour))
	if err := ValidateRaw(future); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier for far-future timestamp, got %v", err)
	}
}

func TestSanitizeAgentName(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"Claude Reviewer", "claude-reviewer", true},
		{"GPT-4!!", "gpt-4", true},
		{"  ", "", false},
		{"!!!###", "", false},
		{"already-lower_case", "already-lower_case", true},
	}
	for _, c := range cases {
		got, err := SanitizeAgentName(c.name)
		if c.ok && err != nil {
			t.Errorf("SanitizeAgentName(%q): unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("SanitizeAgentName(%q): expected error, got none", c.name)
		}
		if c.ok && got != c.want {
			t.Errorf("SanitizeAgentName(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

// timeOnlyULID builds a raw ULID string stamped at the given time, purely to
// exercise the validator's timestamp window check.
func timeOnlyULID(t *testing.T, when time.Time) string {
	t.Helper()
	id, err := ulid.New(ulid.Timestamp(when), rand.Reader)
	if err != nil {
		t.Fatalf("failed to build test ulid: %v", err)
	}
	return id.String()
}
