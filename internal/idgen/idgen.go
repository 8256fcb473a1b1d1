// Package idgen produces time-sortable 128-bit identifiers: a 48-bit
// millisecond timestamp followed by 80 bits of cryptographic randomness,
// Crockford base32 encoded to 26 characters.
package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid"
)

// ErrInvalidIdentifier is returned when a generated or sanitized identifier
// would be empty, malformed, or outside the accepted timestamp window.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const rawLength = 26

var epoch2020 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// New returns a fresh 26-character raw identifier.
func New() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// crypto/rand.Reader only fails on a short read, which does not
		// happen on supported platforms.
		panic(fmt.Sprintf("idgen: entropy read failed: %v", err))
	}
	return id.String()
}

// Prefixed returns a typed identifier of the form "<prefix>-<ulid>", e.g.
// Prefixed("task") yields "task-01HQZX8F3PZ9K2VBN4R7T6W1JY".
func Prefixed(prefix string) string {
	return prefix + "-" + New()
}

// ValidateRaw reports whether raw is a 26-character Crockford base32 ULID
// whose embedded timestamp falls within [2020-01-01, now+60s].
func ValidateRaw(raw string) error {
	if len(raw) != rawLength {
		return fmt.Errorf("%w: expected length %d, got %d", ErrInvalidIdentifier, rawLength, len(raw))
	}
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	ts := ulid.Time(id.Time())
	if ts.Before(epoch2020) {
		return fmt.Errorf("%w: timestamp %s precedes 2020-01-01", ErrInvalidIdentifier, ts)
	}
	if ts.After(time.Now().Add(60 * time.Second)) {
		return fmt.Errorf("%w: timestamp %s is more than 60s in the future", ErrInvalidIdentifier, ts)
	}
	return nil
}

// ValidatePrefixed validates a "<prefix>-<ulid>" identifier: the prefix must
// match exactly and the remaining 26 characters must satisfy ValidateRaw.
func ValidatePrefixed(id, prefix string) error {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return fmt.Errorf("%w: %q is missing prefix %q", ErrInvalidIdentifier, id, prefix)
	}
	return ValidateRaw(rest)
}

// StripPrefix returns the raw 26-character identifier portion of a prefixed
// id, or an error if the prefix doesn't match.
func StripPrefix(id, prefix string) (string, error) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return "", fmt.Errorf("%w: %q is missing prefix %q", ErrInvalidIdentifier, id, prefix)
	}
	return rest, nil
}

// SanitizeAgentName lowercases name, turns spaces into dashes, strips any
// character outside [a-z0-9_-], and fails if nothing alphanumeric survives.
func SanitizeAgentName(name string) (string, error) {
	lower := strings.ToLower(name)
	lower = strings.ReplaceAll(lower, " ", "-")

	var b strings.Builder
	hasAlnum := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hasAlnum = true
		case r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	if !hasAlnum {
		return "", fmt.Errorf("%w: %q sanitizes to an empty identifier", ErrInvalidIdentifier, name)
	}
	return b.String(), nil
}
