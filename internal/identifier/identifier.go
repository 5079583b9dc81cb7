// Package identifier turns a raw subject identifier (phone number or social
// handle) into a one-way lookup key and, separately, into a lossy display mask.
//
// Hash is lookup-only and is never shown; Mask is display-only and is never
// used for lookup. A hash cannot be reversed.
package identifier

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Type is the detected shape of a raw identifier.
type Type string

const (
	TypePhone  Type = "phone"
	TypeHandle Type = "handle"
)

var (
	ErrInvalid = errors.New("please enter a valid phone number or social handle")

	phonePattern     = regexp.MustCompile(`^\+?[\d\s\-().]+$`)
	maskPhonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
	handlePattern    = regexp.MustCompile(`^@?[a-zA-Z0-9._]{1,30}$`)
	handleBody       = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
)

// Normalize canonicalizes raw input so that the same subject typed with
// different spacing, case or punctuation yields the same key. Phone-like
// input collapses to its digits; handles drop a leading '@'.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if phonePattern.MatchString(trimmed) {
		if digits := digitsOf(trimmed); len(digits) >= 4 {
			return digits
		}
	}
	s := strings.ToLower(stripSpace(trimmed))
	return strings.TrimPrefix(s, "@")
}

// Hash returns the hex SHA-256 digest of the normalized identifier.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}

// Mask renders a partial redaction suitable for UI display.
func Mask(raw string) string {
	s := strings.TrimSpace(raw)

	if maskPhonePattern.MatchString(s) {
		if digits := digitsOf(s); len(digits) >= 4 {
			return "***-***-" + digits[len(digits)-4:]
		}
	}

	if strings.HasPrefix(s, "@") || handleBody.MatchString(s) {
		handle := []rune(strings.Replace(s, "@", "", 1))
		if len(handle) > 4 {
			return "@" + string(handle[:2]) + "***" + string(handle[len(handle)-2:])
		}
		if len(handle) == 0 {
			return "@***"
		}
		return "@" + string(handle[:1]) + "***"
	}

	r := []rune(s)
	if len(r) > 4 {
		return string(r[:2]) + "***" + string(r[len(r)-2:])
	}
	return "****"
}

// Validate reports whether raw is an acceptable phone number (10-15 digits)
// or social handle.
func Validate(raw string) (Type, error) {
	s := strings.TrimSpace(raw)
	if phonePattern.MatchString(s) {
		if n := len(digitsOf(s)); n >= 10 && n <= 15 {
			return TypePhone, nil
		}
	}
	if handlePattern.MatchString(s) {
		return TypeHandle, nil
	}
	return "", ErrInvalid
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
