package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

const keySep = ":"

// Key builds "<domain>:<subject>:<qualifier>...". Domain and subject are normalised to
// lower_snake; qualifiers (ids, dates) are kept verbatim.
func Key(domain, subject string, qualifiers ...string) string {
	parts := make([]string, 0, 2+len(qualifiers))
	parts = append(parts, snake(domain), snake(subject))
	parts = append(parts, qualifiers...)

	return strings.Join(parts, keySep)
}

// Pattern builds the glob that matches every key under the given prefix, e.g. "user:profile:*".
func Pattern(domain, subject string, qualifiers ...string) string {
	return Key(domain, subject, qualifiers...) + keySep + "*"
}

// Domain returns the first segment of a key.
func Domain(key string) string {
	d, _, _ := strings.Cut(key, keySep)
	return d
}

// HashKey derives a stable key from arbitrary arguments: prefix:<sha256 of their JSON>.
// encoding/json sorts map keys and keeps struct field order, so equal arguments hash equally.
func HashKey(prefix string, args ...any) string {
	b, err := json.Marshal(args)
	if err != nil {
		b = []byte(fmt.Sprintf("%#v", args))
	}

	sum := sha256.Sum256(b)

	return prefix + keySep + hex.EncodeToString(sum[:])
}

// IsPattern reports whether s contains glob metacharacters.
func IsPattern(s string) bool { return strings.ContainsAny(s, "*?[") }

func snake(s string) string {
	var b strings.Builder

	prevUnderscore := false
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		case unicode.IsUpper(r):
			if i > 0 && !prevUnderscore {
				b.WriteByte('_')
			}

			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
		default:
			b.WriteRune(r)
			prevUnderscore = false
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}
