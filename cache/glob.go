package cache

import (
	"fmt"
	"regexp"
	"strings"
)

// compileGlob turns a Redis MATCH pattern into a regexp. '*' and '?' match any character,
// '/' included; [set], [^set], [a-z] and backslash escapes are supported.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	rs := []rune(pattern)

	var sb strings.Builder
	sb.WriteString(`(?s)^`)

	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; r {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		case '\\':
			if i+1 < len(rs) {
				i++
			}

			sb.WriteString(regexp.QuoteMeta(string(rs[i])))
		case '[':
			j := i + 1
			negate := j < len(rs) && rs[j] == '^'
			if negate {
				j++
			}

			end := j
			for end < len(rs) && rs[end] != ']' {
				end++
			}

			if end == len(rs) || end == j {
				return nil, fmt.Errorf("glob %q: unterminated or empty class", pattern)
			}

			sb.WriteByte('[')
			if negate {
				sb.WriteByte('^')
			}

			for _, c := range rs[j:end] {
				if c == '\\' || c == '[' {
					sb.WriteByte('\\')
				}

				sb.WriteRune(c)
			}

			sb.WriteByte(']')

			i = end
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	return re, nil
}
