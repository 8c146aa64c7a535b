package bilingual

import (
	"strconv"
	"strings"
	"unicode"
)

// DecodeLegacyEncoding rewrites escaped CJK code points left behind by an old
// content export. A sequence is "u" or "\u" followed by five or four hex
// digits; it is decoded only when the code point is a Han ideograph. Anything
// else passes through unchanged.
func DecodeLegacyEncoding(s string) string {
	if !strings.ContainsRune(s, 'u') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		start := i
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'u' {
			i++
		}
		if s[i] == 'u' {
			if r, n, ok := decodeHan(s[i+1:]); ok {
				b.WriteRune(r)
				i += 1 + n
				continue
			}
		}
		b.WriteByte(s[start])
		i = start + 1
	}
	return b.String()
}

func decodeHan(s string) (rune, int, bool) {
	for _, n := range []int{5, 4} {
		if len(s) < n {
			continue
		}
		v, err := strconv.ParseUint(s[:n], 16, 32)
		if err != nil {
			continue
		}
		if r := rune(v); unicode.Is(unicode.Han, r) {
			return r, n, true
		}
	}
	return 0, 0, false
}
