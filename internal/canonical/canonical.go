// Package canonical re-encodes parsed JSON values into the exact byte form the
// dataset generator hashes: keys sorted by code point at every level, ", " and
// ": " separators, and the generator's number and string rendering.
package canonical

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Encoder renders canonical JSON.
type Encoder struct {
	// EscapeNonASCII emits every rune >= 0x7f as a \u escape (surrogate pairs
	// above the BMP) instead of raw UTF-8.
	EscapeNonASCII bool
}

// Marshal encodes v with the default Encoder.
func Marshal(v any) []byte {
	return Encoder{}.Marshal(v)
}

// Marshal encodes v. It panics if v contains a type outside the JSON value model.
func (e Encoder) Marshal(v any) []byte {
	return e.Append(nil, v)
}

// Append appends the canonical encoding of v to dst.
func (e Encoder) Append(dst []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(dst, "null"...)
	case bool:
		if val {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case string:
		return e.appendString(dst, val)
	case json.Number:
		return appendNumber(dst, val)
	case float64:
		return append(dst, FormatFloat(val)...)
	case float32:
		return append(dst, FormatFloat(float64(val))...)
	case int:
		return strconv.AppendInt(dst, int64(val), 10)
	case int64:
		return strconv.AppendInt(dst, val, 10)
	case []any:
		dst = append(dst, '[')
		for i, item := range val {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = e.Append(dst, item)
		}
		return append(dst, ']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// Byte order of UTF-8 equals code point order.
		sort.Strings(keys)
		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = e.appendString(dst, k)
			dst = append(dst, ": "...)
			dst = e.Append(dst, val[k])
		}
		return append(dst, '}')
	default:
		panic(fmt.Sprintf("canonical: unsupported type %T", v))
	}
}

const hexDigits = "0123456789abcdef"

func (e Encoder) appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			switch {
			case r < 0x20:
				dst = appendUnicodeEscape(dst, r)
			case e.EscapeNonASCII && r >= 0x7f:
				if r > 0xffff {
					r -= 0x10000
					dst = appendUnicodeEscape(dst, 0xd800|(r>>10)&0x3ff)
					dst = appendUnicodeEscape(dst, 0xdc00|r&0x3ff)
				} else {
					dst = appendUnicodeEscape(dst, r)
				}
			default:
				dst = utf8.AppendRune(dst, r)
			}
		}
	}
	return append(dst, '"')
}

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[(r>>12)&0xf], hexDigits[(r>>8)&0xf], hexDigits[(r>>4)&0xf], hexDigits[r&0xf])
}

// appendNumber keeps integer literals integral and renders float literals the
// way the generator's float repr does.
func appendNumber(dst []byte, n json.Number) []byte {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if s == "-0" {
			return append(dst, '0')
		}
		return append(dst, s...)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(f, 0) {
		panic(fmt.Sprintf("canonical: invalid number literal %q", s))
	}
	return append(dst, FormatFloat(f)...)
}

// FormatFloat renders f as the shortest round-trip decimal, switching to
// exponent form when the decimal exponent is < -4 or >= 16, and always
// keeping a fractional part in positional form ("12.0").
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	// d.ddddde±XX
	s := strconv.FormatFloat(f, 'e', -1, 64)
	var b strings.Builder
	if s[0] == '-' {
		b.WriteByte('-')
		s = s[1:]
	}
	mant, expPart, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mant, ".", "", 1)
	decpt := exp + 1

	switch {
	case decpt <= -4 || decpt > 16:
		b.WriteByte(digits[0])
		if len(digits) > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		e := decpt - 1
		if e < 0 {
			b.WriteByte('-')
			e = -e
		} else {
			b.WriteByte('+')
		}
		if e < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.Itoa(e))
	case decpt <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -decpt))
		b.WriteString(digits)
	case decpt >= len(digits):
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", decpt-len(digits)))
		b.WriteString(".0")
	default:
		b.WriteString(digits[:decpt])
		b.WriteByte('.')
		b.WriteString(digits[decpt:])
	}
	return b.String()
}
