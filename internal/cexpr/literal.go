package cexpr

import (
	"strconv"
	"strings"

	"naggy/internal/token"
)

func parseNumber(t token.Token) (Value, error) {
	text := strings.ReplaceAll(t.Text, "'", "")
	lower := strings.ToLower(text)

	base := 10
	digits := lower
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, digits = 16, lower[2:]
	case strings.HasPrefix(lower, "0b"):
		base, digits = 2, lower[2:]
	case len(lower) > 1 && lower[0] == '0':
		base, digits = 8, lower[1:]
	}

	end := 0
	for end < len(digits) && isDigitIn(digits[end], base) {
		end++
	}
	suffix := digits[end:]
	digits = digits[:end]

	if base != 16 && (strings.ContainsAny(suffix, ".e") || strings.HasPrefix(suffix, "f")) ||
		base == 16 && strings.ContainsAny(suffix, ".p") {
		return Value{}, &Error{Span: t.Span, Msg: "floating point literal in preprocessor expression"}
	}
	unsigned, ok := parseIntSuffix(suffix)
	if !ok || (digits == "" && base != 8) {
		return Value{}, &Error{Span: t.Span, Msg: "invalid suffix '" + suffix + "' on integer constant"}
	}
	if digits == "" {
		digits = "0"
	}
	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Value{}, &Error{Span: t.Span, Msg: "integer literal is too large to be represented in any integer type"}
	}
	if n > 1<<63-1 {
		unsigned = true
	}
	return Value{bits: n, Unsigned: unsigned}, nil
}

func isDigitIn(b byte, base int) bool {
	switch base {
	case 2:
		return b == '0' || b == '1'
	case 8:
		return b >= '0' && b <= '7'
	case 10:
		return b >= '0' && b <= '9'
	}
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

func parseIntSuffix(s string) (unsigned, ok bool) {
	switch s {
	case "", "l", "ll":
		return false, true
	case "u", "ul", "lu", "ull", "llu":
		return true, true
	}
	return false, false
}

// parseChar converts a character constant; multi-character constants pack
// bytes big-endian like GCC. Plain char is signed.
func parseChar(t token.Token) (Value, error) {
	text := t.Text
	prefix := text[:strings.IndexByte(text, '\'')]
	body := strings.TrimSuffix(text[len(prefix)+1:], "'")
	if body == "" {
		return Value{}, &Error{Span: t.Span, Msg: "empty character constant"}
	}

	var vals []uint64
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			vals = append(vals, uint64(c))
			i++
			continue
		}
		i++
		if i >= len(body) {
			break
		}
		e := body[i]
		i++
		switch e {
		case 'n':
			vals = append(vals, '\n')
		case 't':
			vals = append(vals, '\t')
		case 'r':
			vals = append(vals, '\r')
		case 'a':
			vals = append(vals, 7)
		case 'b':
			vals = append(vals, 8)
		case 'f':
			vals = append(vals, 12)
		case 'v':
			vals = append(vals, 11)
		case 'e':
			vals = append(vals, 27)
		case 'x':
			start := i
			for i < len(body) && isDigitIn(lowerByte(body[i]), 16) {
				i++
			}
			n, _ := strconv.ParseUint(body[start:i], 16, 64)
			vals = append(vals, n)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			start := i - 1
			for i < len(body) && i-start < 3 && body[i] >= '0' && body[i] <= '7' {
				i++
			}
			n, _ := strconv.ParseUint(body[start:i], 8, 64)
			vals = append(vals, n)
		default:
			vals = append(vals, uint64(e))
		}
	}

	if prefix != "" {
		return Int(int64(vals[len(vals)-1])), nil
	}
	if len(vals) == 1 {
		return Int(int64(int8(vals[0]))), nil
	}
	var packed uint64
	for _, v := range vals {
		packed = packed<<8 | (v & 0xff)
	}
	return Int(int64(int32(packed))), nil
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
