package contentstream

import (
	"encoding/hex"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ShownBytes returns the string bytes painted by a text-showing operator.
// Literal escapes are resolved and hex strings decoded. Large negative
// kerning in a TJ array is rendered as a space.
func ShownBytes(op Operator) []byte {
	if !IsTextShowing(op.Name) || len(op.Operands) == 0 {
		return nil
	}
	last := op.Operands[len(op.Operands)-1]
	if op.Is(OpShowTextArray) {
		arr, ok := last.(Array)
		if !ok {
			return nil
		}
		var out []byte
		for _, item := range arr {
			if n, ok := item.(Number); ok {
				if n < -200 {
					out = append(out, ' ')
				}
				continue
			}
			out = append(out, stringBytes(item)...)
		}
		return out
	}
	return stringBytes(last)
}

// DecodeText maps raw string bytes to text one byte per character
func DecodeText(raw []byte) string {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(text)
}

// ShownText returns a readable rendering of the text painted by op
func ShownText(op Operator) string {
	return strings.TrimSpace(DecodeText(ShownBytes(op)))
}

func stringBytes(v Operand) []byte {
	switch v := v.(type) {
	case String:
		return UnescapeLiteral(string(v))
	case HexString:
		return decodeHex(string(v))
	}
	return nil
}

func decodeHex(s string) []byte {
	digits := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		if !IsWhitespace(s[i]) {
			digits = append(digits, s[i])
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, err := hex.Decode(out, digits)
	if err != nil {
		return out[:n]
	}
	return out
}

// UnescapeLiteral resolves the backslash escapes of a literal string body
func UnescapeLiteral(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			// line continuation
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		default:
			if e >= '0' && e <= '7' {
				v := int(e - '0')
				for k := 0; k < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; k++ {
					i++
					v = v*8 + int(s[i]-'0')
				}
				out = append(out, byte(v))
				continue
			}
			out = append(out, e)
		}
	}
	return out
}
