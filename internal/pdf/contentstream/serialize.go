package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
)

// Serialize writes ops back to content stream syntax, one operator per line
func Serialize(ops []Operator) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		WriteOperator(&buf, op)
	}
	return buf.Bytes()
}

// WriteOperator appends a single operator line to buf
func WriteOperator(buf *bytes.Buffer, op Operator) {
	for i, v := range op.Operands {
		if i > 0 {
			buf.WriteByte(' ')
		}
		WriteOperand(buf, v)
	}
	if op.Name != "" {
		if len(op.Operands) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Name)
	}
	buf.WriteByte('\n')
}

// WriteOperand appends the canonical form of v to buf
func WriteOperand(buf *bytes.Buffer, v Operand) {
	switch v := v.(type) {
	case Number:
		buf.WriteString(FormatNumber(float64(v)))
	case Name:
		buf.WriteByte('/')
		buf.WriteString(string(v))
	case String:
		buf.WriteByte('(')
		buf.WriteString(string(v))
		buf.WriteByte(')')
	case HexString:
		buf.WriteByte('<')
		buf.WriteString(string(v))
		buf.WriteByte('>')
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Null:
		buf.WriteString("null")
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			WriteOperand(buf, item)
		}
		buf.WriteByte(']')
	case Dict:
		buf.WriteString("<<")
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteByte('/')
			buf.WriteString(e.Key)
			buf.WriteByte(' ')
			WriteOperand(buf, e.Value)
		}
		buf.WriteString(">>")
	default:
		panic(fmt.Sprintf("contentstream: unknown operand type %T", v))
	}
}

// FormatNumber renders n in plain decimal without exponent or trailing zeros
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
