package contentstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialize(t *testing.T) {
	t.Run("OneOperatorPerLine", func(t *testing.T) {
		ops := ParseBytes([]byte("BT /F1 12 Tf 0 0 Td (Hello) Tj ET"))
		assert.Equal(t, "BT\n/F1 12 Tf\n0 0 Td\n(Hello) Tj\nET\n", string(Serialize(ops)))
	})

	t.Run("Numbers", func(t *testing.T) {
		tests := []struct {
			in   float64
			want string
		}{
			{3, "3"},
			{1.5, "1.5"},
			{-0.25, "-0.25"},
			{1000000, "1000000"},
			{0.000001, "0.000001"},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		}
	})

	t.Run("Containers", func(t *testing.T) {
		op := Operator{
			Name: "BDC",
			Operands: []Operand{
				Name("Span"),
				Dict{
					{Key: "MCID", Value: Number(0)},
					{Key: "Lang", Value: String("en")},
					{Key: "A", Value: Array{Bool(true), Null{}, HexString("4F")}},
				},
			},
		}
		assert.Equal(t, "/Span <</MCID 0 /Lang (en) /A [true null <4F>]>> BDC\n", string(Serialize([]Operator{op})))
	})

	t.Run("OperandsWithoutOperator", func(t *testing.T) {
		assert.Equal(t, "1 2\n", string(Serialize([]Operator{{Operands: []Operand{Number(1), Number(2)}}})))
	})

	t.Run("RawBytesPreserved", func(t *testing.T) {
		out := Serialize(ParseBytes([]byte("(caf\xe9 \\(x\\)) Tj")))
		assert.Equal(t, "(caf\xe9 \\(x\\)) Tj\n", string(out))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		src := []byte("q 1 0 0 1 72 720 cm BT /F1 9.5 Tf [(W) 80 (orld)] TJ 0 -12 TD (x) ' ET Q")
		first := Serialize(ParseBytes(src))
		second := Serialize(ParseBytes(first))
		assert.Equal(t, string(first), string(second))
	})

	t.Run("UnknownOperandPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			Serialize([]Operator{{Name: "x", Operands: []Operand{nil}}})
		})
	})
}

func TestShownText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Literal", "(Hello) Tj", "Hello"},
		{"Escapes", `(a\(b\)\\c) Tj`, `a(b)\c`},
		{"Octal", `(caf\351) Tj`, "café"},
		{"Latin1", "(caf\xe9) Tj", "café"},
		{"Hex", "<48 69> Tj", "Hi"},
		{"OddHex", "<486> Tj", "H`"},
		{"ArrayKerning", "[(Hel) -300 (lo) 20 (!)] TJ", "Hel lo!"},
		{"NextLine", "(line) '", "line"},
		{"Spaced", "1 2 (spaced) \"", "spaced"},
		{"NotText", "1 0 0 RG", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := ParseBytes([]byte(tt.src))
			assert.Equal(t, tt.want, ShownText(ops[0]))
		})
	}
}
