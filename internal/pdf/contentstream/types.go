// Package contentstream reads, rewrites and writes PDF page content streams.
//
// Content is handled as raw bytes. Every byte maps to exactly one character
// position, so offsets into tokens are byte offsets and string operands keep
// their original bytes untouched.
package contentstream

import "fmt"

// TokenKind identifies the lexical class of a token
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenName
	TokenString
	TokenHexString
	TokenBool
	TokenNull
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenOperator
)

// String returns a readable name for the token kind
func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "Number"
	case TokenName:
		return "Name"
	case TokenString:
		return "String"
	case TokenHexString:
		return "HexString"
	case TokenBool:
		return "Bool"
	case TokenNull:
		return "Null"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	case TokenOperator:
		return "Operator"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is a single lexical unit of a content stream.
// Text holds the name without its slash, the string body without
// delimiters, or the operator keyword. Number is set for TokenNumber.
type Token struct {
	Kind   TokenKind
	Text   string
	Number float64
	Bool   bool
	Pos    int
}

// Operand is one of the value types that can precede an operator.
// The set is closed: Number, Name, String, HexString, Bool, Null, Array, Dict.
type Operand interface {
	operand()
}

// Number is a numeric operand. Integers and reals share one representation.
type Number float64

// Name is a name operand without the leading slash
type Name string

// String is a literal string operand holding the raw bytes between the
// outer parentheses, escapes included.
type String string

// HexString is a hex string operand holding the raw hex digits
type HexString string

// Bool is a boolean operand
type Bool bool

// Null is the null operand
type Null struct{}

// Array is an array operand
type Array []Operand

// DictEntry is one key/value pair of a Dict
type DictEntry struct {
	Key   string
	Value Operand
}

// Dict is a dictionary operand. Entries keep their source order.
type Dict []DictEntry

func (Number) operand()    {}
func (Name) operand()      {}
func (String) operand()    {}
func (HexString) operand() {}
func (Bool) operand()      {}
func (Null) operand()      {}
func (Array) operand()     {}
func (Dict) operand()      {}

// Get returns the value stored under key
func (d Dict) Get(key string) (Operand, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key, appending the entry if it is new
func (d Dict) Set(key string, value Operand) Dict {
	for i, e := range d {
		if e.Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, DictEntry{Key: key, Value: value})
}

// Operator is an operator keyword together with the operands preceding it.
// An Operator with an empty Name carries operands that were not followed by
// any keyword before the end of the stream.
type Operator struct {
	Name     string
	Operands []Operand
}

// Is reports whether the operator keyword equals name
func (o Operator) Is(name string) bool {
	return o.Name == name
}

// Content operator keywords used by the tagger
const (
	OpBeginText       = "BT"
	OpEndText         = "ET"
	OpShowText        = "Tj"
	OpShowTextArray   = "TJ"
	OpNextLineShow    = "'"
	OpSpacedShow      = "\""
	OpBeginMarked     = "BDC"
	OpBeginMarkedNoPL = "BMC"
	OpEndMarked       = "EMC"
)

// IsTextShowing reports whether the operator paints text
func IsTextShowing(name string) bool {
	switch name {
	case OpShowText, OpShowTextArray, OpNextLineShow, OpSpacedShow:
		return true
	}
	return false
}

// TextBlock is the operator sequence from a BT to its matching ET, inclusive
type TextBlock struct {
	Operators []Operator
}

// Run is a contiguous slice of a parsed stream. Text runs hold exactly one
// closed TextBlock; other runs pass through unchanged.
type Run struct {
	Text      bool
	Operators []Operator
}

// SegmentKind distinguishes operator text from inline image data
type SegmentKind int

const (
	SegmentOperators SegmentKind = iota
	SegmentBinary
)

// String returns a readable name for the segment kind
func (k SegmentKind) String() string {
	if k == SegmentBinary {
		return "Binary"
	}
	return "Operators"
}

// Segment is a contiguous span of a content stream
type Segment struct {
	Kind  SegmentKind
	Bytes []byte
}
