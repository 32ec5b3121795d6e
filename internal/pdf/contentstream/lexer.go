package contentstream

import (
	"strconv"
)

// Lexer splits operator text into tokens. It never fails: bytes that
// cannot start a token are skipped.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer over data
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Tokenize returns every token in data
func Tokenize(data []byte) []Token {
	l := NewLexer(data)
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Next returns the next token. ok is false at end of input.
func (l *Lexer) Next() (tok Token, ok bool) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return Token{}, false
		}

		start := l.pos
		ch := l.data[l.pos]
		switch {
		case ch == '%':
			l.pos = skipComment(l.data, l.pos)
		case ch == '/':
			return l.readName(), true
		case ch == '(':
			return l.readString(), true
		case ch == '<':
			if l.peek(1) == '<' {
				l.pos += 2
				return Token{Kind: TokenDictStart, Pos: start}, true
			}
			return l.readHexString(), true
		case ch == '>':
			if l.peek(1) == '>' {
				l.pos += 2
				return Token{Kind: TokenDictEnd, Pos: start}, true
			}
			l.pos++
		case ch == '[':
			l.pos++
			return Token{Kind: TokenArrayStart, Pos: start}, true
		case ch == ']':
			l.pos++
			return Token{Kind: TokenArrayEnd, Pos: start}, true
		case ch == '{' || ch == '}':
			l.pos++
			return Token{Kind: TokenOperator, Text: string(ch), Pos: start}, true
		case ch == ')':
			// unbalanced close paren
			l.pos++
		default:
			return l.readKeywordOrNumber(), true
		}
	}
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.data) {
		return 0
	}
	return l.data[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && IsWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readName reads a name token. #xx escapes are kept as written.
func (l *Lexer) readName() Token {
	start := l.pos
	l.pos++ // skip '/'
	for l.pos < len(l.data) && IsRegular(l.data[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokenName, Text: string(l.data[start+1 : l.pos]), Pos: start}
}

// readString reads a literal string up to the parenthesis balancing the
// opening one. Escaped parentheses do not change the depth.
func (l *Lexer) readString() Token {
	start := l.pos
	end := skipLiteral(l.data, l.pos)
	l.pos = end

	bodyEnd := end
	if bodyEnd > start+1 && l.data[bodyEnd-1] == ')' && balanced(l.data[start:end]) {
		bodyEnd--
	}
	return Token{Kind: TokenString, Text: string(l.data[start+1 : bodyEnd]), Pos: start}
}

// balanced reports whether the literal string closes before end of input
func balanced(lit []byte) bool {
	depth := 0
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth == 0
}

func (l *Lexer) readHexString() Token {
	start := l.pos
	l.pos++ // skip '<'
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		l.pos++
	}
	text := string(l.data[start+1 : l.pos])
	if l.pos < len(l.data) {
		l.pos++ // skip '>'
	}
	return Token{Kind: TokenHexString, Text: text, Pos: start}
}

// readKeywordOrNumber reads a run of regular bytes and classifies it
func (l *Lexer) readKeywordOrNumber() Token {
	start := l.pos
	for l.pos < len(l.data) && IsRegular(l.data[l.pos]) {
		l.pos++
	}
	word := string(l.data[start:l.pos])

	if isNumeric(word) {
		if n, err := strconv.ParseFloat(normalizeNumber(word), 64); err == nil {
			return Token{Kind: TokenNumber, Text: word, Number: n, Pos: start}
		}
	}

	switch word {
	case "true":
		return Token{Kind: TokenBool, Text: word, Bool: true, Pos: start}
	case "false":
		return Token{Kind: TokenBool, Text: word, Pos: start}
	case "null":
		return Token{Kind: TokenNull, Text: word, Pos: start}
	}
	return Token{Kind: TokenOperator, Text: word, Pos: start}
}

// isNumeric reports whether word is made only of sign, digit and point bytes
// and contains at least one digit
func isNumeric(word string) bool {
	digits := 0
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '+' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// normalizeNumber drops a duplicated leading sign such as "--5", which some
// producers emit and readers treat as a single sign
func normalizeNumber(word string) string {
	for len(word) > 1 && (word[0] == '-' || word[0] == '+') && (word[1] == '-' || word[1] == '+') {
		word = word[1:]
	}
	return word
}
