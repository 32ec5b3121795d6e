package contentstream

// Parse groups tokens into operators. Operands accumulate until an operator
// keyword arrives. Stray closing brackets are ignored, and an unclosed array
// or dictionary ends at end of input with whatever it collected.
func Parse(tokens []Token) []Operator {
	p := &parser{tokens: tokens}
	return p.parse()
}

// ParseBytes tokenizes and parses data in one step
func ParseBytes(data []byte) []Operator {
	return Parse(Tokenize(data))
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) next() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) parse() []Operator {
	var ops []Operator
	var operands []Operand

	for {
		tok, ok := p.next()
		if !ok {
			break
		}
		switch tok.Kind {
		case TokenOperator:
			ops = append(ops, Operator{Name: tok.Text, Operands: operands})
			operands = nil
		case TokenArrayEnd, TokenDictEnd:
			// unbalanced close
		default:
			if v, ok := p.value(tok); ok {
				operands = append(operands, v)
			}
		}
	}

	if len(operands) > 0 {
		ops = append(ops, Operator{Operands: operands})
	}
	return ops
}

// value converts tok into an operand, reading nested containers as needed
func (p *parser) value(tok Token) (Operand, bool) {
	switch tok.Kind {
	case TokenNumber:
		return Number(tok.Number), true
	case TokenName:
		return Name(tok.Text), true
	case TokenString:
		return String(tok.Text), true
	case TokenHexString:
		return HexString(tok.Text), true
	case TokenBool:
		return Bool(tok.Bool), true
	case TokenNull:
		return Null{}, true
	case TokenArrayStart:
		return p.array(), true
	case TokenDictStart:
		return p.dict(), true
	}
	return nil, false
}

func (p *parser) array() Array {
	arr := Array{}
	for {
		tok, ok := p.next()
		if !ok || tok.Kind == TokenArrayEnd {
			return arr
		}
		if v, ok := p.value(tok); ok {
			arr = append(arr, v)
		}
	}
}

func (p *parser) dict() Dict {
	d := Dict{}
	for {
		tok, ok := p.next()
		if !ok || tok.Kind == TokenDictEnd {
			return d
		}
		if tok.Kind != TokenName {
			continue
		}
		key := tok.Text

		// find the value, skipping tokens that cannot be one
		for {
			vtok, ok := p.next()
			if !ok || vtok.Kind == TokenDictEnd {
				// dangling key
				return d
			}
			if v, ok := p.value(vtok); ok {
				d = append(d, DictEntry{Key: key, Value: v})
				break
			}
		}
	}
}
