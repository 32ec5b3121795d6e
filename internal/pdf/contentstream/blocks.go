package contentstream

// Partition splits ops into text runs and passthrough runs. A text run is a
// closed BT ... ET block. Operators of a block that is never closed, or that
// is interrupted by another BT, are returned as passthrough. Concatenating
// the runs yields ops again.
func Partition(ops []Operator) []Run {
	var runs []Run
	var pass []Operator
	var block []Operator
	open := false

	flushPass := func() {
		if len(pass) > 0 {
			runs = append(runs, Run{Operators: pass})
			pass = nil
		}
	}

	for _, op := range ops {
		switch {
		case op.Is(OpBeginText):
			if open {
				// previous block never closed
				pass = append(pass, block...)
			}
			block = []Operator{op}
			open = true
		case op.Is(OpEndText) && open:
			block = append(block, op)
			flushPass()
			runs = append(runs, Run{Text: true, Operators: block})
			block = nil
			open = false
		case open:
			block = append(block, op)
		default:
			pass = append(pass, op)
		}
	}

	if open {
		pass = append(pass, block...)
	}
	flushPass()
	return runs
}

// TextBlocks returns the closed BT ... ET blocks of ops in order
func TextBlocks(ops []Operator) []TextBlock {
	var blocks []TextBlock
	for _, run := range Partition(ops) {
		if run.Text {
			blocks = append(blocks, TextBlock{Operators: run.Operators})
		}
	}
	return blocks
}

// StripMarkedContent removes BDC ... EMC pairs whose inline property list
// carries an MCID. Other marked content sequences are kept.
func StripMarkedContent(ops []Operator) []Operator {
	out := make([]Operator, 0, len(ops))
	var stack []bool

	for _, op := range ops {
		switch op.Name {
		case OpBeginMarked:
			drop := hasMCID(op)
			stack = append(stack, drop)
			if drop {
				continue
			}
		case OpBeginMarkedNoPL:
			stack = append(stack, false)
		case OpEndMarked:
			if n := len(stack); n > 0 {
				drop := stack[n-1]
				stack = stack[:n-1]
				if drop {
					continue
				}
			}
		}
		out = append(out, op)
	}
	return out
}

// HasMarkedContent reports whether ops contain a BDC with an MCID
func HasMarkedContent(ops []Operator) bool {
	for _, op := range ops {
		if op.Is(OpBeginMarked) && hasMCID(op) {
			return true
		}
	}
	return false
}

func hasMCID(op Operator) bool {
	if len(op.Operands) < 2 {
		return false
	}
	props, ok := op.Operands[1].(Dict)
	if !ok {
		return false
	}
	_, ok = props.Get("MCID")
	return ok
}
