package contentstream

// DefaultTag is the marked content tag written before each text operator
const DefaultTag = "Span"

// MarkedContent returns the BDC operator opening a sequence with the given
// tag and MCID
func MarkedContent(tag string, mcid int) Operator {
	return Operator{
		Name: OpBeginMarked,
		Operands: []Operand{
			Name(tag),
			Dict{{Key: "MCID", Value: Number(mcid)}},
		},
	}
}

// Inject wraps every text-showing operator of block in its own BDC ... EMC
// sequence. IDs are assigned from startID upward; the returned next ID is
// startID plus the number of wrapped operators.
func Inject(block TextBlock, startID int, tag string) ([]Operator, int) {
	if tag == "" {
		tag = DefaultTag
	}
	out := make([]Operator, 0, len(block.Operators))
	id := startID
	for _, op := range block.Operators {
		if !IsTextShowing(op.Name) {
			out = append(out, op)
			continue
		}
		out = append(out, MarkedContent(tag, id), op, Operator{Name: OpEndMarked})
		id++
	}
	return out, id
}

// Tagged records the MCID assigned to a text-showing operator
type Tagged struct {
	MCID     int
	Operator Operator
}

// Rewrite injects marked content into every closed text block of ops and
// leaves everything else in place. It returns the rewritten operators, the
// next unused ID and one Tagged entry per assigned ID in increasing order.
func Rewrite(ops []Operator, startID int, tag string) ([]Operator, int, []Tagged) {
	out := make([]Operator, 0, len(ops))
	var tagged []Tagged
	next := startID

	for _, run := range Partition(ops) {
		if !run.Text {
			out = append(out, run.Operators...)
			continue
		}
		first := next
		injected, after := Inject(TextBlock{Operators: run.Operators}, next, tag)
		id := first
		for _, op := range run.Operators {
			if IsTextShowing(op.Name) {
				tagged = append(tagged, Tagged{MCID: id, Operator: op})
				id++
			}
		}
		out = append(out, injected...)
		next = after
	}
	return out, next, tagged
}
