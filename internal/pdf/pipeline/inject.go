package pipeline

import (
	"bytes"
	"context"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/contentstream"
)

// Injector is the marked content stage. It tokenizes only the operator
// segments of a stream and copies inline image data through verbatim.
type Injector struct {
	next   int
	tag    string
	strip  bool
	tagged []contentstream.Tagged
}

// NewInjector creates an injector assigning MCIDs from startID.
// With strip set, MCID-carrying marked content already in the stream is
// removed first.
func NewInjector(startID int, tag string, strip bool) *Injector {
	return &Injector{next: startID, tag: tag, strip: strip}
}

// Stage returns the injector as a pipeline stage
func (in *Injector) Stage() Stage {
	return Stage{Name: StageInject, Run: in.Apply}
}

// NextID is the first MCID not yet assigned
func (in *Injector) NextID() int {
	return in.next
}

// Tagged lists every assignment made so far in MCID order
func (in *Injector) Tagged() []contentstream.Tagged {
	return in.tagged
}

// Apply rewrites decoded content stream bytes
func (in *Injector) Apply(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(data)/4)
	afterBinary := false

	for _, seg := range contentstream.Split(data) {
		if seg.Kind == contentstream.SegmentBinary {
			out.Write(seg.Bytes)
			afterBinary = true
			continue
		}

		ops := contentstream.ParseBytes(seg.Bytes)
		if len(ops) == 0 {
			// whitespace and comments only
			out.Write(seg.Bytes)
			continue
		}
		if in.strip {
			ops = contentstream.StripMarkedContent(ops)
		}

		rewritten, next, tagged := contentstream.Rewrite(ops, in.next, in.tag)
		in.next = next
		in.tagged = append(in.tagged, tagged...)

		if afterBinary {
			// EI must not run into the next keyword
			out.WriteByte('\n')
		}
		out.Write(contentstream.Serialize(rewritten))
		afterBinary = false
	}
	return out.Bytes(), nil
}
