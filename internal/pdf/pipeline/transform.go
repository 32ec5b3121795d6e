package pipeline

import (
	"context"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/contentstream"
)

// Options configures Transform
type Options struct {
	// Tag is the marked content tag, contentstream.DefaultTag when empty
	Tag string
	// Strip removes existing MCID marked content before injecting
	Strip bool
	// Codec defaults to FlateCodec
	Codec Codec
	// AllowUnsupported injects into streams whose filter chain is not
	// Supported without decoding them. The result is only meaningful when
	// such a stream is not actually encoded.
	AllowUnsupported bool
}

// Result is the outcome of transforming one stream
type Result struct {
	Data   []byte
	Tagged []contentstream.Tagged
	NextID int
	Stages []string
}

// IDs returns the MCIDs assigned to the stream in increasing order
func (r *Result) IDs() []int {
	ids := make([]int, len(r.Tagged))
	for i, t := range r.Tagged {
		ids[i] = t.MCID
	}
	return ids
}

// Transform tags the raw (still encoded) bytes of one content stream.
// MCIDs start at startID. The returned data is encoded with the same
// filter chain as the input. Unsupported filter chains fail with an
// *UnsupportedFilterError unless opts.AllowUnsupported is set.
func Transform(ctx context.Context, raw []byte, filters []string, startID int, opts Options) (*Result, error) {
	codec := opts.Codec
	if codec == nil {
		codec = FlateCodec{}
	}

	if !opts.AllowUnsupported && !Supported(filters) {
		return nil, &UnsupportedFilterError{Filters: filters}
	}

	injector := NewInjector(startID, opts.Tag, opts.Strip)
	p := Build(filters, codec, injector.Stage())

	data, err := p.Run(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:   data,
		Tagged: injector.Tagged(),
		NextID: injector.NextID(),
		Stages: p.Names(),
	}, nil
}
