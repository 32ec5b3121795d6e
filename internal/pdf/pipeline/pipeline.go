// Package pipeline runs a page content stream through decode, marked content
// injection and re-encode stages.
package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// Stage names reported in Result.Stages
const (
	StageInflate = "inflate"
	StageInject  = "inject"
	StageDeflate = "deflate"
)

// FilterFlate is the only stream filter the pipeline decodes
const FilterFlate = "FlateDecode"

// Stage is one byte transformation step
type Stage struct {
	Name string
	Run  func(ctx context.Context, in []byte) ([]byte, error)
}

// Pipeline is an ordered list of stages
type Pipeline []Stage

// Codec compresses and decompresses stream data
type Codec interface {
	Decode(data []byte) ([]byte, error)
	Encode(data []byte) ([]byte, error)
}

// UnsupportedFilterError is returned by Transform for streams encoded with
// a filter chain the pipeline cannot rebuild
type UnsupportedFilterError struct {
	Filters []string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("unsupported stream filter chain [%s]", strings.Join(e.Filters, " "))
}

// Supported reports whether the pipeline decodes the filter chain: no
// filter at all, or FlateDecode alone
func Supported(filters []string) bool {
	return len(filters) == 0 || isFlate(filters)
}

func isFlate(filters []string) bool {
	return len(filters) == 1 && filters[0] == FilterFlate
}

// Build returns the stages for a stream with the given filter chain.
// FlateDecode streams are wrapped as inflate, inject, deflate. Every other
// chain gets inject alone, which runs on the still encoded bytes of a
// stream with an unsupported filter.
func Build(filters []string, codec Codec, inject Stage) Pipeline {
	if isFlate(filters) {
		return Pipeline{
			{Name: StageInflate, Run: func(_ context.Context, in []byte) ([]byte, error) {
				return codec.Decode(in)
			}},
			inject,
			{Name: StageDeflate, Run: func(_ context.Context, in []byte) ([]byte, error) {
				return codec.Encode(in)
			}},
		}
	}
	return Pipeline{inject}
}

// Names lists the stage names in execution order
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// Run feeds data through every stage in order, stopping at the first error
func (p Pipeline) Run(ctx context.Context, data []byte) ([]byte, error) {
	for _, s := range p {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.Run(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", s.Name, err)
		}
		data = out
	}
	return data, nil
}
