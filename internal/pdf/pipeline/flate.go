package pipeline

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
)

// FlateCodec implements Codec with pdfcpu's FlateDecode filter
type FlateCodec struct{}

// Decode inflates zlib-wrapped data
func (FlateCodec) Decode(data []byte) ([]byte, error) {
	return runFilter(data, func(f filter.Filter, r io.Reader) (io.Reader, error) {
		return f.Decode(r)
	})
}

// Encode deflates data with a zlib wrapper
func (FlateCodec) Encode(data []byte) ([]byte, error) {
	return runFilter(data, func(f filter.Filter, r io.Reader) (io.Reader, error) {
		return f.Encode(r)
	})
}

func runFilter(data []byte, apply func(filter.Filter, io.Reader) (io.Reader, error)) ([]byte, error) {
	f, err := filter.NewFilter(filter.Flate, nil)
	if err != nil {
		return nil, err
	}
	r, err := apply(f, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
