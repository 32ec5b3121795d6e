package pipeline

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zlibBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func unzlib(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

// recordingCodec logs calls into a shared journal
type recordingCodec struct {
	journal *[]string
}

func (c recordingCodec) Decode(data []byte) ([]byte, error) {
	*c.journal = append(*c.journal, StageInflate)
	return bytes.TrimPrefix(data, []byte("z:")), nil
}

func (c recordingCodec) Encode(data []byte) ([]byte, error) {
	*c.journal = append(*c.journal, StageDeflate)
	return append([]byte("z:"), data...), nil
}

func TestBuild(t *testing.T) {
	inject := Stage{Name: StageInject, Run: func(_ context.Context, in []byte) ([]byte, error) { return in, nil }}

	tests := []struct {
		name      string
		filters   []string
		stages    []string
		supported bool
	}{
		{"Flate", []string{FilterFlate}, []string{StageInflate, StageInject, StageDeflate}, true},
		{"Unfiltered", nil, []string{StageInject}, true},
		{"OtherFilter", []string{"ASCIIHexDecode"}, []string{StageInject}, false},
		{"FilterChain", []string{"ASCII85Decode", FilterFlate}, []string{StageInject}, false},
		{"FlateWithParms", []string{FilterFlate + "+DecodeParms"}, []string{StageInject}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stages, Build(tt.filters, FlateCodec{}, inject).Names())
			assert.Equal(t, tt.supported, Supported(tt.filters))
		})
	}
}

func TestPipelineOrder(t *testing.T) {
	var journal []string
	inject := Stage{Name: StageInject, Run: func(_ context.Context, in []byte) ([]byte, error) {
		journal = append(journal, StageInject)
		// the inject stage only ever sees decoded bytes
		assert.Equal(t, "BT (a) Tj ET", string(in))
		return in, nil
	}}

	p := Build([]string{FilterFlate}, recordingCodec{journal: &journal}, inject)

	out, err := p.Run(context.Background(), []byte("z:BT (a) Tj ET"))
	require.NoError(t, err)
	assert.Equal(t, "z:BT (a) Tj ET", string(out))
	assert.Equal(t, []string{StageInflate, StageInject, StageDeflate}, journal)
}

func TestPipelineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := Pipeline{
		{Name: "first", Run: func(_ context.Context, in []byte) ([]byte, error) { calls++; return nil, boom }},
		{Name: "second", Run: func(_ context.Context, in []byte) ([]byte, error) { calls++; return in, nil }},
	}
	_, err := p.Run(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "first stage")
	assert.Equal(t, 1, calls)
}

func TestPipelineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Transform(ctx, []byte("BT (a) Tj ET"), nil, 0, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlateCodec(t *testing.T) {
	original := []byte("BT /F1 12 Tf (Hello) Tj ET")

	decoded, err := FlateCodec{}.Decode(zlibBytes(t, original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	encoded, err := FlateCodec{}.Encode(original)
	require.NoError(t, err)
	assert.Equal(t, original, unzlib(t, encoded))

	_, err = FlateCodec{}.Decode([]byte("not zlib"))
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	t.Run("FlateStream", func(t *testing.T) {
		raw := zlibBytes(t, []byte("BT /F1 12 Tf (Hello) Tj ET"))
		res, err := Transform(context.Background(), raw, []string{FilterFlate}, 3, Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{StageInflate, StageInject, StageDeflate}, res.Stages)
		assert.Equal(t, []int{3}, res.IDs())
		assert.Equal(t, 4, res.NextID)
		assert.Equal(t,
			"BT\n/F1 12 Tf\n/Span <</MCID 3>> BDC\n(Hello) Tj\nEMC\nET\n",
			string(unzlib(t, res.Data)))
	})

	t.Run("UnfilteredStream", func(t *testing.T) {
		res, err := Transform(context.Background(), []byte("BT (a) Tj (b) Tj ET"), nil, 0, Options{Tag: "P"})
		require.NoError(t, err)
		assert.Equal(t, []string{StageInject}, res.Stages)
		assert.Equal(t, []int{0, 1}, res.IDs())
		assert.Contains(t, string(res.Data), "/P <</MCID 1>> BDC\n(b) Tj\nEMC\n")
	})

	t.Run("NoText", func(t *testing.T) {
		res, err := Transform(context.Background(), []byte("q 0 0 10 10 re f Q"), nil, 9, Options{})
		require.NoError(t, err)
		assert.Empty(t, res.IDs())
		assert.Equal(t, 9, res.NextID)
	})

	t.Run("InlineImagePassthrough", func(t *testing.T) {
		image := "BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xffBTET\x80 EI"
		src := "BT (a) Tj ET q " + image + " Q BT (b) Tj ET"
		res, err := Transform(context.Background(), []byte(src), nil, 0, Options{})
		require.NoError(t, err)

		out := string(res.Data)
		assert.Contains(t, out, image)
		assert.Contains(t, out, image+"\nQ\n")
		assert.Equal(t, []int{0, 1}, res.IDs())
	})

	t.Run("StripExisting", func(t *testing.T) {
		first, err := Transform(context.Background(), []byte("BT (a) Tj ET"), nil, 0, Options{})
		require.NoError(t, err)
		second, err := Transform(context.Background(), first.Data, nil, 0, Options{Strip: true})
		require.NoError(t, err)
		assert.Equal(t, string(first.Data), string(second.Data))
	})

	t.Run("UnsupportedFilter", func(t *testing.T) {
		_, err := Transform(context.Background(), []byte("BT (a) Tj ET"), []string{"ASCII85Decode", FilterFlate}, 0, Options{})
		var ufe *UnsupportedFilterError
		require.True(t, errors.As(err, &ufe))
		assert.Equal(t, []string{"ASCII85Decode", FilterFlate}, ufe.Filters)
		assert.Contains(t, err.Error(), "ASCII85Decode FlateDecode")
	})

	t.Run("AllowUnsupportedFilter", func(t *testing.T) {
		res, err := Transform(context.Background(), []byte("BT (a) Tj ET"), []string{"ASCIIHexDecode"}, 5,
			Options{AllowUnsupported: true})
		require.NoError(t, err)
		assert.Equal(t, []string{StageInject}, res.Stages)
		assert.Equal(t, []int{5}, res.IDs())
	})

	t.Run("CorruptFlate", func(t *testing.T) {
		_, err := Transform(context.Background(), []byte("garbage"), []string{FilterFlate}, 0, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), StageInflate)
	})
}
