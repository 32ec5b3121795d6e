package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// StreamRef locates one content stream of a page
type StreamRef struct {
	Page    int
	Index   int
	PageRef types.IndirectRef
	Ref     types.IndirectRef
}

func (s StreamRef) String() string {
	return fmt.Sprintf("page %d stream %d (obj %d)", s.Page, s.Index, s.Ref.ObjectNumber.Value())
}

// ContentStreams lists the content streams of a 1-based page in painting
// order. A page without /Contents has none.
func (d *Document) ContentStreams(pageNr int) ([]StreamRef, error) {
	pageDict, pageRef, err := d.Page(pageNr)
	if err != nil {
		return nil, err
	}

	contents, found := pageDict.Find("Contents")
	if !found || contents == nil {
		return nil, nil
	}

	var refs []types.IndirectRef
	switch c := contents.(type) {
	case types.IndirectRef:
		obj, err := d.ctx.Dereference(c)
		if err != nil {
			return nil, &Error{Op: "contents", Err: fmt.Errorf("page %d: %w", pageNr, err)}
		}
		switch o := obj.(type) {
		case types.StreamDict:
			refs = append(refs, c)
		case types.Array:
			refs, err = arrayRefs(o)
		default:
			err = fmt.Errorf("unexpected /Contents object %T", obj)
		}
		if err != nil {
			return nil, &Error{Op: "contents", Err: fmt.Errorf("page %d: %w", pageNr, err)}
		}
	case types.Array:
		refs, err = arrayRefs(c)
		if err != nil {
			return nil, &Error{Op: "contents", Err: fmt.Errorf("page %d: %w", pageNr, err)}
		}
	default:
		return nil, &Error{Op: "contents", Err: fmt.Errorf("page %d: unexpected /Contents object %T", pageNr, contents)}
	}

	streams := make([]StreamRef, len(refs))
	for i, ref := range refs {
		streams[i] = StreamRef{Page: pageNr, Index: i, PageRef: pageRef, Ref: ref}
	}
	return streams, nil
}

func arrayRefs(arr types.Array) ([]types.IndirectRef, error) {
	refs := make([]types.IndirectRef, 0, len(arr))
	for _, item := range arr {
		ref, ok := item.(types.IndirectRef)
		if !ok {
			return nil, fmt.Errorf("content array entry %T is not a reference", item)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Stream returns the encoded bytes of a content stream and the names of
// its filters. A filter carrying decode parameters is reported with a
// "+DecodeParms" suffix since the pipeline cannot honor them.
func (d *Document) Stream(ref StreamRef) ([]byte, []string, error) {
	sd, _, err := d.ctx.DereferenceStreamDict(ref.Ref)
	if err != nil {
		return nil, nil, &Error{Op: "stream", Err: fmt.Errorf("%s: %w", ref, err)}
	}
	if sd == nil {
		return nil, nil, ErrNotAStream
	}

	raw := sd.Raw
	if raw == nil && sd.Content != nil {
		if err := sd.Encode(); err != nil {
			return nil, nil, &Error{Op: "stream", Err: fmt.Errorf("%s: %w", ref, err)}
		}
		raw = sd.Raw
	}

	var filters []string
	for _, f := range sd.FilterPipeline {
		name := f.Name
		if len(f.DecodeParms) > 0 {
			name += "+DecodeParms"
		}
		filters = append(filters, name)
	}
	return raw, filters, nil
}

// Replace swaps the encoded bytes of a content stream and updates /Length.
// The filter chain is left unchanged.
func (d *Document) Replace(ref StreamRef, raw []byte) error {
	entry, found := d.ctx.FindTableEntryForIndRef(&ref.Ref)
	if !found || entry == nil {
		return &Error{Op: "replace", Err: fmt.Errorf("%s: object not found", ref)}
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return ErrNotAStream
	}

	length := int64(len(raw))
	sd.Raw = raw
	sd.Content = nil
	sd.StreamLength = &length
	sd.StreamLengthObjNr = nil
	sd.Dict["Length"] = types.Integer(len(raw))

	entry.Object = sd
	return nil
}
