// Package tagger turns an untagged PDF into a tagged one: every text-showing
// operator gets its own marked content sequence and the document receives a
// structure tree that points at those sequences.
package tagger

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/contentstream"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/document"
	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/pipeline"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/structtree"
)

// ErrAlreadyTagged is returned for documents that carry a structure tree
// when Overwrite is not set
var ErrAlreadyTagged = stderrors.New("document already has a structure tree")

// Options configures a tagging run
type Options struct {
	// Role is the structure type of each element, structtree.DefaultRole when empty
	Role string
	// Tag is the marked content tag, contentstream.DefaultTag when empty
	Tag string
	// Policy decides whether a failing stream is skipped or ends the run
	Policy pdferrors.Policy
	// Overwrite replaces an existing structure tree instead of refusing
	Overwrite bool
	// Verify compares extracted page text before and after tagging
	Verify bool
	// AllowUnsupportedFilters injects into streams with filters other than
	// FlateDecode without decoding them instead of failing those streams
	AllowUnsupportedFilters bool
	// PreviewLimit caps the number of run previews kept in the report
	PreviewLimit int
	Logger       *log.Logger
}

// StreamResult describes what happened to one content stream
type StreamResult struct {
	Page    int      `json:"page"`
	Index   int      `json:"index"`
	Object  int      `json:"object"`
	IDs     []int    `json:"mcids,omitempty"`
	Stages  []string `json:"stages,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
	// Shared is set when the stream object was already processed for an
	// earlier page or position; its MCIDs are listed on that first result
	Shared  bool     `json:"shared,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RunPreview shows the text of one tagged operator
type RunPreview struct {
	MCID     int    `json:"mcid"`
	Page     int    `json:"page"`
	Operator string `json:"operator"`
	Text     string `json:"text"`
}

// Report summarizes a tagging run
type Report struct {
	Pages             int                        `json:"pages"`
	Streams           int                        `json:"streams"`
	StreamsTagged     int                        `json:"streams_tagged"`
	StreamsSkipped    int                        `json:"streams_skipped"`
	MCIDs             int                        `json:"mcids"`
	StructElements    int                        `json:"struct_elements"`
	MarkedContentRefs int                        `json:"marked_content_refs"`
	Results           []StreamResult             `json:"streams_detail"`
	Assignments       []structtree.Assignment    `json:"-"`
	Runs              []RunPreview               `json:"runs,omitempty"`
	Errors            *pdferrors.ErrorCollection `json:"errors"`
	Verification      *Verification              `json:"verification,omitempty"`
	Duration          time.Duration              `json:"duration"`
}

// Tagger runs the tagging pipeline over whole documents
type Tagger struct {
	opts   Options
	logger *log.Logger
}

// New creates a tagger
func New(opts Options) *Tagger {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Tagger{opts: opts, logger: logger}
}

type pendingStream struct {
	ref  document.StreamRef
	data []byte
}

// TagDocument tags doc in place. Streams are processed page by page in
// painting order with one counter, so MCIDs increase across the whole
// document. A stream object referenced more than once is rewritten only on
// its first visit. Stream rewrites are applied only once every stream has
// been processed; an aborted run leaves doc unchanged.
//
// When an existing tree is overwritten any stream failure ends the run,
// whatever the policy: a skipped stream would keep its old MCIDs.
func (t *Tagger) TagDocument(ctx context.Context, doc *document.Document) (*Report, error) {
	start := time.Now()
	report := &Report{Pages: doc.PageCount(), Errors: pdferrors.NewErrorCollection("")}

	if err := doc.Permissions().CheckTagging(); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeSecurityRestriction, err)
	}

	existing, err := doc.StructTreeRoot()
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, err)
	}
	if existing != nil && !t.opts.Overwrite {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeAlreadyTagged, ErrAlreadyTagged)
	}
	strip := existing != nil

	counter := NewCounter()
	var pending []pendingStream
	seen := map[int]bool{}

	for pageNr := 1; pageNr <= report.Pages; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeTimeout, err)
		}

		refs, err := doc.ContentStreams(pageNr)
		if err != nil {
			perr := pdferrors.WrapError(pdferrors.ErrorTypeMalformedPage, err).WithPage(pageNr)
			if err := t.fail(report, perr, strip); err != nil {
				return nil, err
			}
			continue
		}

		for _, ref := range refs {
			report.Streams++
			result := StreamResult{Page: ref.Page, Index: ref.Index, Object: ref.Ref.ObjectNumber.Value()}

			if seen[result.Object] {
				result.Shared = true
				report.Results = append(report.Results, result)
				t.logger.Printf("Page %d stream %d reuses object %d, already tagged", ref.Page, ref.Index, result.Object)
				continue
			}
			seen[result.Object] = true

			res, perr := t.transform(ctx, doc, ref, counter.Next(), strip)
			if perr != nil {
				if perr.Type == pdferrors.ErrorTypeTimeout {
					return nil, perr
				}
				result.Skipped = true
				result.Error = perr.Error()
				report.Results = append(report.Results, result)
				report.StreamsSkipped++
				if err := t.fail(report, perr, strip); err != nil {
					return nil, err
				}
				continue
			}

			counter.Advance(res.NextID)
			ids := res.IDs()
			result.IDs = ids
			result.Stages = res.Stages
			report.Results = append(report.Results, result)
			report.Assignments = append(report.Assignments, structtree.Assignment{
				PageRef:    ref.PageRef,
				PageNumber: pageNr,
				IDs:        ids,
			})

			if len(ids) > 0 || strip {
				pending = append(pending, pendingStream{ref: ref, data: res.Data})
			}
			if len(ids) > 0 {
				report.StreamsTagged++
			}
			t.addPreviews(report, pageNr, res.Tagged)
		}
	}

	for _, p := range pending {
		if err := doc.Replace(p.ref, p.data); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStream, err).
				WithStream(p.ref.Page, p.ref.Index, p.ref.Ref.ObjectNumber.Value())
		}
	}

	builder := structtree.Builder{Role: t.opts.Role}
	tree, err := builder.Build(doc.Registrar(), report.Assignments)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStructure, err)
	}
	if err := doc.SetStructTreeRoot(*tree.Root); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStructure, err)
	}
	if err := doc.MarkTagged(); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStructure, err)
	}

	report.MCIDs = counter.Next()
	report.StructElements = len(tree.Elements)
	report.MarkedContentRefs = tree.MCRs
	report.Duration = time.Since(start)

	t.logger.Printf("Tagged %d of %d content streams on %d pages: %d MCIDs, %d structure elements",
		report.StreamsTagged, report.Streams, report.Pages, report.MCIDs, report.StructElements)
	return report, nil
}

// transform runs the pipeline over one stream and classifies any failure
func (t *Tagger) transform(ctx context.Context, doc *document.Document, ref document.StreamRef, startID int, strip bool) (*pipeline.Result, *pdferrors.PDFError) {
	objNr := ref.Ref.ObjectNumber.Value()

	raw, filters, err := doc.Stream(ref)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStream, err).WithStream(ref.Page, ref.Index, objNr)
	}

	res, err := pipeline.Transform(ctx, raw, filters, startID, pipeline.Options{
		Tag:              t.opts.Tag,
		Strip:            strip,
		AllowUnsupported: t.opts.AllowUnsupportedFilters,
	})
	if err != nil {
		var ufe *pipeline.UnsupportedFilterError
		switch {
		case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeTimeout, err)
		case stderrors.As(err, &ufe):
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidFilter, err).WithStream(ref.Page, ref.Index, objNr)
		default:
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidStream, err).WithStream(ref.Page, ref.Index, objNr)
		}
	}
	return res, nil
}

// fail records perr and returns it when the run has to end
func (t *Tagger) fail(report *Report, perr *pdferrors.PDFError, strip bool) error {
	report.Errors.Add(perr)
	if t.opts.Policy.ShouldAbort(perr) {
		return perr
	}
	if strip {
		return perr.WithContext("existing marked content could not be removed")
	}
	t.logger.Printf("Skipping page %d stream %d: %v", perr.PageNumber, perr.StreamIndex, perr)
	return nil
}

func (t *Tagger) addPreviews(report *Report, pageNr int, tagged []contentstream.Tagged) {
	for _, tg := range tagged {
		if t.opts.PreviewLimit > 0 && len(report.Runs) >= t.opts.PreviewLimit {
			return
		}
		report.Runs = append(report.Runs, RunPreview{
			MCID:     tg.MCID,
			Page:     pageNr,
			Operator: tg.Operator.Name,
			Text:     contentstream.ShownText(tg.Operator),
		})
	}
}

// TagFile reads a PDF from in, tags it and writes the result to out.
// Nothing is written when tagging fails.
func (t *Tagger) TagFile(ctx context.Context, in io.Reader, out io.Writer) (*Report, error) {
	original, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	doc, err := document.Open(bytes.NewReader(original))
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, err)
	}

	report, err := t.TagDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, err)
	}

	if t.opts.Verify {
		v, err := Verify(original, buf.Bytes())
		if err != nil {
			t.logger.Printf("Warning: text verification failed: %v", err)
			v = &Verification{Pages: report.Pages, Error: err.Error()}
		}
		report.Verification = v
	}

	if _, err := out.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}
