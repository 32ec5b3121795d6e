// Package document adapts a pdfcpu context to the operations the tagger
// needs: page content streams, the document catalog and object allocation.
package document

import (
	"fmt"
	"io"
	"os"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/security"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Error describes a failed document operation
type Error struct {
	Op  string `json:"operation"`
	Err error  `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("PDF document error in %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrInvalidPage = &Error{Op: "page", Err: fmt.Errorf("invalid page number")}
	ErrNotAStream  = &Error{Op: "stream", Err: fmt.Errorf("object is not a stream")}
)

// Document is an open PDF held in memory
type Document struct {
	ctx *model.Context
}

// Open reads a PDF from rs
func Open(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to ensure page count: %w", err)}
	}

	return &Document{ctx: ctx}, nil
}

// OpenFile reads the PDF at path
func OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open_file", Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	return Open(file)
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the dictionary and indirect reference of a 1-based page
func (d *Document) Page(pageNr int) (types.Dict, types.IndirectRef, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, types.IndirectRef{}, ErrInvalidPage
	}

	pageDict, pageRef, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, types.IndirectRef{}, &Error{Op: "page", Err: fmt.Errorf("page %d: %w", pageNr, err)}
	}
	if pageDict == nil || pageRef == nil {
		return nil, types.IndirectRef{}, &Error{Op: "page", Err: fmt.Errorf("page %d not found", pageNr)}
	}
	return pageDict, *pageRef, nil
}

// Encrypted reports whether the document has an encryption dictionary
func (d *Document) Encrypted() bool {
	return d.ctx.Encrypt != nil
}

// Permissions returns the user access flags of an encrypted document and
// full permissions otherwise
func (d *Document) Permissions() security.Permissions {
	if d.ctx.E == nil {
		return security.NewFullPermissions()
	}
	return security.NewPermissions(int32(d.ctx.E.P))
}

// Registrar allocates new indirect objects in the document
func (d *Document) Registrar() *Registrar {
	return &Registrar{ctx: d.ctx}
}

// Dereference resolves an indirect reference, returning other objects as-is
func (d *Document) Dereference(obj types.Object) (types.Object, error) {
	return d.ctx.Dereference(obj)
}

// Write serializes the document to w
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}

// Registrar adds objects to the document's cross reference table
type Registrar struct {
	ctx   *model.Context
	count int
}

// IndRefForNewObject stores obj as a new indirect object
func (r *Registrar) IndRefForNewObject(obj types.Object) (*types.IndirectRef, error) {
	ref, err := r.ctx.IndRefForNewObject(obj)
	if err != nil {
		return nil, &Error{Op: "register", Err: err}
	}
	r.count++
	return ref, nil
}

// Count is the number of objects registered so far
func (r *Registrar) Count() int {
	return r.count
}
