package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func (d *Document) catalog() (types.Dict, error) {
	cat, err := d.ctx.Catalog()
	if err != nil {
		return nil, &Error{Op: "catalog", Err: err}
	}
	return cat, nil
}

// storeCatalog writes cat back to the root object
func (d *Document) storeCatalog(cat types.Dict) error {
	if d.ctx.Root == nil {
		return &Error{Op: "catalog", Err: fmt.Errorf("missing document root")}
	}
	entry, found := d.ctx.FindTableEntryForIndRef(d.ctx.Root)
	if !found || entry == nil {
		return &Error{Op: "catalog", Err: fmt.Errorf("root object %d not found", d.ctx.Root.ObjectNumber.Value())}
	}
	entry.Object = cat
	d.ctx.RootDict = cat
	return nil
}

// StructTreeRoot returns the catalog's /StructTreeRoot entry, or nil when
// the document has none
func (d *Document) StructTreeRoot() (types.Object, error) {
	cat, err := d.catalog()
	if err != nil {
		return nil, err
	}
	obj, found := cat.Find("StructTreeRoot")
	if !found {
		return nil, nil
	}
	return obj, nil
}

// IsMarked reports whether /MarkInfo declares the document as tagged
func (d *Document) IsMarked() (bool, error) {
	cat, err := d.catalog()
	if err != nil {
		return false, err
	}
	obj, found := cat.Find("MarkInfo")
	if !found {
		return false, nil
	}
	markInfo, err := d.ctx.DereferenceDict(obj)
	if err != nil || markInfo == nil {
		return false, err
	}
	marked, ok := markInfo["Marked"].(types.Boolean)
	return ok && bool(marked), nil
}

// SetStructTreeRoot points the catalog's /StructTreeRoot at ref
func (d *Document) SetStructTreeRoot(ref types.IndirectRef) error {
	cat, err := d.catalog()
	if err != nil {
		return err
	}
	cat["StructTreeRoot"] = ref
	return d.storeCatalog(cat)
}

// MarkTagged sets /MarkInfo << /Marked true >> in the catalog
func (d *Document) MarkTagged() error {
	cat, err := d.catalog()
	if err != nil {
		return err
	}
	cat["MarkInfo"] = types.Dict{"Marked": types.Boolean(true)}
	return d.storeCatalog(cat)
}
