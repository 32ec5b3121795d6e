package pdf

import (
	"fmt"
	"os"

	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf/structtree"
)

// PDFStructureInfo reports whether a PDF file is tagged and summarizes its
// structure tree
func (s *Service) PDFStructureInfo(req PDFStructureInfoRequest) (*PDFStructureInfoResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := s.validator.ValidateFileInfo(path, info); err != nil {
		return nil, err
	}

	doc, err := document.OpenFile(path)
	if err != nil {
		return nil, err
	}

	result := &PDFStructureInfoResult{
		Path:        path,
		Pages:       doc.PageCount(),
		Encrypted:   doc.Encrypted(),
		Permissions: doc.Permissions().String(),
	}

	for pageNr := 1; pageNr <= result.Pages; pageNr++ {
		refs, err := doc.ContentStreams(pageNr)
		if err != nil {
			continue
		}
		result.Streams += len(refs)
	}

	if result.Marked, err = doc.IsMarked(); err != nil {
		return nil, err
	}

	root, err := doc.StructTreeRoot()
	if err != nil {
		return nil, err
	}
	if root == nil {
		result.Message = "document has no structure tree"
		return result, nil
	}

	result.Tagged = true
	result.Structure, err = structtree.Inspect(doc, root)
	if err != nil {
		result.Message = fmt.Sprintf("structure tree could not be read: %v", err)
	}
	return result, nil
}
