package tagger

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Verification compares the text extracted from a document before and
// after tagging. Marked content must not change what a page shows.
type Verification struct {
	Pages      int    `json:"pages"`
	Matched    int    `json:"matched"`
	Mismatched []int  `json:"mismatched,omitempty"`
	Unreadable []int  `json:"unreadable,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether every readable page matched
func (v *Verification) OK() bool {
	return v.Error == "" && len(v.Mismatched) == 0
}

// Verify extracts plain text page by page from both documents and records
// the pages whose text differs. Whitespace differences are ignored.
func Verify(original, tagged []byte) (*Verification, error) {
	before, err := pageTexts(original)
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}
	after, err := pageTexts(tagged)
	if err != nil {
		return nil, fmt.Errorf("read tagged: %w", err)
	}
	if len(before) != len(after) {
		return nil, fmt.Errorf("page count changed from %d to %d", len(before), len(after))
	}

	v := &Verification{Pages: len(before)}
	for i := range before {
		pageNum := i + 1
		switch {
		case before[i].err != nil || after[i].err != nil:
			v.Unreadable = append(v.Unreadable, pageNum)
		case normalizeText(before[i].text) == normalizeText(after[i].text):
			v.Matched++
		default:
			v.Mismatched = append(v.Mismatched, pageNum)
		}
	}
	return v, nil
}

type pageText struct {
	text string
	err  error
}

func pageTexts(data []byte) (pages []pageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("text extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages = make([]pageText, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		pages[i] = pageText{text: text, err: err}
	}
	return pages, nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
