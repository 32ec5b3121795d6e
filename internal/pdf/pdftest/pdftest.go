// Package pdftest builds small PDF files in memory for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stream is one page content stream. Filter names the /Filter entry; data
// for FlateDecode is compressed by the builder, any other filter is written
// as given.
type Stream struct {
	Data   string
	Filter string
}

// Text returns an unfiltered content stream
func Text(data string) Stream {
	return Stream{Data: data}
}

// Flate returns a FlateDecode content stream
func Flate(data string) Stream {
	return Stream{Data: data, Filter: "FlateDecode"}
}

// Page lists the content streams of a page. A single stream is written as
// a direct /Contents reference, several as an array.
type Page struct {
	Streams []Stream
}

// Options adjusts the document catalog
type Options struct {
	// Tagged adds an empty StructTreeRoot and /MarkInfo
	Tagged bool
}

// Build returns a PDF with the given pages
func Build(pages ...Page) []byte {
	return BuildWith(Options{}, pages...)
}

// SimplePages returns one page per content string, each a single
// unfiltered stream
func SimplePages(contents ...string) []Page {
	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{Streams: []Stream{Text(c)}}
	}
	return pages
}

// BuildWith returns a PDF with the given pages and catalog options
func BuildWith(opts Options, pages ...Page) []byte {
	w := &writer{}

	// fixed object numbers: 1 catalog, 2 page tree, 3 font, 4 struct tree root
	next := 5
	pageNrs := make([]int, len(pages))
	streamNrs := make([][]int, len(pages))
	for i, p := range pages {
		pageNrs[i] = next
		next++
		for range p.Streams {
			streamNrs[i] = append(streamNrs[i], next)
			next++
		}
	}

	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if opts.Tagged {
		catalog += " /StructTreeRoot 4 0 R /MarkInfo << /Marked true >>"
	}
	w.object(1, catalog+" >>")

	kids := make([]string, len(pages))
	for i, nr := range pageNrs {
		kids[i] = fmt.Sprintf("%d 0 R", nr)
	}
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	w.object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	w.object(4, "<< /Type /StructTreeRoot /K [] >>")

	for i, p := range pages {
		page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>"
		switch len(streamNrs[i]) {
		case 0:
		case 1:
			page += fmt.Sprintf(" /Contents %d 0 R", streamNrs[i][0])
		default:
			refs := make([]string, len(streamNrs[i]))
			for j, nr := range streamNrs[i] {
				refs[j] = fmt.Sprintf("%d 0 R", nr)
			}
			page += fmt.Sprintf(" /Contents [%s]", strings.Join(refs, " "))
		}
		w.object(pageNrs[i], page+" >>")

		for j, s := range p.Streams {
			w.stream(streamNrs[i][j], s)
		}
	}

	return w.finish(next)
}

// WriteFile builds a PDF into dir and returns its path
func WriteFile(dir, name string, pages ...Page) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *writer) header() {
	if w.buf.Len() == 0 {
		w.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
		w.offsets = map[int]int{}
	}
}

func (w *writer) object(nr int, body string) {
	w.header()
	w.offsets[nr] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", nr, body)
}

func (w *writer) stream(nr int, s Stream) {
	w.header()
	data := []byte(s.Data)
	if s.Filter == "FlateDecode" {
		data = deflate(data)
	}

	dict := fmt.Sprintf("<< /Length %d", len(data))
	if s.Filter != "" {
		dict += " /Filter /" + s.Filter
	}
	dict += " >>"

	w.offsets[nr] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nstream\n", nr, dict)
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *writer) finish(size int) []byte {
	w.header()
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", size)
	w.buf.WriteString("0000000000 65535 f \n")
	for nr := 1; nr < size; nr++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[nr])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
	return w.buf.Bytes()
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}
