// Package pdfverify reads and validates PDF documents: it rebuilds a PDF's
// object graph from raw bytes, extracts the text shown on each page, and
// verifies an embedded PKCS#7 signature against the exact bytes it covers.
// It does not write, sign, or render PDFs — only read and check them.
//
// Basic usage:
//
//	doc, err := pdfverify.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := doc.ExtractText()
//	result, err := doc.VerifySignature()
package pdfverify

import (
	"fmt"
	"io"
	"os"

	"github.com/mattetti/filebuffer"

	"github.com/digitorus/pdfverify/internal/pdfobj"
)

// Document represents a parsed PDF document ready for text extraction or
// signature verification.
type Document struct {
	reader io.ReaderAt
	size   int64
	raw    []byte // the full file, read once; most operations here work on raw bytes
	table  *pdfobj.Table
}

// Open initializes a Document from an io.ReaderAt (e.g. an open file or
// in-memory buffer). size must be the PDF's total length in bytes.
func Open(reader io.ReaderAt, size int64) (*Document, error) {
	raw := make([]byte, size)
	if _, err := reader.ReadAt(raw, 0); err != nil && err != io.EOF {
		return nil, &ParseError{Msg: fmt.Sprintf("reading document: %v", err)}
	}

	table, err := pdfobj.Parse(raw)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	return &Document{
		reader: reader,
		size:   size,
		raw:    raw,
		table:  table,
	}, nil
}

// OpenFile opens and parses a PDF document from a path on disk.
func OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfverify: opening file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("pdfverify: stat: %w", err)
	}

	return Open(file, info.Size())
}

// OpenBytes parses a PDF document already held in memory, backing the
// Document's io.ReaderAt with filebuffer rather than requiring the caller
// to wrap the slice themselves.
func OpenBytes(data []byte) (*Document, error) {
	return Open(filebuffer.New(data), int64(len(data)))
}

// Raw returns the document's underlying bytes. Callers that only need the
// parsed object table should prefer ExtractText/VerifySignature; Raw exists
// for lower-level inspection.
func (d *Document) Raw() []byte { return d.raw }
