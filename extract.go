package pdfverify

import (
	"errors"
	"strings"

	"github.com/digitorus/pdfverify/internal/content"
	"github.com/digitorus/pdfverify/internal/pages"
)

// ExtractText walks the document's page tree in order and returns the text
// its content streams show, one page's text per element. A page tree that
// can't even be located (no /Pages entry, a missing catalog) is a
// ParseError; a page whose content stream is present but whose filter
// chain fails to decode is a DecompressionError.
func (d *Document) ExtractText() ([]string, error) {
	leaves, err := pages.Collect(d.table)
	if err != nil {
		var decodeErr *pages.ContentDecodeError
		if errors.As(err, &decodeErr) {
			return nil, &DecompressionError{Msg: err.Error()}
		}
		return nil, &ParseError{Msg: err.Error()}
	}

	out := make([]string, len(leaves))
	for i, page := range leaves {
		fonts := content.FontsForResources(d.table, page.Resources)
		out[i] = content.Extract(d.table, page.ContentData, page.Resources, fonts)
	}
	return out, nil
}

// ExtractAllText is a convenience wrapper over ExtractText that joins every
// page's text with a blank line between pages.
func (d *Document) ExtractAllText() (string, error) {
	pagesText, err := d.ExtractText()
	if err != nil {
		return "", err
	}
	return strings.Join(pagesText, "\n\n"), nil
}

// ExtractText opens path and returns the text of every page. It's a
// convenience wrapper for callers that don't need the Document afterward.
func ExtractText(path string) ([]string, error) {
	doc, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return doc.ExtractText()
}
