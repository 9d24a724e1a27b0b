// Package pages walks a PDF's page tree, resolving the inherited
// /Resources, /MediaBox and similar attributes and collecting each leaf
// page's content stream bytes.
package pages

import (
	"fmt"

	"github.com/digitorus/pdfverify/internal/pdfobj"
)

// Page is one leaf of the page tree after inheritance has been applied.
type Page struct {
	Ref         pdfobj.Ref
	Resources   pdfobj.Value
	ContentData []byte
}

// ContentDecodeError reports that a page's content stream was present but
// its filter chain failed to decode, as distinct from a malformed page
// tree (no catalog, no /Pages entry).
type ContentDecodeError struct {
	Err error
}

func (e *ContentDecodeError) Error() string { return e.Err.Error() }
func (e *ContentDecodeError) Unwrap() error { return e.Err }

// inheritedKeys are copied from a /Pages node down to its children when the
// child doesn't already define them.
var inheritedKeys = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Collect walks /Root/Pages and returns every leaf page in document order.
// Cycles (a node that is its own ancestor) are broken by tracking visited
// (num, gen) pairs; a cyclic page tree yields an empty, non-error result.
// A document with no catalog, or a catalog with no /Pages entry, is an
// error.
func Collect(table *pdfobj.Table) ([]Page, error) {
	root := table.Root()
	if root.IsNull() {
		return nil, fmt.Errorf("pages: document has no catalog")
	}
	pagesRoot := table.Resolve(root.Key("Pages"))
	if pagesRoot.IsNull() {
		return nil, fmt.Errorf("pages: catalog has no /Pages entry")
	}

	visited := make(map[pdfobj.Ref]bool)
	var out []Page
	if err := walk(table, root.Key("Pages"), pagesRoot, pdfobj.Dict(nil), visited, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(table *pdfobj.Table, ref pdfobj.Value, node pdfobj.Value, inherited pdfobj.Value, visited map[pdfobj.Ref]bool, out *[]Page) error {
	if ref.Kind() == pdfobj.KindRef {
		if visited[ref.Ref()] {
			return nil
		}
		visited[ref.Ref()] = true
	}
	if node.IsNull() {
		return nil
	}

	merged := mergeInherited(inherited, node)

	kids := table.Resolve(node.Key("Kids"))
	if kids.Kind() == pdfobj.KindArray {
		for _, kidRef := range kids.Array() {
			kid := table.Resolve(kidRef)
			if err := walk(table, kidRef, kid, merged, visited, out); err != nil {
				return err
			}
		}
		return nil
	}

	// A node with no /Kids is a leaf page (its /Type may say /Page, or be
	// absent in malformed files; tolerated either way).
	content, err := collectContent(table, merged.Key("Contents"))
	if err != nil {
		return err
	}
	p := Page{
		Resources:   merged.Key("Resources"),
		ContentData: content,
	}
	if ref.Kind() == pdfobj.KindRef {
		p.Ref = ref.Ref()
	}
	*out = append(*out, p)
	return nil
}

// mergeInherited layers parent onto child: a key the child already defines
// wins; only keys missing from child are pulled up from parent.
func mergeInherited(parent, child pdfobj.Value) pdfobj.Value {
	merged := make(map[string]pdfobj.Value)
	for k, v := range child.Dict() {
		merged[k] = v
	}
	for _, key := range inheritedKeys {
		if _, ok := merged[key]; ok {
			continue
		}
		if v := parent.Key(key); !v.IsNull() {
			merged[key] = v
		}
	}
	return pdfobj.Dict(merged)
}

// collectContent concatenates a page's /Contents: a single stream, an array
// of streams (each separated by a single space, so operators at a stream
// boundary stay apart), or nothing for a blank page. A stream that
// is actually present but whose filter chain fails to decode is a hard
// error, not a silently blank page.
func collectContent(table *pdfobj.Table, contents pdfobj.Value) ([]byte, error) {
	switch contents.Kind() {
	case pdfobj.KindRef:
		return streamBytes(table, table.Resolve(contents))
	case pdfobj.KindArray:
		var out []byte
		for i, item := range contents.Array() {
			if i > 0 {
				out = append(out, ' ')
			}
			data, err := streamBytes(table, table.Resolve(item))
			if err != nil {
				return nil, err
			}
			out = append(out, data...)
		}
		return out, nil
	case pdfobj.KindStream:
		return streamBytes(table, contents)
	default:
		return nil, nil
	}
}

func streamBytes(table *pdfobj.Table, v pdfobj.Value) ([]byte, error) {
	if v.Kind() != pdfobj.KindStream {
		return nil, nil
	}
	data, err := table.DecodeStream(v)
	if err != nil {
		return nil, &ContentDecodeError{Err: fmt.Errorf("pages: decoding content stream: %w", err)}
	}
	return data, nil
}
