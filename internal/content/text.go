package content

import (
	"strings"

	"github.com/digitorus/pdfverify/internal/fontmodel"
	"github.com/digitorus/pdfverify/internal/pdfobj"
)

// Extract interprets a page's content stream bytes, returning the text its
// show-text operators produce, with each show-text block joined to the next
// by a single space.
func Extract(table *pdfobj.Table, data []byte, resources pdfobj.Value, fonts map[string]fontmodel.Font) string {
	return extract(table, data, resources, fonts, make(map[pdfobj.Ref]bool))
}

func extract(table *pdfobj.Table, data []byte, resources pdfobj.Value, fonts map[string]fontmodel.Font, visited map[pdfobj.Ref]bool) string {
	tokens := Tokenize(data)

	var out strings.Builder
	var pending []byte
	inText := false
	var curFont *fontmodel.Font

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.Write(pending)
		pending = nil
	}

	decode := func(raw []byte) []byte {
		if curFont != nil {
			return []byte(curFont.Decode(raw))
		}
		return []byte(fontmodel.DecodeDefault(raw))
	}

	for i, tok := range tokens {
		if tok.Kind != TokOperator {
			continue
		}
		switch tok.Op {
		case "BT":
			inText = true
		case "ET":
			if inText {
				flush()
				inText = false
			}
		case "Tf":
			if i >= 2 && tokens[i-2].Kind == TokName {
				name := tokens[i-2].Name
				if f, ok := fonts[name]; ok {
					fcopy := f
					curFont = &fcopy
				} else {
					curFont = nil
				}
			}
		case "Tj":
			if inText && i >= 1 && tokens[i-1].Kind == TokString {
				pending = append(pending, decode(tokens[i-1].Str)...)
			}
		case "TJ":
			if inText {
				pending = append(pending, decodeArrayOperand(tokens, i, decode)...)
			}
		case "'":
			if inText {
				flush()
				if i >= 1 && tokens[i-1].Kind == TokString {
					pending = append(pending, decode(tokens[i-1].Str)...)
				}
			}
		case "\"":
			if inText {
				flush()
				if i >= 1 && tokens[i-1].Kind == TokString {
					pending = append(pending, decode(tokens[i-1].Str)...)
				}
			}
		case "Do":
			if i >= 1 && tokens[i-1].Kind == TokName {
				if sub := resolveFormXObject(table, resources, tokens[i-1].Name, visited); sub != "" {
					flush()
					if out.Len() > 0 {
						out.WriteByte(' ')
					}
					out.WriteString(sub)
				}
			}
		}
	}
	flush()
	return out.String()
}

// decodeArrayOperand finds the array literal immediately preceding a TJ
// operator and decodes every string element, inserting a single space
// wherever a kerning adjustment is large enough (< -200) to represent an
// inter-word gap rather than ordinary glyph kerning.
func decodeArrayOperand(tokens []Token, opIndex int, decode func([]byte) []byte) []byte {
	if opIndex < 1 || tokens[opIndex-1].Kind != TokArrayEnd {
		return nil
	}
	depth := 1
	start := opIndex - 1
	for j := opIndex - 2; j >= 0; j-- {
		switch tokens[j].Kind {
		case TokArrayEnd:
			depth++
		case TokArrayStart:
			depth--
			if depth == 0 {
				start = j
				goto found
			}
		}
	}
	return nil
found:
	var out []byte
	for j := start + 1; j < opIndex-1; j++ {
		switch tokens[j].Kind {
		case TokString:
			out = append(out, decode(tokens[j].Str)...)
		case TokNumber:
			if tokens[j].Number < -200 {
				out = append(out, ' ')
			}
		}
	}
	return out
}

func resolveFormXObject(table *pdfobj.Table, resources pdfobj.Value, name string, visited map[pdfobj.Ref]bool) string {
	xobjects := table.Resolve(resources.Key("XObject"))
	ref := xobjects.Key(name)
	if ref.Kind() == pdfobj.KindRef {
		if visited[ref.Ref()] {
			return ""
		}
		visited[ref.Ref()] = true
	}
	val := table.Resolve(ref)
	if val.Kind() != pdfobj.KindStream || val.Key("Subtype").Name() != "Form" {
		return ""
	}
	data, err := table.DecodeStream(val)
	if err != nil {
		return ""
	}

	childResources := val.Key("Resources")
	if childResources.IsNull() {
		childResources = resources
	}
	childFonts := mergeFonts(table, resources, childResources)

	return extract(table, data, childResources, childFonts, visited)
}

// mergeFonts builds the font map a Form XObject sees: the parent's fonts
// extended by the form's own /Font resources, with the form's entries
// overwriting same-named parent entries.
func mergeFonts(table *pdfobj.Table, parentResources, childResources pdfobj.Value) map[string]fontmodel.Font {
	merged := make(map[string]fontmodel.Font)
	fillFonts(table, parentResources, merged)
	fillFonts(table, childResources, merged)
	return merged
}

func fillFonts(table *pdfobj.Table, resources pdfobj.Value, into map[string]fontmodel.Font) {
	fontDict := table.Resolve(resources.Key("Font"))
	if fontDict.Kind() != pdfobj.KindDict {
		return
	}
	for _, name := range fontDict.Keys() {
		fd := table.Resolve(fontDict.Key(name))
		into[name] = fontmodel.Extract(fd, table)
	}
}

// FontsForResources extracts the /Font dictionary of a resources value into
// a name-keyed Font map, for callers (e.g. per-page extraction) that need
// it ahead of Extract.
func FontsForResources(table *pdfobj.Table, resources pdfobj.Value) map[string]fontmodel.Font {
	out := make(map[string]fontmodel.Font)
	fillFonts(table, resources, out)
	return out
}
