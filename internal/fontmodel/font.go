// Package fontmodel reads just enough of a PDF font dictionary to turn the
// byte strings a content stream shows into readable text: the declared
// encoding, any /Differences glyph-name overlay, and a /ToUnicode CMap.
package fontmodel

import "github.com/digitorus/pdfverify/internal/pdfobj"

// Font holds what's needed to decode one font's show-text operands.
type Font struct {
	BaseFont string
	Subtype  string
	Encoding string // resolved base encoding name, e.g. "WinAnsiEncoding"

	// Differences overlays individual codes with a named glyph, taking
	// priority over both ToUnicode and the base encoding for those codes.
	Differences map[int]string

	// ToUnicode maps a character code (or CID, for two-byte fonts) straight
	// to its Unicode text, taking priority over the base encoding but not
	// over a Differences hit.
	ToUnicode map[uint32]string

	// TwoByte is true for CID-keyed fonts (Identity-H and friends), whose
	// codes are read two bytes at a time instead of one.
	TwoByte bool
}

// Extract reads one font dictionary (already resolved) into a Font.
func Extract(fontDict pdfobj.Value, table *pdfobj.Table) Font {
	f := Font{
		BaseFont: "Unknown",
		Subtype:  "Type1",
	}
	if bf := fontDict.Key("BaseFont"); bf.Kind() == pdfobj.KindName {
		f.BaseFont = bf.Name()
	}
	if st := fontDict.Key("Subtype"); st.Kind() == pdfobj.KindName {
		f.Subtype = st.Name()
	}

	f.Encoding = resolveEncoding(table, fontDict.Key("Encoding"))
	f.TwoByte = f.Subtype == "Type0" || f.Encoding == "Identity-H" || f.Encoding == "Identity-V"

	if enc := table.Resolve(fontDict.Key("Encoding")); enc.Kind() == pdfobj.KindDict {
		f.Differences = parseDifferences(enc.Key("Differences"))
	}

	if tu := table.Resolve(fontDict.Key("ToUnicode")); tu.Kind() == pdfobj.KindStream {
		if data, err := table.DecodeStream(tu); err == nil {
			f.ToUnicode = parseToUnicodeCMap(data)
		}
	}

	return f
}

// resolveEncoding follows every shape §4 allows: a direct Name, a Reference
// to a Name, a Reference to a Dict (read its /BaseEncoding), or a Dict
// (same). Anything else, or a dict with no /BaseEncoding, defaults to
// "Identity-H".
func resolveEncoding(table *pdfobj.Table, enc pdfobj.Value) string {
	switch enc.Kind() {
	case pdfobj.KindName:
		return enc.Name()
	case pdfobj.KindRef:
		resolved := table.Resolve(enc)
		switch resolved.Kind() {
		case pdfobj.KindName:
			return resolved.Name()
		case pdfobj.KindDict:
			if be := resolved.Key("BaseEncoding"); be.Kind() == pdfobj.KindName {
				return be.Name()
			}
		}
		return "Identity-H"
	case pdfobj.KindDict:
		if be := enc.Key("BaseEncoding"); be.Kind() == pdfobj.KindName {
			return be.Name()
		}
		return "Identity-H"
	default:
		return "Identity-H"
	}
}

// parseDifferences reads the alternating integer-code/name-run array: each
// integer sets the "current code", and every name after it occupies the
// next code in sequence until the next integer.
func parseDifferences(diff pdfobj.Value) map[int]string {
	if diff.Kind() != pdfobj.KindArray {
		return nil
	}
	out := make(map[int]string)
	code := 0
	for _, item := range diff.Array() {
		switch item.Kind() {
		case pdfobj.KindNumber:
			code = item.Int()
		case pdfobj.KindName:
			out[code] = item.Name()
			code++
		}
	}
	return out
}
